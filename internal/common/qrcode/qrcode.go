// Package qrcode 生成商品标签二维码
package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// LabelPrefix 标签内容前缀，扫码端据此识别商品编码
const LabelPrefix = "INV:"

// 尺寸范围（像素）
const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 1024
)

// RecoveryLevel 纠错级别
type RecoveryLevel int

const (
	// Low 7% 纠错
	Low RecoveryLevel = iota
	// Medium 15% 纠错
	Medium
	// High 25% 纠错，标签贴在货架上容易磨损
	High
)

// Generator 二维码生成器
type Generator struct {
	size          int
	recoveryLevel RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置默认尺寸
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = ClampSize(size)
	}
}

// WithRecoveryLevel 设置纠错级别
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(g *Generator) {
		g.recoveryLevel = level
	}
}

// NewGenerator 创建二维码生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          DefaultSize,
		recoveryLevel: High,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ClampSize 将尺寸限制在允许范围内，0 表示默认
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	default:
		return size
	}
}

func (g *Generator) level() qrcode.RecoveryLevel {
	switch g.recoveryLevel {
	case Low:
		return qrcode.Low
	case Medium:
		return qrcode.Medium
	default:
		return qrcode.High
	}
}

// LabelContent 商品编码对应的标签内容
func LabelContent(code string) string {
	return LabelPrefix + strings.TrimSpace(code)
}

// ParseLabel 从扫码内容解析商品编码
func ParseLabel(content string) (string, bool) {
	code, ok := strings.CutPrefix(strings.TrimSpace(content), LabelPrefix)
	if !ok || code == "" {
		return "", false
	}
	return code, true
}

// ProductLabelPNG 生成商品标签 PNG，size 为 0 时使用默认尺寸
func (g *Generator) ProductLabelPNG(code string, size int) ([]byte, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("商品编码为空")
	}
	if size == 0 {
		size = g.size
	}
	data, err := qrcode.Encode(LabelContent(code), g.level(), ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return data, nil
}
