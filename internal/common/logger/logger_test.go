// Package logger 日志模块单元测试
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dumeirei/inventory-backend/internal/common/config"
)

func TestInit_ConsoleFormat(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
		Caller: true,
	}

	require.NoError(t, Init(cfg))
	assert.NotNil(t, log)
	assert.NotNil(t, sugar)
}

func TestInit_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "app.log")

	cfg := &config.LoggerConfig{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	}
	require.NoError(t, Init(cfg))

	Info("purchase created", OrderNo("PO20250214001"), PurchaseID(7), ProductCode("B03"))
	_ = Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, `"order_no":"PO20250214001"`))
	assert.True(t, strings.Contains(content, `"purchase_id":7`))
	assert.True(t, strings.Contains(content, `"product_code":"B03"`))
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, getLogLevel(tt.level))
		})
	}
}

func TestGetLogger_LazyInit(t *testing.T) {
	log = nil
	sugar = nil
	fallbackOnce = sync.Once{}

	assert.NotNil(t, GetLogger())
	assert.NotNil(t, GetSugar())
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, "order_no", OrderNo("x").Key)
	assert.Equal(t, "purchase_id", PurchaseID(1).Key)
	assert.Equal(t, "product_code", ProductCode("A01").Key)
	assert.Equal(t, "module", Module("purchase").Key)
	assert.Equal(t, "action", Action("create").Key)
	assert.Equal(t, "request_id", RequestID("r").Key)
	assert.Equal(t, "latency", Latency(time.Second).Key)
}
