// Package catalog 提供商品目录服务
package catalog

import "strings"

// DefaultCategory 无法识别时使用的分类
const DefaultCategory = "其他"

// Keyword 分类关键词及权重
type Keyword struct {
	Word   string
	Weight float64
}

// CategoryRule 分类规则，Keywords 按声明顺序求和
type CategoryRule struct {
	Name     string
	Keywords []Keyword
}

// defaultRules 内置分类规则，声明顺序即同分时的优先顺序
var defaultRules = []CategoryRule{
	{
		Name: "滋补食品",
		Keywords: []Keyword{
			{"海参", 3}, {"陈皮", 3}, {"燕窝", 3}, {"花胶", 3}, {"鱼胶", 3},
			{"阿胶", 3}, {"虫草", 3}, {"鹿茸", 3}, {"人参", 2.5}, {"西洋参", 3},
			{"枸杞", 2}, {"红枣", 2}, {"桂圆", 2}, {"银耳", 2}, {"灵芝", 2.5},
			{"石斛", 2.5}, {"黄芪", 2}, {"党参", 2}, {"滋补", 2}, {"养生", 1},
		},
	},
	{
		Name: "茶叶",
		Keywords: []Keyword{
			{"普洱", 2}, {"红茶", 2}, {"绿茶", 2}, {"白茶", 2}, {"乌龙", 2},
			{"铁观音", 2.5}, {"龙井", 2.5}, {"大红袍", 2.5}, {"碧螺春", 2.5},
			{"毛尖", 2}, {"岩茶", 2}, {"茶饼", 2}, {"茶", 1},
		},
	},
	{
		Name: "干货",
		Keywords: []Keyword{
			{"干贝", 2}, {"瑶柱", 2}, {"虾米", 2}, {"虾干", 2}, {"鱿鱼", 2},
			{"墨鱼", 2}, {"香菇", 2}, {"花菇", 2}, {"木耳", 2}, {"紫菜", 2},
			{"海带", 2}, {"笋干", 2}, {"鱼干", 2}, {"干货", 2}, {"海米", 2},
		},
	},
	{
		Name: "调味品",
		Keywords: []Keyword{
			{"八角", 2}, {"桂皮", 2}, {"花椒", 2}, {"香叶", 2}, {"草果", 2},
			{"陈皮", 1.5}, {"酱油", 2}, {"蚝油", 2}, {"醋", 1.5}, {"盐", 1},
			{"调料", 2}, {"香料", 2}, {"辣椒", 1.5},
		},
	},
	{
		Name: "零食",
		Keywords: []Keyword{
			{"坚果", 2}, {"果干", 2}, {"饼干", 2}, {"糖果", 2}, {"巧克力", 2},
			{"瓜子", 2}, {"核桃", 1.5}, {"腰果", 2}, {"开心果", 2}, {"零食", 2},
			{"肉脯", 2}, {"蜜饯", 2},
		},
	},
	{
		Name: "包装耗材",
		Keywords: []Keyword{
			{"礼盒", 2.5}, {"包装", 2}, {"纸箱", 2.5}, {"快递袋", 2.5}, {"自封袋", 2.5},
			{"胶带", 2}, {"标签", 1.5}, {"贴纸", 1.5}, {"泡沫", 1.5}, {"罐", 1},
			{"盒", 1}, {"袋", 1},
		},
	},
	{
		Name: "日用品",
		Keywords: []Keyword{
			{"纸巾", 2}, {"毛巾", 2}, {"洗洁精", 2}, {"牙刷", 2}, {"杯", 1},
			{"碗", 1}, {"筷", 1}, {"日用", 2},
		},
	},
}

// Classifier 根据商品名称推断分类
type Classifier struct {
	rules    []CategoryRule
	fallback string
}

// NewClassifier 创建分类器，fallback 为空时使用 DefaultCategory
func NewClassifier(rules []CategoryRule, fallback string) *Classifier {
	if fallback == "" {
		fallback = DefaultCategory
	}
	return &Classifier{rules: rules, fallback: fallback}
}

var defaultClassifier = NewClassifier(defaultRules, DefaultCategory)

// DefaultClassifier 返回内置规则的分类器
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// Classify 使用内置规则分类
func Classify(name string) string {
	return defaultClassifier.Classify(name)
}

// Categories 返回规则中声明的分类名称
func (c *Classifier) Categories() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, rule := range c.rules {
		names = append(names, rule.Name)
	}
	return append(names, c.fallback)
}

// Classify 返回得分最高的分类，同分保留先声明者，无命中返回兜底分类
func (c *Classifier) Classify(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.fallback
	}

	best := c.fallback
	bestScore := 0.0
	for _, rule := range c.rules {
		score := rule.score(name)
		if score > bestScore {
			best = rule.Name
			bestScore = score
		}
	}
	return best
}

func (r CategoryRule) score(name string) float64 {
	var sum float64
	matched := 0
	for _, kw := range r.Keywords {
		if kw.Word != "" && strings.Contains(name, kw.Word) {
			sum += kw.Weight
			matched++
		}
	}
	// 多个关键词同时命中时提高置信度
	if matched > 1 {
		sum *= 1 + 0.2*float64(matched-1)
	}
	return sum
}
