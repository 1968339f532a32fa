package catalog

import (
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)

// NormalizeCode 规范化商品编码：去空格转大写，字母后仅一位数字时补零（b3 -> B03）
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	m := codePattern.FindStringSubmatch(code)
	if m == nil || len(m[2]) != 1 {
		return code
	}
	return m[1] + "0" + m[2]
}

// codeSearchPattern 编码后缀检索：可选非数字前缀、任意前导零，检索词位于末尾
func codeSearchPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\D*0*` + regexp.QuoteMeta(term) + `$`)
}
