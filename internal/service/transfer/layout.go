// Package transfer 提供商品 Excel 导入与商品/采购单导出
package transfer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// 导入模板列，数据从第 3 行开始
const (
	colName        = 0 // A 商品名称
	colImage       = 1 // B 图片
	colCode        = 2 // C 商品编码
	colSpec        = 3 // D 规格
	colMinOrderQty = 4 // E 起订量
	colChannel     = 5 // F 渠道
	colRemark      = 6 // G 备注

	imageColumn     = "B"
	defaultFirstRow = 3
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var templateHeaders = []string{"商品名称", "图片", "商品编码", "规格", "起订量", "渠道", "备注"}

var templateHints = []string{"必填（与编码至少填一项）", "嵌入单元格的图片", "如 A01，留空自动生成", "", "整数", "如 1688/线下", ""}

var templateWidths = []float64{30, 16, 16, 20, 10, 14, 30}

// ContentType 导出文件的 MIME 类型
func ContentType() string {
	return xlsxContentType
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "left", Color: "#B4B4B4", Style: 1},
			{Type: "top", Color: "#B4B4B4", Style: 1},
			{Type: "bottom", Color: "#B4B4B4", Style: 1},
			{Type: "right", Color: "#B4B4B4", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

// writeHeader 写入表头行并设置列宽
func writeHeader(f *excelize.File, sheet string, row int, headers []string, widths []float64) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func toBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Template 生成空白导入模板：第 1 行为表头，第 2 行为填写说明
func Template() ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "商品导入"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}
	if err := writeHeader(f, sheet, 1, templateHeaders, templateWidths); err != nil {
		return nil, "", err
	}
	for i, hint := range templateHints {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, hint); err != nil {
			return nil, "", err
		}
	}

	data, err := toBytes(f)
	if err != nil {
		return nil, "", fmt.Errorf("生成模板失败: %w", err)
	}
	return data, "商品导入模板.xlsx", nil
}
