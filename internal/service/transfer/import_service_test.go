package transfer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/testutil"
	"github.com/dumeirei/inventory-backend/pkg/oss"
)

var importNow = time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC)

type importFixture struct {
	db       *gorm.DB
	svc      *ImportService
	uploader *oss.MockUploader
	reg      *prometheus.Registry
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	uploader := oss.NewMockUploader()
	reg := prometheus.NewRegistry()

	svc := NewImportService(
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
		nil,
		uploader,
		&config.ImportConfig{FirstDataRow: 3},
		metrics.New("test", reg),
	)
	svc.SetClock(func() time.Time { return importNow })

	return &importFixture{db: db, svc: svc, uploader: uploader, reg: reg}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildWorkbook 按导入模板生成工作簿，rows 从第 3 行写入，pictures 以行号为键嵌入 B 列
func buildWorkbook(t *testing.T, rows [][]string, pictures map[int][]byte) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	header := []interface{}{"商品名称", "图片", "商品编码", "规格", "起订量", "渠道", "备注"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetCellValue(sheet, "A2", "说明"))

	for i, r := range rows {
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+3), &values))
	}
	for row, data := range pictures {
		require.NoError(t, f.AddPictureFromBytes(sheet, fmt.Sprintf("B%d", row), &excelize.Picture{
			Extension: ".png",
			File:      data,
			Format:    &excelize.GraphicOptions{},
		}))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func findProduct(t *testing.T, db *gorm.DB, code string) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Where("code = ?", code).First(&p).Error)
	return &p
}

func TestImport_RowsAndImages(t *testing.T) {
	fx := newImportFixture(t)
	tonic := &models.Category{Name: "滋补食品", Level: 1}
	require.NoError(t, fx.db.Create(tonic).Error)

	data := buildWorkbook(t, [][]string{
		{"特级海参", "", "a1", "500g", "10", "1688", "冷藏"},
		{"", "", "", "", "", "", "空行备注"},
		{"", "", "B12"},
		{"龙井茶叶", "", "", "250g", "abc"},
	}, map[int][]byte{3: tinyPNG(t)})

	result, err := fx.svc.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ImportedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Empty(t, result.Failures)

	a01 := findProduct(t, fx.db, "A01")
	assert.Equal(t, "特级海参", a01.Name)
	assert.Equal(t, "滋补食品", a01.Category)
	require.NotNil(t, a01.CategoryID)
	assert.Equal(t, tonic.ID, *a01.CategoryID)
	assert.Equal(t, "500g", a01.Spec)
	assert.Equal(t, 10, a01.MinOrderQty)
	assert.Equal(t, "1688", a01.Channel)
	assert.Equal(t, 0, a01.CurrentStock)
	require.Len(t, a01.Images, 1)
	assert.True(t, strings.HasPrefix(a01.Images[0], fmt.Sprintf("https://mock-oss.example.com/products/A01_%d_", importNow.UnixMilli())))
	assert.True(t, strings.HasSuffix(a01.Images[0], ".png"))
	assert.Equal(t, 1, fx.uploader.Count())

	b12 := findProduct(t, fx.db, "B12")
	assert.Equal(t, "B12", b12.Name)
	assert.Equal(t, "其他", b12.Category)
	assert.Nil(t, b12.CategoryID)
	assert.Empty(t, b12.Images)

	synthesized := fmt.Sprintf("IMP%d6", importNow.UnixMilli())
	tea := findProduct(t, fx.db, synthesized)
	assert.Equal(t, "龙井茶叶", tea.Name)
	assert.Equal(t, "茶叶", tea.Category)
	assert.Equal(t, 0, tea.MinOrderQty)

	assert.Equal(t, 3.0, testutil.CounterValue(t, fx.reg, "test_import_rows_total", map[string]string{"result": "imported"}))
}

func TestImport_UpsertKeepsStock(t *testing.T) {
	fx := newImportFixture(t)
	existing := testutil.CreateProduct(t, fx.db, "A01", "旧名称", 7)

	data := buildWorkbook(t, [][]string{{"新名称 陈皮", "", " a1 ", "1kg", "5"}}, nil)
	result, err := fx.svc.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)

	var count int64
	require.NoError(t, fx.db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got := testutil.ReloadProduct(t, fx.db, existing.ID)
	assert.Equal(t, "新名称 陈皮", got.Name)
	assert.Equal(t, "滋补食品", got.Category)
	assert.Equal(t, "1kg", got.Spec)
	assert.Equal(t, 5, got.MinOrderQty)
	assert.Equal(t, 7, got.CurrentStock)
}

func TestImport_RowFailureDoesNotStopImport(t *testing.T) {
	fx := newImportFixture(t)
	fx.uploader.FailKeys = func(key string) bool { return strings.Contains(key, "/BAD") }

	pic := tinyPNG(t)
	data := buildWorkbook(t, [][]string{
		{"坏图商品", "", "bad1"},
		{"好商品", "", "ok1"},
	}, map[int][]byte{3: pic, 4: pic})

	result, err := fx.svc.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 3, result.Failures[0].Row)
	assert.Equal(t, "BAD01", result.Failures[0].Code)
	assert.Contains(t, result.Failures[0].Message, "图片上传失败")

	var n int64
	require.NoError(t, fx.db.Model(&models.Product{}).Where("code = ?", "BAD01").Count(&n).Error)
	assert.Zero(t, n)
	findProduct(t, fx.db, "OK01")

	assert.Equal(t, 1.0, testutil.CounterValue(t, fx.reg, "test_import_rows_total", map[string]string{"result": "failed"}))
}

func TestImport_ParseError(t *testing.T) {
	fx := newImportFixture(t)

	_, err := fx.svc.Import(context.Background(), []byte("definitely not a workbook"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrImportParse)
	assert.True(t, errors.IsKind(err, errors.KindParse))

	var count int64
	require.NoError(t, fx.db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImport_TemplateHasNoRows(t *testing.T) {
	fx := newImportFixture(t)
	data, filename, err := Template()
	require.NoError(t, err)
	assert.Equal(t, "商品导入模板.xlsx", filename)

	result, err := fx.svc.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Zero(t, result.ImportedCount)
	assert.Empty(t, result.Failures)
}

func TestImageObjectKey(t *testing.T) {
	key := imageObjectKey("A/01 x", "PNG", importNow)
	assert.True(t, strings.HasPrefix(key, fmt.Sprintf("products/A_01_x_%d_", importNow.UnixMilli())), key)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, imageObjectKey("A/01 x", "PNG", importNow))
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"12", 12},
		{"12.0", 12},
		{"-3", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuantity(tt.in))
		})
	}
}
