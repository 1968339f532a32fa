package transfer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/testutil"
)

func openRows(t *testing.T, data []byte) (string, [][]string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetList()[0]
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return sheet, rows
}

func TestExportProducts(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewExportService(repository.NewProductRepository(db), repository.NewPurchaseRepository(db))
	svc.now = func() time.Time { return importNow }

	p := testutil.CreateProduct(t, db, "A02", "陈皮", 4)
	require.NoError(t, db.Model(p).Updates(map[string]interface{}{"category": "滋补食品", "price": decimal.RequireFromString("12.50")}).Error)
	testutil.CreateProduct(t, db, "A01", "纸箱", 0)

	data, filename, err := svc.ExportProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "商品_20250214090000.xlsx", filename)

	sheet, rows := openRows(t, data)
	assert.Equal(t, "商品", sheet)
	require.Len(t, rows, 3)
	assert.Equal(t, productHeaders, rows[0])
	assert.Equal(t, "A01", rows[1][0])
	assert.Equal(t, "A02", rows[2][0])
	assert.Equal(t, "12.5", rows[2][5])
	assert.Equal(t, "4", rows[2][6])

	data, _, err = svc.ExportProducts(context.Background(), "滋补食品")
	require.NoError(t, err)
	_, rows = openRows(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "A02", rows[1][0])
}

func TestExportPurchases(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewExportService(repository.NewProductRepository(db), repository.NewPurchaseRepository(db))

	supplier := testutil.CreateSupplier(t, db, "广州干货行")
	a := testutil.CreateProduct(t, db, "A01", "陈皮", 0)
	b := testutil.CreateProduct(t, db, "A02", "海参", 0)

	purchase := &models.Purchase{
		OrderNo:      "PO20250214001",
		SupplierID:   supplier.ID,
		PurchaseDate: importNow,
		TotalAmount:  testutil.Money("35.00"),
		ShippingFee:  testutil.Money("5.00"),
		Items: []models.PurchaseItem{
			{ProductID: a.ID, Quantity: 2, UnitPrice: testutil.Money("10.00"), Subtotal: testutil.Money("20.00")},
			{ProductID: b.ID, Quantity: 1, UnitPrice: testutil.Money("15.00"), Subtotal: testutil.Money("15.00")},
		},
	}
	require.NoError(t, db.Create(purchase).Error)

	data, _, err := svc.ExportPurchases(context.Background(), &PurchaseExportParams{SupplierID: supplier.ID})
	require.NoError(t, err)

	sheet, rows := openRows(t, data)
	assert.Equal(t, "采购单", sheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"PO20250214001", "2025-02-14", "广州干货行", "A01", "陈皮", "2", "10", "20", "5", "35"}, rows[1][:10])
	assert.Equal(t, "A02", rows[2][3])

	data, _, err = svc.ExportPurchases(context.Background(), &PurchaseExportParams{OrderNo: "PO2099"})
	require.NoError(t, err)
	_, rows = openRows(t, data)
	assert.Len(t, rows, 1)
}

func TestTemplate(t *testing.T) {
	data, _, err := Template()
	require.NoError(t, err)

	sheet, rows := openRows(t, data)
	assert.Equal(t, "商品导入", sheet)
	require.Len(t, rows, 2)
	assert.Equal(t, templateHeaders, rows[0])
}
