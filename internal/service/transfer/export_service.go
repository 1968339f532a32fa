package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
)

// ExportService 导出服务
type ExportService struct {
	productRepo  *repository.ProductRepository
	purchaseRepo *repository.PurchaseRepository
	now          func() time.Time
}

// NewExportService 创建导出服务
func NewExportService(productRepo *repository.ProductRepository, purchaseRepo *repository.PurchaseRepository) *ExportService {
	return &ExportService{
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
		now:          time.Now,
	}
}

var productHeaders = []string{"商品编码", "商品名称", "分类", "规格", "单位", "单价", "当前库存", "起订量", "渠道", "图片", "备注"}

var productWidths = []float64{14, 30, 12, 20, 8, 10, 10, 10, 14, 40, 30}

// ExportProducts 导出商品，category 为空或 all 时导出全部
func (s *ExportService) ExportProducts(ctx context.Context, category string) ([]byte, string, error) {
	products, err := s.productRepo.ListAll(ctx, category)
	if err != nil {
		return nil, "", errors.ErrDatabaseError.WithError(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "商品"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}
	if err := writeHeader(f, sheet, 1, productHeaders, productWidths); err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}

	for i, p := range products {
		values := []interface{}{
			p.Code,
			p.Name,
			p.Category,
			p.Spec,
			p.Unit,
			p.Price.InexactFloat64(),
			p.CurrentStock,
			p.MinOrderQty,
			p.Channel,
			strings.Join(p.Images, "\n"),
			p.Remark,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, "", errors.ErrExportFailed.WithError(err)
		}
	}

	data, err := toBytes(f)
	if err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}
	return data, fmt.Sprintf("商品_%s.xlsx", s.now().Format("20060102150405")), nil
}

// PurchaseExportParams 采购单导出筛选
type PurchaseExportParams struct {
	SupplierID int64
	OrderNo    string
	StartDate  *time.Time
	EndDate    *time.Time
}

var purchaseHeaders = []string{"采购单号", "采购日期", "供应商", "商品编码", "商品名称", "数量", "单价", "小计", "运费", "订单总额", "备注"}

var purchaseWidths = []float64{18, 12, 20, 14, 30, 8, 10, 12, 10, 12, 30}

// ExportPurchases 导出采购单，每条明细一行，单头字段在每行重复
func (s *ExportService) ExportPurchases(ctx context.Context, params *PurchaseExportParams) ([]byte, string, error) {
	if params == nil {
		params = &PurchaseExportParams{}
	}
	purchases, err := s.purchaseRepo.ListForExport(ctx, repository.PurchaseListParams{
		SupplierID: params.SupplierID,
		OrderNo:    strings.TrimSpace(params.OrderNo),
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
	})
	if err != nil {
		return nil, "", errors.ErrDatabaseError.WithError(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "采购单"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}
	if err := writeHeader(f, sheet, 1, purchaseHeaders, purchaseWidths); err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}

	row := 2
	for _, p := range purchases {
		supplierName := ""
		if p.Supplier != nil {
			supplierName = p.Supplier.Name
		}
		items := p.Items
		if len(items) == 0 {
			items = []models.PurchaseItem{{}}
		}
		for _, item := range items {
			code, name := "", ""
			if item.Product != nil {
				code, name = item.Product.Code, item.Product.Name
			}
			values := []interface{}{
				p.OrderNo,
				p.PurchaseDate.Format("2006-01-02"),
				supplierName,
				code,
				name,
				item.Quantity,
				item.UnitPrice.InexactFloat64(),
				item.Subtotal.InexactFloat64(),
				p.ShippingFee.InexactFloat64(),
				p.TotalAmount.InexactFloat64(),
				p.Remark,
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return nil, "", errors.ErrExportFailed.WithError(err)
			}
			row++
		}
	}

	data, err := toBytes(f)
	if err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}
	return data, fmt.Sprintf("采购单_%s.xlsx", s.now().Format("20060102150405")), nil
}
