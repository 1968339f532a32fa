// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/database"
	"github.com/dumeirei/inventory-backend/internal/models"
)

// PurchaseRepository 采购单仓储
type PurchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建采购单仓储
func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *PurchaseRepository) WithTx(tx *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: tx}
}

// Create 创建采购单及其明细
func (r *PurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// LastOrderNo 获取指定前缀下最大的订单号，不存在返回空串
func (r *PurchaseRepository) LastOrderNo(ctx context.Context, prefix string) (string, error) {
	var orderNos []string
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("order_no LIKE ?", prefix+"%").
		Order("order_no DESC").
		Limit(1).
		Pluck("order_no", &orderNos).Error
	if err != nil {
		return "", err
	}
	if len(orderNos) == 0 {
		return "", nil
	}
	return orderNos[0], nil
}

// GetByID 根据 ID 获取采购单
func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).First(&purchase, id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetByIDForUpdate 加锁读取采购单，仅 PostgreSQL 生效
func (r *PurchaseRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := database.ForUpdate(r.db.WithContext(ctx)).First(&purchase, id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetDetail 获取采购单详情（供应商、明细、商品）
func (r *PurchaseRepository) GetDetail(ctx context.Context, id int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		First(&purchase, id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetItems 获取采购单明细
func (r *PurchaseRepository) GetItems(ctx context.Context, purchaseID int64) ([]models.PurchaseItem, error) {
	var items []models.PurchaseItem
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// DeleteItems 删除采购单明细
func (r *PurchaseRepository) DeleteItems(ctx context.Context, purchaseID int64) error {
	return r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).Delete(&models.PurchaseItem{}).Error
}

// Delete 删除采购单头
func (r *PurchaseRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Purchase{}, id).Error
}

// PurchaseListParams 采购单列表查询参数
type PurchaseListParams struct {
	Offset     int
	Limit      int
	SupplierID int64
	OrderNo    string
	StartDate  *time.Time
	EndDate    *time.Time
}

func (r *PurchaseRepository) filtered(ctx context.Context, params PurchaseListParams) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Purchase{})
	if params.SupplierID > 0 {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+params.OrderNo+"%")
	}
	if params.StartDate != nil {
		query = query.Where("purchase_date >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("purchase_date <= ?", *params.EndDate)
	}
	return query
}

// List 获取采购单列表，按采购日期倒序
func (r *PurchaseRepository) List(ctx context.Context, params PurchaseListParams) ([]*models.Purchase, int64, error) {
	var purchases []*models.Purchase
	var total int64

	query := r.filtered(ctx, params)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Supplier").
		Order("purchase_date DESC, id DESC").
		Scopes(database.Paginate(params.Offset, params.Limit)).
		Find(&purchases).Error
	if err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

// ListForExport 获取导出用的采购单（含明细与商品）
func (r *PurchaseRepository) ListForExport(ctx context.Context, params PurchaseListParams) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	err := r.filtered(ctx, params).
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Order("purchase_date DESC, id DESC").
		Find(&purchases).Error
	return purchases, err
}

// CountByProduct 统计引用商品的采购明细数
func (r *PurchaseRepository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

// CountBySupplier 统计引用供应商的采购单数
func (r *PurchaseRepository) CountBySupplier(ctx context.Context, supplierID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}
