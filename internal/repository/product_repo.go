// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/inventory-backend/internal/models"
)

// ProductRepository 商品仓储
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// editableColumns 目录编辑可修改的列，不含 current_stock
var editableColumns = []string{
	"code", "name", "category", "category_id", "spec", "remark",
	"channel", "min_order_qty", "unit", "price", "images",
}

// importColumns 导入覆盖的列
var importColumns = []string{
	"name", "category", "category_id", "spec", "remark",
	"min_order_qty", "channel", "images", "updated_at",
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByCode 根据编码获取商品
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDs 批量获取商品，返回顺序不保证
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	var products []*models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// Update 更新商品目录字段
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Model(product).Select(editableColumns).Updates(product).Error
}

// Delete 删除商品
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// ListBriefs 加载排序用的商品投影，category 为空或 all 时不过滤
func (r *ProductRepository) ListBriefs(ctx context.Context, category string) ([]models.ProductBrief, error) {
	var briefs []models.ProductBrief
	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("id, code, name, current_stock, price")
	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}
	err := query.Scan(&briefs).Error
	return briefs, err
}

// ListAll 获取全部商品，按编码排序
func (r *ProductRepository) ListAll(ctx context.Context, category string) ([]*models.Product, error) {
	var products []*models.Product
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("code ASC").Find(&products).Error
	return products, err
}

// ListLowStock 获取库存不高于阈值的商品，库存少的在前
func (r *ProductRepository) ListLowStock(ctx context.Context, threshold, limit int) ([]*models.Product, int64, error) {
	var products []*models.Product
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("current_stock <= ?", threshold)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("current_stock ASC, code ASC").Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// AdjustStock 原子调整库存，delta 可为负；商品不存在返回 gorm.ErrRecordNotFound
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertByCode 按编码新增或覆盖商品，更新路径不修改库存
func (r *ProductRepository) UpsertByCode(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(importColumns),
	}).Create(product).Error
}

// CountByCategoryIDs 统计每个分类 ID 下的商品数
func (r *ProductRepository) CountByCategoryIDs(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		CategoryID int64
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}

// ClearCategoryIDs 将引用指定分类的商品 category_id 置空
func (r *ProductRepository) ClearCategoryIDs(ctx context.Context, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id IN ?", categoryIDs).
		Update("category_id", nil).Error
}
