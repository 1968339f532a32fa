// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/database"
	"github.com/dumeirei/inventory-backend/internal/models"
)

// SupplierRepository 供应商仓储
type SupplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository 创建供应商仓储
func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *SupplierRepository) WithTx(tx *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: tx}
}

// Create 创建供应商
func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// GetByID 根据 ID 获取供应商
func (r *SupplierRepository) GetByID(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).First(&supplier, id).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Update 更新供应商
func (r *SupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).
		Model(supplier).
		Select("name", "contact_name", "phone", "address", "type", "remark").
		Updates(supplier).Error
}

// Delete 删除供应商
func (r *SupplierRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Supplier{}, id).Error
}

// SupplierListParams 供应商列表查询参数
type SupplierListParams struct {
	Offset  int
	Limit   int
	Keyword string
	Type    string
}

// List 获取供应商列表
func (r *SupplierRepository) List(ctx context.Context, params SupplierListParams) ([]*models.Supplier, int64, error) {
	var suppliers []*models.Supplier
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Supplier{})

	if params.Keyword != "" {
		like := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR contact_name LIKE ? OR phone LIKE ?", like, like, like)
	}
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Scopes(database.Paginate(params.Offset, params.Limit)).Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}
