// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/models"
)

// CategoryRepository 分类仓储
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// Create 创建分类
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByID 根据 ID 获取分类
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByName 根据名称获取分类，同名时取层级最高、ID 最小的一个
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("level ASC, id ASC").
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).
		Model(category).
		Select("name", "parent_id", "level", "sort").
		Updates(category).Error
}

// UpdateLevel 更新分类层级
func (r *CategoryRepository) UpdateLevel(ctx context.Context, id int64, level int) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		Update("level", level).Error
}

// DeleteByIDs 批量删除分类
func (r *CategoryRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Category{}).Error
}

// List 获取全部分类，按层级、排序、ID 升序
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).
		Order("level ASC, sort ASC, id ASC").
		Find(&categories).Error
	return categories, err
}
