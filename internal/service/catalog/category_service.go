package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
)

// CategoryService 分类树服务
type CategoryService struct {
	db           *gorm.DB
	categoryRepo *repository.CategoryRepository
	productRepo  *repository.ProductRepository
}

// NewCategoryService 创建分类树服务
func NewCategoryService(
	db *gorm.DB,
	categoryRepo *repository.CategoryRepository,
	productRepo *repository.ProductRepository,
) *CategoryService {
	return &CategoryService{
		db:           db,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// CategoryRequest 创建/更新分类请求，Level 为 0 时由父分类推导
type CategoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Level    int    `json:"level"`
	Sort     int    `json:"sort"`
}

// Create 创建分类
func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrCategoryNameRequired
	}

	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	level, err := resolveLevel(all, req.ParentID, req.Level)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:     name,
		ParentID: req.ParentID,
		Level:    level,
		Sort:     req.Sort,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return category, nil
}

// Update 更新分类名称、排序或父分类；层级变化时同步子孙层级
func (s *CategoryService) Update(ctx context.Context, id int64, req *CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrCategoryNameRequired
	}

	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	category, ok := all[id]
	if !ok {
		return nil, errors.ErrCategoryNotFound
	}

	if req.ParentID != nil && isSelfOrDescendant(all, id, *req.ParentID) {
		return nil, errors.ErrCategoryCycle
	}
	level, err := resolveLevel(all, req.ParentID, req.Level)
	if err != nil {
		return nil, err
	}

	descendants := collectDescendants(all, id)
	delta := level - category.Level
	if delta != 0 {
		for _, d := range descendants {
			if all[d].Level+delta > models.CategoryLevelMax {
				return nil, errors.ErrCategoryTooDeep
			}
		}
	}

	category.Name = name
	category.ParentID = req.ParentID
	category.Level = level
	category.Sort = req.Sort

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.categoryRepo.WithTx(tx)
		if err := repo.Update(ctx, category); err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		for _, d := range descendants {
			if err := repo.UpdateLevel(ctx, d, all[d].Level+delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return category, nil
}

// Delete 删除分类及其全部子孙，引用这些分类的商品 category_id 置空
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[id]; !ok {
		return errors.ErrCategoryNotFound
	}

	ids := append([]int64{id}, collectDescendants(all, id)...)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).ClearCategoryIDs(ctx, ids); err != nil {
			return err
		}
		return s.categoryRepo.WithTx(tx).DeleteByIDs(ctx, ids)
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("category deleted",
		logger.Module("catalog"),
		logger.Action("delete_category"),
	)
	return nil
}

// List 获取分类平铺列表，带商品数
func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	counts, err := s.productRepo.CountByCategoryIDs(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, c := range categories {
		c.Count = counts[c.ID]
	}
	return categories, nil
}

// Tree 获取分类树
func (s *CategoryService) Tree(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(categories), nil
}

// buildTree 按层级、排序组装树，父节点缺失的分类作为根节点
func buildTree(categories []*models.Category) []*models.Category {
	byID := make(map[int64]*models.Category, len(categories))
	for _, c := range categories {
		c.Children = nil
		byID[c.ID] = c
	}

	roots := make([]*models.Category, 0)
	for _, c := range categories {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

func (s *CategoryService) loadAll(ctx context.Context) (map[int64]*models.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	all := make(map[int64]*models.Category, len(categories))
	for _, c := range categories {
		all[c.ID] = c
	}
	return all, nil
}

// resolveLevel 根据父分类推导层级，并校验显式传入的层级
func resolveLevel(all map[int64]*models.Category, parentID *int64, requested int) (int, error) {
	level := models.CategoryLevelMin
	if parentID != nil {
		parent, ok := all[*parentID]
		if !ok {
			return 0, errors.ErrCategoryNotFound.WithMessage("父分类不存在")
		}
		level = parent.Level + 1
	}

	if requested != 0 {
		if requested < models.CategoryLevelMin || requested > models.CategoryLevelMax {
			return 0, errors.ErrCategoryLevelInvalid
		}
		if requested != level {
			return 0, errors.ErrCategoryParentInvalid
		}
	}
	if level > models.CategoryLevelMax {
		return 0, errors.ErrCategoryLevelInvalid
	}
	return level, nil
}

// isSelfOrDescendant 沿 candidate 的祖先链向上查找 id
func isSelfOrDescendant(all map[int64]*models.Category, id, candidate int64) bool {
	seen := make(map[int64]bool)
	for cur, ok := all[candidate]; ok; {
		if cur.ID == id {
			return true
		}
		if cur.ParentID == nil || seen[cur.ID] {
			return false
		}
		seen[cur.ID] = true
		cur, ok = all[*cur.ParentID]
	}
	return false
}

// collectDescendants 返回 id 的全部子孙（广度优先）
func collectDescendants(all map[int64]*models.Category, id int64) []int64 {
	children := make(map[int64][]int64)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	var result []int64
	seen := map[int64]bool{id: true}
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}
