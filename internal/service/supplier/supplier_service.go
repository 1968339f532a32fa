// Package supplier 提供供应商管理服务
package supplier

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/utils"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
)

// SupplierService 供应商服务
type SupplierService struct {
	supplierRepo *repository.SupplierRepository
	purchaseRepo *repository.PurchaseRepository
}

// NewSupplierService 创建供应商服务
func NewSupplierService(supplierRepo *repository.SupplierRepository, purchaseRepo *repository.PurchaseRepository) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		purchaseRepo: purchaseRepo,
	}
}

// SupplierRequest 创建/更新供应商请求
type SupplierRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Type        string `json:"type"`
	Remark      string `json:"remark"`
}

func (r *SupplierRequest) apply(s *models.Supplier) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.ErrSupplierNameRequired
	}
	s.Name = name
	s.ContactName = strings.TrimSpace(r.ContactName)
	s.Phone = strings.TrimSpace(r.Phone)
	s.Address = strings.TrimSpace(r.Address)
	s.Type = strings.TrimSpace(r.Type)
	s.Remark = r.Remark
	return nil
}

// Create 创建供应商
func (s *SupplierService) Create(ctx context.Context, req *SupplierRequest) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	if err := req.apply(supplier); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return supplier, nil
}

// Get 获取供应商
func (s *SupplierService) Get(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSupplierNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return supplier, nil
}

// Update 更新供应商
func (s *SupplierService) Update(ctx context.Context, id int64, req *SupplierRequest) (*models.Supplier, error) {
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(supplier); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return supplier, nil
}

// Delete 删除供应商，存在采购记录时拒绝
func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.purchaseRepo.CountBySupplier(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrSupplierInUse.WithMessagef("供应商存在 %d 张采购单，无法删除", count)
	}
	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// List 获取供应商列表
func (s *SupplierService) List(ctx context.Context, page, pageSize int, keyword, supplierType string) ([]*models.Supplier, int64, error) {
	p := utils.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()

	suppliers, total, err := s.supplierRepo.List(ctx, repository.SupplierListParams{
		Offset:  p.GetOffset(),
		Limit:   p.GetLimit(),
		Keyword: strings.TrimSpace(keyword),
		Type:    strings.TrimSpace(supplierType),
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return suppliers, total, nil
}
