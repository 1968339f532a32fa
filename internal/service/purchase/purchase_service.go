// Package purchase 提供采购单服务：单号分配、入库与冲销
package purchase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/database"
	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/common/tracing"
	"github.com/dumeirei/inventory-backend/internal/common/utils"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
)

const (
	defaultOrderPrefix = "PO"
	defaultRetries     = 3
	seqWidth           = 3
	maxSeq             = 999
	dateLayout         = "2006-01-02"
)

// PurchaseService 采购单服务
type PurchaseService struct {
	db           *gorm.DB
	purchaseRepo *repository.PurchaseRepository
	productRepo  *repository.ProductRepository
	supplierRepo *repository.SupplierRepository
	metrics      *metrics.Metrics

	prefix   string
	retries  int
	location *time.Location
	now      func() time.Time
}

// NewPurchaseService 创建采购单服务
func NewPurchaseService(
	db *gorm.DB,
	purchaseRepo *repository.PurchaseRepository,
	productRepo *repository.ProductRepository,
	supplierRepo *repository.SupplierRepository,
	cfg *config.PurchaseConfig,
	m *metrics.Metrics,
) *PurchaseService {
	s := &PurchaseService{
		db:           db,
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		metrics:      m,
		prefix:       defaultOrderPrefix,
		retries:      defaultRetries,
		location:     time.Local,
		now:          time.Now,
	}
	if cfg != nil {
		if cfg.OrderPrefix != "" {
			s.prefix = cfg.OrderPrefix
		}
		if cfg.OrderNoRetries > 0 {
			s.retries = cfg.OrderNoRetries
		}
		s.location = cfg.Location()
	}
	return s
}

// Location 采购日期与单号使用的时区
func (s *PurchaseService) Location() *time.Location {
	return s.location
}

// SetClock 替换时钟，用于测试跨日单号
func (s *PurchaseService) SetClock(now func() time.Time) {
	s.now = now
}

// ItemRequest 采购明细请求
type ItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateRequest 创建采购单请求
type CreateRequest struct {
	SupplierID   int64            `json:"supplier_id"`
	PurchaseDate string           `json:"purchase_date"`
	ShippingFee  decimal.Decimal  `json:"shipping_fee"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	Remark       string           `json:"remark"`
	Photos       []string         `json:"photos"`
	Items        []ItemRequest    `json:"items"`
}

// validate 在任何写入之前完成参数校验
func (s *PurchaseService) validate(req *CreateRequest) (time.Time, error) {
	if req.SupplierID <= 0 {
		return time.Time{}, errors.ErrSupplierRequired
	}
	if len(req.Items) == 0 {
		return time.Time{}, errors.ErrPurchaseItemsEmpty
	}
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return time.Time{}, errors.ErrInvalidParams.WithMessagef("第 %d 行未选择商品", i+1)
		}
		if item.Quantity < 1 {
			return time.Time{}, errors.ErrInvalidQuantity.WithMessagef("第 %d 行采购数量必须大于0", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return time.Time{}, errors.ErrInvalidUnitPrice.WithMessagef("第 %d 行采购单价不能为负数", i+1)
		}
	}
	if req.ShippingFee.IsNegative() {
		return time.Time{}, errors.ErrInvalidShippingFee
	}
	return s.parseDate(req.PurchaseDate)
}

func (s *PurchaseService) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return utils.StartOfDay(s.now().In(s.location)), nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, s.location); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(s.location), nil
	}
	return time.Time{}, errors.ErrPurchaseDateInvalid
}

// Create 创建采购单：分配单号、写入单头与明细、增加库存，单号冲突时整体重试
func (s *PurchaseService) Create(ctx context.Context, req *CreateRequest) (_ *models.Purchase, err error) {
	ctx, span := tracing.Start(ctx, "purchase.Create", tracing.AttrItemCount.Int(len(req.Items)))
	defer func() { tracing.End(span, err) }()

	purchaseDate, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.supplierRepo.GetByID(ctx, req.SupplierID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSupplierNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	items, total := buildItems(req.Items)
	if req.TotalAmount != nil && !req.TotalAmount.Equal(total) {
		logger.Warn("purchase total mismatch, using computed total",
			logger.Module("purchase"),
			logger.String("client_total", req.TotalAmount.StringFixed(2)),
			logger.String("computed_total", total.StringFixed(2)),
		)
	}

	photos := req.Photos
	if photos == nil {
		photos = []string{}
	}

	for attempt := 1; attempt <= s.retries; attempt++ {
		purchase := &models.Purchase{
			SupplierID:   req.SupplierID,
			PurchaseDate: purchaseDate,
			TotalAmount:  total,
			ShippingFee:  req.ShippingFee.Round(2),
			Remark:       req.Remark,
			Photos:       photos,
			Items:        cloneItems(items),
		}

		err = s.createOnce(ctx, purchase)
		if err == nil {
			span.SetAttributes(tracing.AttrOrderNo.String(purchase.OrderNo), tracing.AttrAttempt.Int(attempt))
			s.metrics.RecordPurchase("create", "success")
			s.metrics.RecordStock("in", totalQuantity(items))
			logger.Info("purchase created",
				logger.Module("purchase"),
				logger.OrderNo(purchase.OrderNo),
				logger.PurchaseID(purchase.ID),
				logger.Int("items", len(items)),
				logger.String("total", total.StringFixed(2)),
			)
			return purchase, nil
		}
		if !database.IsDuplicateKey(err) {
			s.metrics.RecordPurchase("create", "failure")
			if errors.IsAppError(err) {
				return nil, err
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}

		s.metrics.RecordOrderNoRetry()
		logger.Warn("order number conflict, retrying",
			logger.Module("purchase"),
			logger.OrderNo(purchase.OrderNo),
			logger.Int("attempt", attempt),
		)
	}

	s.metrics.RecordPurchase("create", "failure")
	return nil, errors.ErrOrderNoConflict.WithError(err)
}

// createOnce 在单个事务内完成单号分配、写入和库存增加
func (s *PurchaseService) createOnce(ctx context.Context, purchase *models.Purchase) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchaseRepo := s.purchaseRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		orderNo, err := s.nextOrderNo(ctx, tx, purchaseRepo)
		if err != nil {
			return err
		}
		purchase.OrderNo = orderNo

		if err := ensureProductsExist(ctx, productRepo, purchase.Items); err != nil {
			return err
		}
		if err := purchaseRepo.Create(ctx, purchase); err != nil {
			return err
		}
		for _, item := range purchase.Items {
			if err := productRepo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return errors.ErrProductNotFound.WithMessagef("商品 %d 不存在", item.ProductID)
				}
				return err
			}
		}
		return nil
	})
}

// nextOrderNo 读取当日最大单号并加一；PostgreSQL 上先以咨询锁串行化同日分配
func (s *PurchaseService) nextOrderNo(ctx context.Context, tx *gorm.DB, repo *repository.PurchaseRepository) (string, error) {
	dayPrefix := s.prefix + s.now().In(s.location).Format("20060102")
	if err := database.AdvisoryLock(tx.WithContext(ctx), "purchase_order_no:"+dayPrefix); err != nil {
		return "", err
	}

	last, err := repo.LastOrderNo(ctx, dayPrefix)
	if err != nil {
		return "", err
	}
	return NextOrderNo(dayPrefix, last)
}

// NextOrderNo 根据当日前缀和当前最大单号计算下一个单号
func NextOrderNo(dayPrefix, last string) (string, error) {
	seq := 0
	if last != "" {
		suffix := strings.TrimPrefix(last, dayPrefix)
		n, err := strconv.Atoi(suffix)
		if err != nil || len(suffix) != seqWidth {
			return "", errors.ErrInternalError.WithMessagef("无法解析采购单号 %s", last)
		}
		seq = n
	}
	if seq >= maxSeq {
		return "", errors.ErrOrderNoConflict.WithMessage("当日采购单号已用尽")
	}
	return fmt.Sprintf("%s%0*d", dayPrefix, seqWidth, seq+1), nil
}

func ensureProductsExist(ctx context.Context, repo *repository.ProductRepository, items []models.PurchaseItem) error {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	ids = utils.Unique(ids)

	products, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[int64]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return errors.ErrProductNotFound.WithMessagef("商品 %d 不存在", id)
		}
	}
	return nil
}

// buildItems 计算明细小计与合计
func buildItems(reqs []ItemRequest) ([]models.PurchaseItem, decimal.Decimal) {
	items := make([]models.PurchaseItem, 0, len(reqs))
	total := decimal.Zero
	for _, r := range reqs {
		unitPrice := r.UnitPrice.Round(2)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))).Round(2)
		total = total.Add(subtotal)
		items = append(items, models.PurchaseItem{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
		})
	}
	return items, total.Round(2)
}

func cloneItems(items []models.PurchaseItem) []models.PurchaseItem {
	out := make([]models.PurchaseItem, len(items))
	copy(out, items)
	return out
}

func totalQuantity(items []models.PurchaseItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// Delete 删除采购单并冲销库存，库存允许变为负数
func (s *PurchaseService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.Start(ctx, "purchase.Delete", tracing.AttrPurchaseID.Int64(id))
	defer func() { tracing.End(span, err) }()

	var purchase *models.Purchase
	var units int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchaseRepo := s.purchaseRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		p, err := purchaseRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrPurchaseNotFound
			}
			return err
		}
		purchase = p

		items, err := purchaseRepo.GetItems(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := productRepo.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return errors.ErrProductNotFound.WithMessagef("采购明细引用的商品 %d 已不存在", item.ProductID)
				}
				return err
			}
			units += item.Quantity
		}

		if err := purchaseRepo.DeleteItems(ctx, id); err != nil {
			return err
		}
		return purchaseRepo.Delete(ctx, id)
	})
	if err != nil {
		s.metrics.RecordPurchase("delete", "failure")
		if !errors.IsAppError(err) {
			err = errors.ErrDatabaseError.WithError(err)
		}
		return err
	}

	s.metrics.RecordPurchase("delete", "success")
	s.metrics.RecordStock("out", units)
	logger.Info("purchase deleted",
		logger.Module("purchase"),
		logger.OrderNo(purchase.OrderNo),
		logger.PurchaseID(id),
		logger.Int("units", units),
	)
	return nil
}

// Get 获取采购单详情
func (s *PurchaseService) Get(ctx context.Context, id int64) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.GetDetail(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPurchaseNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return purchase, nil
}

// ListRequest 采购单列表请求
type ListRequest struct {
	Page       int
	PageSize   int
	SupplierID int64
	OrderNo    string
	StartDate  *time.Time
	EndDate    *time.Time
}

// List 获取采购单列表
func (s *PurchaseService) List(ctx context.Context, req *ListRequest) ([]*models.Purchase, int64, error) {
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()

	purchases, total, err := s.purchaseRepo.List(ctx, repository.PurchaseListParams{
		Offset:     p.GetOffset(),
		Limit:      p.GetLimit(),
		SupplierID: req.SupplierID,
		OrderNo:    strings.TrimSpace(req.OrderNo),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return purchases, total, nil
}
