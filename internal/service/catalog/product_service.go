package catalog

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/qrcode"
	"github.com/dumeirei/inventory-backend/internal/common/utils"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
)

// 检索范围
const (
	ScopeAll  = "all"
	ScopeName = "name"
	ScopeCode = "code"

	// scopeLabel 扫码检索，按编码精确匹配
	scopeLabel = "label"
)

// ProductService 商品目录服务
type ProductService struct {
	productRepo  *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	purchaseRepo *repository.PurchaseRepository
	classifier   *Classifier
}

// NewProductService 创建商品目录服务
func NewProductService(
	productRepo *repository.ProductRepository,
	categoryRepo *repository.CategoryRepository,
	purchaseRepo *repository.PurchaseRepository,
	classifier *Classifier,
) *ProductService {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		purchaseRepo: purchaseRepo,
		classifier:   classifier,
	}
}

// ProductQuery 商品列表查询
type ProductQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Scope    string `form:"scope"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// ProductPage 商品分页结果
type ProductPage struct {
	Items      []*models.Product `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// List 获取商品列表：投影加载、内存检索、编码自然排序后分页，再按页内顺序回表
func (s *ProductService) List(ctx context.Context, q *ProductQuery) (*ProductPage, error) {
	p := utils.Pagination{Page: q.Page, PageSize: q.Limit}
	p.Normalize()

	briefs, err := s.productRepo.ListBriefs(ctx, strings.TrimSpace(q.Category))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	search, scope := strings.TrimSpace(q.Search), q.Scope
	if code, ok := qrcode.ParseLabel(search); ok {
		search, scope = NormalizeCode(code), scopeLabel
	}

	filtered := filterBriefs(briefs, search, scope)
	sortBriefsByCode(filtered)

	total := len(filtered)
	start, end := utils.PageBounds(total, p.Page, p.PageSize)
	ids := make([]int64, 0, end-start)
	for _, b := range filtered[start:end] {
		ids = append(ids, b.ID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	byID := make(map[int64]*models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	items := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		// 投影与回表之间被删除的商品直接跳过
		if product, ok := byID[id]; ok {
			items = append(items, product)
		}
	}

	return &ProductPage{
		Items:      items,
		Total:      int64(total),
		Page:       p.Page,
		Limit:      p.PageSize,
		TotalPages: utils.TotalPages(int64(total), p.PageSize),
	}, nil
}

func filterBriefs(briefs []models.ProductBrief, search, scope string) []models.ProductBrief {
	if search == "" {
		return briefs
	}

	lowered := strings.ToLower(search)
	pattern := codeSearchPattern(search)
	nameMatch := func(b *models.ProductBrief) bool {
		return strings.Contains(strings.ToLower(b.Name), lowered)
	}
	codeMatch := func(b *models.ProductBrief) bool {
		return pattern.MatchString(b.Code)
	}

	result := make([]models.ProductBrief, 0, len(briefs))
	for i := range briefs {
		b := &briefs[i]
		var ok bool
		switch scope {
		case ScopeName:
			ok = nameMatch(b)
		case ScopeCode:
			ok = codeMatch(b)
		case scopeLabel:
			ok = b.Code == search
		default:
			ok = nameMatch(b) || codeMatch(b)
		}
		if ok {
			result = append(result, *b)
		}
	}
	return result
}

// sortBriefsByCode 按编码自然排序（数字段按数值比较），编码相同按 ID
func sortBriefsByCode(briefs []models.ProductBrief) {
	// Collator 不能并发使用，每次排序单独创建
	c := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(briefs, func(i, j int) bool {
		if cmp := c.CompareString(briefs[i].Code, briefs[j].Code); cmp != 0 {
			return cmp < 0
		}
		return briefs[i].ID < briefs[j].ID
	})
}

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	CategoryID  *int64          `json:"category_id"`
	Spec        string          `json:"spec"`
	Remark      string          `json:"remark"`
	Channel     string          `json:"channel"`
	MinOrderQty int             `json:"min_order_qty"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
}

// Create 创建商品，库存初始为 0
func (s *ProductService) Create(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	product := &models.Product{}
	if err := s.apply(ctx, product, req); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, product.Code, 0); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrProductCodeConflict.WithMessagef("商品编码 %s 已存在", product.Code)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("product created",
		logger.Module("catalog"),
		logger.ProductCode(product.Code),
	)
	return product, nil
}

// Get 获取商品
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return product, nil
}

// Update 更新商品目录字段，库存不受影响
func (s *ProductService) Update(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, product, req); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, product.Code, product.ID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrProductCodeConflict.WithMessagef("商品编码 %s 已存在", product.Code)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.Get(ctx, id)
}

// Delete 删除商品，已被采购单引用的商品不可删除
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.purchaseRepo.CountByProduct(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrProductInUse.WithMessagef("商品已被 %d 条采购明细引用，无法删除", count)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// apply 校验请求并写入商品字段
func (s *ProductService) apply(ctx context.Context, product *models.Product, req *ProductRequest) error {
	code := NormalizeCode(req.Code)
	if code == "" {
		return errors.ErrProductCodeRequired
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errors.ErrProductNameRequired
	}
	if req.MinOrderQty < 0 {
		return errors.ErrInvalidParams.WithMessage("起订量不能为负数")
	}
	if req.Price.IsNegative() {
		return errors.ErrInvalidParams.WithMessage("价格不能为负数")
	}

	category := strings.TrimSpace(req.Category)
	if req.CategoryID != nil {
		node, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrCategoryNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if category == "" {
			category = node.Name
		}
	}
	if category == "" {
		category = s.classifier.Classify(name)
	}

	product.Code = code
	product.Name = name
	product.Category = category
	product.CategoryID = req.CategoryID
	product.Spec = strings.TrimSpace(req.Spec)
	product.Remark = req.Remark
	product.Channel = strings.TrimSpace(req.Channel)
	product.MinOrderQty = req.MinOrderQty
	product.Unit = strings.TrimSpace(req.Unit)
	product.Price = req.Price.Round(2)
	product.Images = req.Images
	if product.Images == nil {
		product.Images = []string{}
	}
	return nil
}

// ensureCodeFree 编码已被其他商品占用时返回冲突错误并指明占用者
func (s *ProductService) ensureCodeFree(ctx context.Context, code string, selfID int64) error {
	owner, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if owner.ID == selfID {
		return nil
	}
	return errors.ErrProductCodeConflict.WithMessagef(
		"商品编码 %s 已被商品「%s」(ID: %d) 使用", owner.Code, owner.Name, owner.ID,
	)
}
