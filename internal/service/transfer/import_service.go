package transfer

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/common/tracing"
	"github.com/dumeirei/inventory-backend/internal/common/utils"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/service/catalog"
	"github.com/dumeirei/inventory-backend/pkg/oss"
)

// ImportService 商品导入服务
type ImportService struct {
	productRepo  *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	classifier   *catalog.Classifier
	uploader     oss.Uploader
	metrics      *metrics.Metrics

	firstRow int
	now      func() time.Time
}

// NewImportService 创建商品导入服务
func NewImportService(
	productRepo *repository.ProductRepository,
	categoryRepo *repository.CategoryRepository,
	classifier *catalog.Classifier,
	uploader oss.Uploader,
	cfg *config.ImportConfig,
	m *metrics.Metrics,
) *ImportService {
	if classifier == nil {
		classifier = catalog.DefaultClassifier()
	}
	s := &ImportService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		classifier:   classifier,
		uploader:     uploader,
		metrics:      m,
		firstRow:     defaultFirstRow,
		now:          time.Now,
	}
	if cfg != nil && cfg.FirstDataRow > 0 {
		s.firstRow = cfg.FirstDataRow
	}
	return s
}

// SetClock 替换时钟
func (s *ImportService) SetClock(now func() time.Time) {
	s.now = now
}

// RowFailure 导入失败的行
type RowFailure struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult 导入结果
type ImportResult struct {
	ImportedCount int          `json:"imported_count"`
	SkippedCount  int          `json:"skipped_count"`
	Failures      []RowFailure `json:"failures"`
}

// Import 导入商品表格。工作簿无法解析时不写入任何数据；
// 行级失败记录在结果中，之前已写入的行不回滚
func (s *ImportService) Import(ctx context.Context, data []byte) (result *ImportResult, err error) {
	ctx, span := tracing.Start(ctx, "transfer.Import")
	defer func() { tracing.End(span, err) }()

	start := time.Now()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ErrImportParse.WithError(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrImportNoSheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ErrImportParse.WithError(err)
	}

	result = &ImportResult{Failures: []RowFailure{}}
	for i := s.firstRow - 1; i < len(rows); i++ {
		rowNum := i + 1
		code, imported, rowErr := s.importRow(ctx, f, sheet, rowNum, rows[i])
		switch {
		case rowErr != nil:
			result.Failures = append(result.Failures, RowFailure{Row: rowNum, Code: code, Message: failureMessage(rowErr)})
			logger.Warn("import row failed",
				logger.Int("row", rowNum),
				logger.ProductCode(code),
				logger.Err(rowErr),
			)
		case imported:
			result.ImportedCount++
		default:
			result.SkippedCount++
		}
	}

	span.SetAttributes(
		tracing.AttrImportRows.Int(len(rows)),
		tracing.AttrImportCount.Int(result.ImportedCount),
	)
	s.metrics.RecordImport(result.ImportedCount, len(result.Failures), time.Since(start))
	logger.Info("import finished",
		logger.Module("transfer"),
		logger.Action("import"),
		logger.Int("imported", result.ImportedCount),
		logger.Int("failed", len(result.Failures)),
		logger.Latency(time.Since(start)),
	)

	return result, nil
}

// importRow 处理单行，返回解析出的编码以及是否写入
func (s *ImportService) importRow(ctx context.Context, f *excelize.File, sheet string, rowNum int, row []string) (string, bool, error) {
	name := cellAt(row, colName)
	rawCode := cellAt(row, colCode)
	if name == "" && rawCode == "" {
		return "", false, nil
	}

	now := s.now()
	code := catalog.NormalizeCode(rawCode)
	if code == "" {
		code = fmt.Sprintf("IMP%d%d", now.UnixMilli(), rowNum)
	}
	if name == "" {
		name = code
	}

	categoryName := s.classifier.Classify(name)
	product := &models.Product{
		Code:        code,
		Name:        name,
		Category:    categoryName,
		Spec:        cellAt(row, colSpec),
		MinOrderQty: parseQuantity(cellAt(row, colMinOrderQty)),
		Channel:     cellAt(row, colChannel),
		Remark:      cellAt(row, colRemark),
		Images:      []string{},
	}

	category, err := s.categoryRepo.GetByName(ctx, categoryName)
	switch {
	case err == nil:
		product.CategoryID = &category.ID
	case !stderrors.Is(err, gorm.ErrRecordNotFound):
		return code, false, errors.ErrDatabaseError.WithError(err)
	}

	url, err := s.uploadRowImage(ctx, f, sheet, rowNum, code, now)
	if err != nil {
		return code, false, err
	}
	if url != "" {
		product.Images = []string{url}
	}

	if err := s.productRepo.UpsertByCode(ctx, product); err != nil {
		return code, false, errors.ErrDatabaseError.WithError(err)
	}
	return code, true, nil
}

// uploadRowImage 上传锚定在 B 列的第一张图片，没有图片时返回空串
func (s *ImportService) uploadRowImage(ctx context.Context, f *excelize.File, sheet string, rowNum int, code string, now time.Time) (string, error) {
	pics, err := f.GetPictures(sheet, fmt.Sprintf("%s%d", imageColumn, rowNum))
	if err != nil {
		return "", errors.ErrImportParse.WithMessage("读取图片失败").WithError(err)
	}
	if len(pics) == 0 || len(pics[0].File) == 0 {
		return "", nil
	}
	if s.uploader == nil {
		return "", errors.ErrImportImageUpload.WithMessage("未配置文件存储")
	}

	key := imageObjectKey(code, pics[0].Extension, now)
	url, err := s.uploader.Upload(ctx, key, bytes.NewReader(pics[0].File))
	if err != nil {
		return "", errors.ErrImportImageUpload.WithError(err)
	}
	return url, nil
}

// imageObjectKey products/<编码>_<毫秒时间戳>_<8位随机串><扩展名>
func imageObjectKey(code, ext string, now time.Time) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == "" {
		ext = ".png"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("products/%s_%d_%s%s", utils.SanitizeFileName(code, 32), now.UnixMilli(), suffix, ext)
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseQuantity 起订量，无法识别时为 0
func parseQuantity(v string) int {
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return max(n, 0)
	}
	if fv, err := strconv.ParseFloat(v, 64); err == nil && fv > 0 && fv < math.MaxInt32 {
		return int(fv)
	}
	return 0
}

func failureMessage(err error) string {
	appErr := errors.GetAppError(err)
	if appErr.Err != nil {
		return appErr.Message + ": " + appErr.Err.Error()
	}
	return appErr.Message
}
