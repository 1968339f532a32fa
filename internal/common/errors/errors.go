// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind 错误类别，决定调用方如何呈现错误
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindParse
	KindStorage
	KindTooManyRequests
)

// String 返回错误类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindParse:
		return "parse"
	case KindStorage:
		return "storage"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，WithMessage/WithError 派生的错误与原错误相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindInternal,
		Message: message,
	}
}

// NewKind 创建指定类别的应用错误
func NewKind(kind Kind, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: message,
		Err:     e.Err,
	}
}

// WithMessagef 格式化修改错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = NewKind(KindValidation, 1001, "参数错误")
	ErrNotFound        = NewKind(KindNotFound, 1002, "资源不存在")
	ErrAlreadyExists   = NewKind(KindConflict, 1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrStorageError    = NewKind(KindStorage, 1007, "文件存储错误")
	ErrRateLimitExceed = NewKind(KindTooManyRequests, 1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 商品与分类错误码 (2000-2999)
var (
	ErrProductNotFound     = NewKind(KindNotFound, 2000, "商品不存在")
	ErrProductCodeConflict = NewKind(KindConflict, 2001, "商品编码已存在")
	ErrProductInUse        = NewKind(KindConflict, 2002, "商品已被采购单引用，无法删除")
	ErrProductNameRequired = NewKind(KindValidation, 2003, "商品名称不能为空")
	ErrProductCodeRequired = NewKind(KindValidation, 2004, "商品编码不能为空")

	ErrCategoryNotFound      = NewKind(KindNotFound, 2100, "分类不存在")
	ErrCategoryLevelInvalid  = NewKind(KindValidation, 2101, "分类层级必须为1-3")
	ErrCategoryParentInvalid = NewKind(KindValidation, 2102, "父分类层级不匹配")
	ErrCategoryCycle         = NewKind(KindValidation, 2103, "不能将分类移动到自身或其子分类下")
	ErrCategoryTooDeep       = NewKind(KindValidation, 2104, "子分类层级将超过3级")
	ErrCategoryNameRequired  = NewKind(KindValidation, 2105, "分类名称不能为空")
)

// 供应商错误码 (3000-3999)
var (
	ErrSupplierNotFound     = NewKind(KindNotFound, 3000, "供应商不存在")
	ErrSupplierNameRequired = NewKind(KindValidation, 3001, "供应商名称不能为空")
	ErrSupplierInUse        = NewKind(KindConflict, 3002, "供应商存在采购记录，无法删除")
)

// 采购单错误码 (5000-5999)
var (
	ErrPurchaseNotFound    = NewKind(KindNotFound, 5000, "采购单不存在")
	ErrSupplierRequired    = NewKind(KindValidation, 5001, "请选择供应商")
	ErrPurchaseItemsEmpty  = NewKind(KindValidation, 5002, "采购明细不能为空")
	ErrInvalidQuantity     = NewKind(KindValidation, 5003, "采购数量必须大于0")
	ErrInvalidUnitPrice    = NewKind(KindValidation, 5004, "采购单价不能为负数")
	ErrInvalidShippingFee  = NewKind(KindValidation, 5005, "运费不能为负数")
	ErrOrderNoConflict     = NewKind(KindConflict, 5006, "采购单号冲突，请重试")
	ErrPurchaseDateInvalid = NewKind(KindValidation, 5007, "采购日期格式错误")
)

// 导入导出错误码 (6000-6999)
var (
	ErrImportParse        = NewKind(KindParse, 6000, "无法解析Excel文件")
	ErrImportNoSheet      = NewKind(KindParse, 6001, "Excel文件缺少工作表")
	ErrImportFileRequired = NewKind(KindValidation, 6002, "请上传Excel文件")
	ErrImportFileTooLarge = NewKind(KindValidation, 6003, "文件过大")
	ErrImportImageUpload  = NewKind(KindStorage, 6004, "图片上传失败")
	ErrExportFailed       = New(6005, "导出失败")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// IsKind 判断错误链中是否存在指定类别的应用错误
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}
