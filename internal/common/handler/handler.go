// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、参数解析等操作
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/response"
	"github.com/dumeirei/inventory-backend/internal/common/utils"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// StatusForKind 返回错误类别对应的 HTTP 状态码
func StatusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindConflict:
		return http.StatusConflict
	case errors.KindParse:
		return http.StatusUnprocessableEntity
	case errors.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（表示已处理错误，调用方应该 return）
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if !errors.IsAppError(err) {
		logger.Error("unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		response.InternalError(c, "服务器内部错误")
		return true
	}
	appErr := errors.GetAppError(err)
	status := StatusForKind(appErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.Int("code", appErr.Code),
			zap.String("kind", appErr.Kind.String()),
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}
	response.ErrorWithStatus(c, status, appErr.Code, appErr.Message)
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
//
// 使用示例:
//
//	result, err := service.GetData()
//	MustSucceed(c, err, result)
//	return  // 注意：调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 便捷封装：分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
// 返回 (0, false) 表示解析失败（已发送400响应，调用方应该 return）
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析查询参数中的可选 ID
// 如果参数为空返回 (nil, true)
// 如果解析失败返回 (nil, false)（已发送400响应）
//
// 使用示例:
//
//	supplierID, ok := handler.ParseQueryID(c, "supplier_id", "供应商")
//	if !ok {
//	    return
//	}
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ============================================================================
// 时间解析辅助
// ============================================================================

// DateFormat 日期格式
const DateFormat = "2006-01-02"

// ParseDate 在 loc 时区解析日期字符串 (YYYY-MM-DD)，loc 为 nil 时使用本地时区
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateFormat, s, loc)
}

// ParseQueryDateRange 从查询参数解析日期范围（start_date, end_date），日期按 loc 时区解释
// 结束日期会自动调整为当天结束时间（23:59:59）
// 返回 (nil, nil, false) 如果解析失败（已发送400响应）
func ParseQueryDateRange(c *gin.Context, loc *time.Location) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	if startStr := c.Query("start_date"); startStr != "" {
		t, err := ParseDate(startStr, loc)
		if err != nil {
			response.BadRequest(c, "无效的开始日期格式")
			return nil, nil, false
		}
		start = &t
	}

	if endStr := c.Query("end_date"); endStr != "" {
		t, err := ParseDate(endStr, loc)
		if err != nil {
			response.BadRequest(c, "无效的结束日期格式")
			return nil, nil, false
		}
		endOfDay := t.Add(24*time.Hour - time.Second)
		end = &endOfDay
	}

	return start, end, true
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 从查询参数绑定并规范化分页参数
// 页大小取 page_size，缺省时取 limit；默认 page=1, pageSize=20, 最大 100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size := c.Query("page_size")
	if size == "" {
		size = c.Query("limit")
	}
	p.PageSize, _ = strconv.Atoi(size)
	p.Normalize()
	return p
}
