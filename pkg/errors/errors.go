package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// 预定义错误
var (
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized")
	ErrForbidden      = New(http.StatusForbidden, "Forbidden resource")
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error")
	ErrTokenExpired   = New(http.StatusUnauthorized, "Token has expired")
	ErrTokenInvalid   = New(http.StatusUnauthorized, "Invalid token")
	ErrAccessDenied   = New(http.StatusForbidden, "Access denied")
)

// AppError 应用错误，Code 即 HTTP 状态码
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 解包错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按状态码和消息比较，使预定义错误可用 errors.Is 判断
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Internal 包装底层错误为500
func Internal(err error) *AppError {
	return Wrap(err, http.StatusInternalServerError, "Internal server error")
}

// Is 检查是否为指定错误
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 类型转换错误
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode 获取错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// NotFound 资源不存在 (404)
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message)
}

// BadRequest 请求错误 (400)
func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message)
}

// Unauthorized 未认证 (401)
func Unauthorized(message string) *AppError {
	if message == "" {
		return ErrUnauthorized
	}
	return New(http.StatusUnauthorized, message)
}

// Forbidden 禁止访问 (403)
func Forbidden(message string) *AppError {
	if message == "" {
		return ErrForbidden
	}
	return New(http.StatusForbidden, message)
}

// Conflict 唯一性冲突 (409)
func Conflict(message string) *AppError {
	return New(http.StatusConflict, message)
}

// Validation 参数校验失败 (400)
func Validation(message string) *AppError {
	return New(http.StatusBadRequest, message)
}
