package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 携带返回给记录端的错误码和简短消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// WithMessage 替换用户可见的消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，不是 AppError 时返回服务器错误
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 牌局会话 10000-10999
	CodeGameNotFound   = 10001
	CodeNoActiveHand   = 10002
	CodeNothingToUndo  = 10003
	CodeHandInProgress = 10004
	CodeTooManyGames   = 10005

	// 参数 11000-11999
	CodeInvalidParams = 11001
	CodeInvalidTile   = 11002

	// 规则 12000-12999
	CodeIllegalAction = 12001

	// 评分与听牌 13000-13999
	CodeScoringRejected    = 13001
	CodeHandNotWinning     = 13002
	CodeNoYaku             = 13003
	CodeTenpaiUndetermined = 13004
	CodeAnalysisDown       = 13005

	// 系统错误 50000-50999
	CodeServerError    = 50001
	CodeDBError        = 50002
	CodeTooManyRequest = 50003
)

// ============== 预定义错误 ==============

// 牌局会话
var (
	ErrGameNotFound   = NewError(CodeGameNotFound, "牌局不存在")
	ErrNoActiveHand   = NewError(CodeNoActiveHand, "当前没有进行中的一局")
	ErrNothingToUndo  = NewError(CodeNothingToUndo, "没有可以撤销的操作")
	ErrHandInProgress = NewError(CodeHandInProgress, "上一局尚未结束")
	ErrTooManyGames   = NewError(CodeTooManyGames, "牌局数量已达上限")
)

// 参数
var (
	ErrInvalidParams = NewError(CodeInvalidParams, "参数校验失败")
	ErrInvalidTile   = NewError(CodeInvalidTile, "无法识别的牌")
)

// 规则
var (
	ErrIllegalAction = NewError(CodeIllegalAction, "不合法的操作")
)

// 评分与听牌
var (
	ErrScoringRejected    = NewError(CodeScoringRejected, "评分失败")
	ErrHandNotWinning     = NewError(CodeHandNotWinning, "没有和牌")
	ErrNoYaku             = NewError(CodeNoYaku, "无役")
	ErrTenpaiUndetermined = NewError(CodeTenpaiUndetermined, "听牌状态未确定")
	ErrAnalysisDown       = NewError(CodeAnalysisDown, "分析服务不可用")
)

// 系统相关
var (
	ErrServerError    = NewError(CodeServerError, "服务器内部错误")
	ErrDBError        = NewError(CodeDBError, "数据库错误")
	ErrTooManyRequest = NewError(CodeTooManyRequest, "请求过于频繁，请稍后再试")
)
