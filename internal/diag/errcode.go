package diag

import (
	"context"
	"errors"
	"os"

	"bba/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeConfig    Code = "config"
	CodeEngine    Code = "engine"
	CodeFormat    Code = "format"
	CodeTransport Code = "transport"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	switch {
	case errors.Is(err, contract.ErrConfig):
		return CodeConfig
	case errors.Is(err, contract.ErrEngineUnavailable),
		errors.Is(err, contract.ErrEngineStatus),
		errors.Is(err, contract.ErrAuctionTooLong):
		return CodeEngine
	case errors.Is(err, contract.ErrDealFormat):
		return CodeFormat
	case errors.Is(err, contract.ErrTransport),
		errors.Is(err, contract.ErrEngineExit),
		errors.Is(err, contract.ErrResponseInvalid),
		errors.Is(err, contract.ErrResultCount):
		return CodeTransport
	case errors.Is(err, contract.ErrInvariantViolation),
		errors.Is(err, contract.ErrInvalidInput),
		errors.Is(err, contract.ErrPathInvalid):
		return CodeInvariant
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}
