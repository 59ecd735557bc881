package contract

import "context"

// Engine: 叫牌引擎能力契约；编排层只依赖此接口。
// 约束：
//  1. LoadConventions 每方最多调用一次，须在 GenerateAuctions 之前完成；
//  2. GenerateAuctions 每批恰好调用一次，返回与 reqs 等长、同序的结果；
//  3. 返回 error 表示批级失败（无部分结果）；单个请求的失败以 AuctionResult 表达；
//  4. 实现为同步调用，不在内部起并发扇出；应尊重 ctx 取消。
type Engine interface {
	LoadConventions(ctx context.Context, path string, side Side) error
	GenerateAuctions(ctx context.Context, reqs []AuctionRequest) ([]AuctionResult, error)
}

// Versioner: 可选能力，返回引擎版本串（未知为空串）。
type Versioner interface {
	Version() string
}

// ProgressFunc: 每完成一个请求回调一次。
type ProgressFunc func(done, total, failed int)

// ProgressReporter: 可选能力，逐请求汇报进度（批量一次性交换的实现无需实现）。
type ProgressReporter interface {
	SetProgress(fn ProgressFunc)
}
