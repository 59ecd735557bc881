package contract

import "errors"

// 错误分类哨兵。实现以 fmt.Errorf("...: %w", Err*) 包装，上层用 errors.Is 判定。
var (
	// 配置类（致命，处理前中止）
	// ErrConfig: 输入/约定文件缺失、参数非法。
	ErrConfig = errors.New("configuration error")
	// ErrEngineUnavailable: 引擎无法加载或实例创建失败。
	ErrEngineUnavailable = errors.New("engine unavailable")

	// 单请求类（记为失败结果，批继续）
	// ErrEngineStatus: 配置或叫牌步骤返回非成功状态码。
	ErrEngineStatus = errors.New("engine status")
	// ErrAuctionTooLong: 迭代上限耗尽仍未收到结束信号。
	ErrAuctionTooLong = errors.New("auction too long")

	// 格式类（本地恢复，不计入错误）
	// ErrDealFormat: Deal 标签无法解析。
	ErrDealFormat = errors.New("deal format")

	// 传输类（批级致命）
	// ErrTransport: 进程启动/管道读写失败。
	ErrTransport = errors.New("transport failure")
	// ErrEngineExit: 外部引擎进程非零退出。
	ErrEngineExit = errors.New("engine process exited")
	// ErrResponseInvalid: 结果文档无法解析。
	ErrResponseInvalid = errors.New("response invalid")
	// ErrResultCount: 结果数量与请求数量不一致。
	ErrResultCount = errors.New("result count mismatch")

	// 通用
	// ErrInvalidInput: 调用参数非法（如重复加载同一方约定）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标标识映射为无效路径。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)
