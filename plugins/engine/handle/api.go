package handle

import (
	"fmt"

	"bba/pkg/contract"
)

// Handle: 不透明引擎实例句柄；零值表示无效。
type Handle uintptr

// Status: 引擎调用状态码（与包装库头文件一致）。
type Status int32

const (
	StatusOK                    Status = 0
	StatusNullHandle            Status = -1
	StatusInvalidHand           Status = -2
	StatusInvalidDealer         Status = -3
	StatusInvalidVulnerability  Status = -4
	StatusInvalidConventionFile Status = -5
	StatusBiddingFailed         Status = -6
	StatusRuntimeException      Status = -7
	StatusOutOfMemory           Status = -8
	StatusAuctionComplete       Status = -9
)

var statusText = map[Status]string{
	StatusOK:                    "ok",
	StatusNullHandle:            "null handle",
	StatusInvalidHand:           "invalid hand",
	StatusInvalidDealer:         "invalid dealer",
	StatusInvalidVulnerability:  "invalid vulnerability",
	StatusInvalidConventionFile: "invalid convention file",
	StatusBiddingFailed:         "bidding failed",
	StatusRuntimeException:      "runtime exception",
	StatusOutOfMemory:           "out of memory",
	StatusAuctionComplete:       "auction complete",
}

func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// API: 句柄式引擎的最小调用面（原生绑定与模拟实现共用）。
// 约束：
//  1. Create 失败返回错误，且不产生需要释放的句柄；
//  2. 每个成功 Create 的句柄必须恰好 Destroy 一次；
//  3. LastError 为进程级诊断（空串表示无）。
type API interface {
	Create() (Handle, error)
	Destroy(h Handle)
	LastError() string
	Version() string

	SetDeal(h Handle, deal string) Status
	SetDealer(h Handle, dealer contract.Seat) Status
	SetVulnerability(h Handle, v contract.Vulnerability) Status
	LoadConventions(h Handle, path string, side contract.Side) Status

	// NextBid 取下一个叫品；叫牌结束时返回 StatusAuctionComplete。
	NextBid(h Handle) (string, Status)
	// IsAuctionComplete 查询显式结束标志。
	IsAuctionComplete(h Handle) (bool, Status)
}

// StatusError: 某一步返回非成功状态码。
type StatusError struct {
	Op   string
	Code Status
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s failed with code %d", e.Op, int32(e.Code))
	}
	return fmt.Sprintf("%s failed (code %d): %s", e.Op, int32(e.Code), e.Msg)
}

func (e *StatusError) Unwrap() error { return contract.ErrEngineStatus }
