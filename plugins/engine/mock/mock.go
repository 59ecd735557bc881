// Package mock 提供确定性的句柄式引擎模拟实现，用于离线联调与测试。
package mock

import (
	"errors"
	"strings"
	"sync"

	"bba/pkg/contract"
	"bba/plugins/engine/handle"
)

// Options: 模拟行为配置。
type Options struct {
	// Bids: 每副牌产出的叫品序列，默认 "1C Pass Pass Pass"。
	Bids []string `yaml:"bids"`
	// Completion: 结束信号方式："status"（默认，下一次取叫返回结束码）或 "flag"（取叫后结束标志置位）。
	Completion string `yaml:"completion"`
	// NeverComplete: 永不发出结束信号（叫品用尽后持续返回 Pass）。
	NeverComplete bool `yaml:"never_complete"`
	// FailStep: 在指定步骤返回失败码：set_deal|set_dealer|set_vulnerability|load_conventions|get_next_bid|is_auction_complete。
	FailStep string `yaml:"fail_step"`
	// FailCode: 失败码，默认 -6（bidding failed）。
	FailCode int32 `yaml:"fail_code"`
	// FailMessage: 失败时 LastError 返回的诊断。
	FailMessage string `yaml:"fail_message"`
	// FailDeal: 非空时仅对牌面完全相同的请求注入失败。
	FailDeal string `yaml:"fail_deal"`
	// CreateError: Create 恒失败。
	CreateError bool `yaml:"create_error"`
	// Version: Version 返回值，默认 "mock"。
	Version string `yaml:"version"`
}

type state struct {
	deal string
	next int
}

// API 实现 handle.API；并发安全，记录创建/释放次数。
type API struct {
	opts Options

	mu        sync.Mutex
	seq       handle.Handle
	live      map[handle.Handle]*state
	created   int
	destroyed int
	strays    int
	lastErr   string
}

// New 构造模拟 API。
func New(opts *Options) *API {
	var o Options
	if opts != nil {
		o = *opts
	}
	if len(o.Bids) == 0 {
		o.Bids = []string{"1C", "Pass", "Pass", "Pass"}
	}
	if o.Completion == "" {
		o.Completion = "status"
	}
	if o.FailCode == 0 {
		o.FailCode = int32(handle.StatusBiddingFailed)
	}
	if o.Version == "" {
		o.Version = "mock"
	}
	return &API{opts: o, live: map[handle.Handle]*state{}}
}

func (a *API) Create() (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opts.CreateError {
		a.lastErr = "create refused"
		return 0, errors.New("mock: create refused")
	}
	a.seq++
	a.live[a.seq] = &state{}
	a.created++
	return a.seq, nil
}

func (a *API) Destroy(h handle.Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[h]; !ok {
		a.strays++
		return
	}
	delete(a.live, h)
	a.destroyed++
}

func (a *API) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *API) Version() string { return a.opts.Version }

// step 统一处理句柄校验与失败注入。
func (a *API) step(h handle.Handle, name string) (*state, handle.Status) {
	st, ok := a.live[h]
	if !ok {
		a.lastErr = "unknown handle"
		return nil, handle.StatusNullHandle
	}
	if a.opts.FailStep == name && (a.opts.FailDeal == "" || a.opts.FailDeal == st.deal) {
		a.lastErr = a.opts.FailMessage
		return st, handle.Status(a.opts.FailCode)
	}
	return st, handle.StatusOK
}

func (a *API) SetDeal(h handle.Handle, deal string) handle.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.live[h]; ok {
		st.deal = deal
	}
	_, code := a.step(h, "set_deal")
	return code
}

func (a *API) SetDealer(h handle.Handle, _ contract.Seat) handle.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, code := a.step(h, "set_dealer")
	return code
}

func (a *API) SetVulnerability(h handle.Handle, _ contract.Vulnerability) handle.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, code := a.step(h, "set_vulnerability")
	return code
}

func (a *API) LoadConventions(h handle.Handle, path string, _ contract.Side) handle.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if strings.TrimSpace(path) == "" {
		a.lastErr = "empty convention path"
		return handle.StatusInvalidConventionFile
	}
	_, code := a.step(h, "load_conventions")
	return code
}

func (a *API) NextBid(h handle.Handle) (string, handle.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, code := a.step(h, "get_next_bid")
	if code != handle.StatusOK {
		return "", code
	}
	if st.next >= len(a.opts.Bids) {
		if a.opts.NeverComplete {
			st.next++
			return "Pass", handle.StatusOK
		}
		return "", handle.StatusAuctionComplete
	}
	bid := a.opts.Bids[st.next]
	st.next++
	return bid, handle.StatusOK
}

func (a *API) IsAuctionComplete(h handle.Handle) (bool, handle.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, code := a.step(h, "is_auction_complete")
	if code != handle.StatusOK {
		return false, code
	}
	if a.opts.NeverComplete || a.opts.Completion != "flag" {
		return false, handle.StatusOK
	}
	return st.next >= len(a.opts.Bids), handle.StatusOK
}

// Created 返回成功创建的实例数。
func (a *API) Created() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created
}

// Destroyed 返回已释放的实例数。
func (a *API) Destroyed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

// Live 返回尚未释放的实例数。
func (a *API) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Strays 返回对未知/已释放句柄的 Destroy 次数（重复释放）。
func (a *API) Strays() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.strays
}

var _ handle.API = (*API)(nil)
