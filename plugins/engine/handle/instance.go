package handle

import (
	"fmt"

	"bba/pkg/contract"
)

// instance: 单请求作用域的引擎实例；release 幂等，所有退出路径均经 defer 调用。
type instance struct {
	api      API
	h        Handle
	released bool
}

func acquire(api API) (*instance, error) {
	h, err := api.Create()
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %v", contract.ErrEngineUnavailable, err)
	}
	return &instance{api: api, h: h}, nil
}

func (in *instance) release() {
	if in == nil || in.released {
		return
	}
	in.released = true
	in.api.Destroy(in.h)
}

func (in *instance) fail(op string, st Status) error {
	return &StatusError{Op: op, Code: st, Msg: in.api.LastError()}
}

// configure 固定顺序：牌面、发牌人、局况、NS 约定、EW 约定；首个失败即返回。
func (in *instance) configure(req contract.AuctionRequest, conv contract.Conventions) error {
	if st := in.api.SetDeal(in.h, req.Deal); st != StatusOK {
		return in.fail("set_deal", st)
	}
	if st := in.api.SetDealer(in.h, req.Dealer); st != StatusOK {
		return in.fail("set_dealer", st)
	}
	if st := in.api.SetVulnerability(in.h, req.Vulnerability); st != StatusOK {
		return in.fail("set_vulnerability", st)
	}
	for _, side := range []contract.Side{contract.SideNS, contract.SideEW} {
		p := conv.Get(side)
		if p == "" {
			continue
		}
		if st := in.api.LoadConventions(in.h, p, side); st != StatusOK {
			return in.fail(fmt.Sprintf("load_conventions(%s)", side), st)
		}
	}
	return nil
}

// auction 有界取叫：结束状态码或结束标志任一出现即成功；上限耗尽为失败。
func (in *instance) auction(maxBids int) ([]string, error) {
	var bids []string
	for i := 0; i < maxBids; i++ {
		bid, st := in.api.NextBid(in.h)
		if st == StatusAuctionComplete {
			return bids, nil
		}
		if st != StatusOK {
			return nil, in.fail("get_next_bid", st)
		}
		bids = append(bids, bid)
		done, st := in.api.IsAuctionComplete(in.h)
		if st != StatusOK {
			return nil, in.fail("is_auction_complete", st)
		}
		if done {
			return bids, nil
		}
	}
	return nil, fmt.Errorf("%w: no completion signal after %d bids", contract.ErrAuctionTooLong, maxBids)
}
