// Package handle 实现句柄式引擎驱动：每个请求独立创建实例、按序配置、有界取叫并保证释放。
package handle

import (
	"context"
	"fmt"

	"bba/pkg/contract"
)

// DefaultMaxBids 为取叫循环的默认上限。
const DefaultMaxBids = 100

// Options: 句柄驱动可选项。
type Options struct {
	// MaxBids: 单副牌最多取叫次数；<=0 使用默认值。
	MaxBids int `yaml:"max_bids"`
}

// Driver 实现 contract.Engine（以及 Versioner/ProgressReporter）。
type Driver struct {
	api      API
	maxBids  int
	conv     contract.Conventions
	progress contract.ProgressFunc
}

// New 构造驱动；api 必须非空。
func New(api API, opts *Options) (*Driver, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: nil handle api", contract.ErrEngineUnavailable)
	}
	mb := DefaultMaxBids
	if opts != nil && opts.MaxBids > 0 {
		mb = opts.MaxBids
	}
	return &Driver{api: api, maxBids: mb}, nil
}

// LoadConventions 记录约定路径；实际加载在每个实例配置阶段进行。
func (d *Driver) LoadConventions(ctx context.Context, path string, side contract.Side) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.conv.Set(side, path)
}

// GenerateAuctions 顺序处理全部请求；单请求失败只影响自身结果，实例创建失败中止整批。
func (d *Driver) GenerateAuctions(ctx context.Context, reqs []contract.AuctionRequest) ([]contract.AuctionResult, error) {
	out := make([]contract.AuctionResult, 0, len(reqs))
	failed := 0
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := d.one(req)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		if !res.Success {
			failed++
		}
		out = append(out, res)
		if d.progress != nil {
			d.progress(i+1, len(reqs), failed)
		}
	}
	return out, nil
}

func (d *Driver) one(req contract.AuctionRequest) (contract.AuctionResult, error) {
	in, err := acquire(d.api)
	if err != nil {
		return contract.AuctionResult{}, err
	}
	defer in.release()

	if err := in.configure(req, d.conv); err != nil {
		return contract.Failed(err), nil
	}
	bids, err := in.auction(d.maxBids)
	if err != nil {
		return contract.Failed(err), nil
	}
	return contract.Succeeded(bids), nil
}

// Version 实现 contract.Versioner。
func (d *Driver) Version() string { return d.api.Version() }

// SetProgress 实现 contract.ProgressReporter。
func (d *Driver) SetProgress(fn contract.ProgressFunc) { d.progress = fn }

var (
	_ contract.Engine           = (*Driver)(nil)
	_ contract.Versioner        = (*Driver)(nil)
	_ contract.ProgressReporter = (*Driver)(nil)
)
