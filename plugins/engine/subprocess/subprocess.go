// Package subprocess 实现批量交换式引擎驱动：一次启动外部包装进程，经 stdin/stdout 交换 JSON 文档。
package subprocess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"bba/pkg/contract"
)

// Options: 外部包装进程配置。
type Options struct {
	// Path: 包装程序路径（必填）。
	Path string `yaml:"path"`
	// Args: 附加命令行参数。
	Args []string `yaml:"args"`
	// Env: 追加到当前进程环境的 KEY=VALUE 列表。
	Env []string `yaml:"env"`
}

// Driver 实现 contract.Engine；整批为失败单元。
type Driver struct {
	path string
	args []string
	env  []string
	conv contract.Conventions
}

// New 校验包装程序可执行后构造驱动。
func New(opts *Options) (*Driver, error) {
	if opts == nil || strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("%w: subprocess engine requires path", contract.ErrConfig)
	}
	p, err := exec.LookPath(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapper %q: %v", contract.ErrEngineUnavailable, opts.Path, err)
	}
	return &Driver{path: p, args: append([]string(nil), opts.Args...), env: append([]string(nil), opts.Env...)}, nil
}

type wireDeal struct {
	PBN           string `json:"pbn"`
	Dealer        string `json:"dealer"`
	Vulnerability string `json:"vulnerability"`
}

type wireRequest struct {
	NSConventions *string    `json:"ns_conventions"`
	EWConventions *string    `json:"ew_conventions"`
	Deals         []wireDeal `json:"deals"`
}

type wireResult struct {
	Deal    *string  `json:"deal"`
	Auction []string `json:"auction"`
	Success bool     `json:"success"`
	Error   *string  `json:"error"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// LoadConventions 记录约定路径，随请求文档一并下发。
func (d *Driver) LoadConventions(ctx context.Context, path string, side contract.Side) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.conv.Set(side, path)
}

// GenerateAuctions 启动一次包装进程处理整批请求；零请求不启动进程。
func (d *Driver) GenerateAuctions(ctx context.Context, reqs []contract.AuctionRequest) ([]contract.AuctionResult, error) {
	if len(reqs) == 0 {
		return []contract.AuctionResult{}, nil
	}
	payload, err := json.Marshal(d.request(reqs))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", contract.ErrTransport, err)
	}
	stdout, err := d.exchange(ctx, payload)
	if err != nil {
		return nil, err
	}
	var resp wireResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v (output: %q)", contract.ErrResponseInvalid, err, clip(string(stdout), 200))
	}
	if len(resp.Results) != len(reqs) {
		return nil, fmt.Errorf("%w: got %d results for %d requests", contract.ErrResultCount, len(resp.Results), len(reqs))
	}
	out := make([]contract.AuctionResult, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = convert(r)
	}
	return out, nil
}

func (d *Driver) request(reqs []contract.AuctionRequest) wireRequest {
	w := wireRequest{Deals: make([]wireDeal, len(reqs))}
	if d.conv.NS != "" {
		ns := d.conv.NS
		w.NSConventions = &ns
	}
	if d.conv.EW != "" {
		ew := d.conv.EW
		w.EWConventions = &ew
	}
	for i, r := range reqs {
		w.Deals[i] = wireDeal{PBN: r.Deal, Dealer: r.Dealer.Code(), Vulnerability: r.Vulnerability.Code()}
	}
	return w
}

// exchange 写入请求、并发排空 stdout/stderr，随后等待进程退出。
func (d *Driver) exchange(ctx context.Context, payload []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.path, d.args...)
	if len(d.env) > 0 {
		cmd.Env = append(os.Environ(), d.env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", contract.ErrTransport, err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", contract.ErrTransport, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", contract.ErrTransport, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", contract.ErrTransport, d.path, err)
	}

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		_, err := stdin.Write(payload)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})
	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("engine process: %w", ctx.Err())
	}
	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return nil, fmt.Errorf("%w: exit code %d: %s", contract.ErrEngineExit, ee.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: wait: %v", contract.ErrTransport, waitErr)
	}
	if pumpErr != nil {
		return nil, fmt.Errorf("%w: pipe: %v", contract.ErrTransport, pumpErr)
	}
	return stdout.Bytes(), nil
}

// convert 映射单条结果；success 但缺少 auction 视为失败。
func convert(r wireResult) contract.AuctionResult {
	if r.Success && r.Auction != nil {
		return contract.Succeeded(r.Auction)
	}
	msg := "unknown error"
	if r.Error != nil && *r.Error != "" {
		msg = *r.Error
	} else if r.Success {
		msg = "no auction in result"
	}
	return contract.AuctionResult{Diagnostic: msg, Err: fmt.Errorf("%w: %s", contract.ErrEngineStatus, msg)}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ contract.Engine = (*Driver)(nil)
