package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bba/internal/diag"
	"bba/pkg/contract"
	"bba/pkg/pbn"
)

// - 单线程顺序：读全部 → 抽取 → 一次引擎调用 → 对账 → 写出。
// - 引擎只通过 contract.Engine 访问；变体差异（逐请求失败 vs 整批失败）原样上抛。
// - 格式错误（Deal 无法解析）本地恢复：记录日志，记录保留但不生成请求。

// Components 聚合运行所需的组件。
type Components struct {
	Reader contract.Reader
	Engine contract.Engine
	Writer contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Input       string
	Output      string
	Conventions contract.Conventions
	// DryRun: 计算并统计，但不写输出。
	DryRun bool
	// EngineName/CorrID 仅用于终端提示。
	EngineName string
	CorrID     string
	// Term: 终端提示（可为 nil）。
	Term *diag.Terminal
}

// Run 执行完整批处理，返回统计。
// 单副牌失败计入统计且不返回错误；配置/传输/I/O 错误中止并返回。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Stats, error) {
	var stats contract.Stats
	if err := sanity(comp, set); err != nil {
		return stats, fmt.Errorf("sanity: %w", err)
	}
	started := time.Now()
	runT := logger.StartWith("pipeline", "run", set.Input, zap.Bool("dry_run", set.DryRun))

	recs, fileID, err := read(ctx, comp.Reader, set.Input, logger)
	if err != nil {
		return stats, err
	}
	for i, g := range recs {
		if g.DealErr != nil {
			logger.ErrorWith("pbn", diag.CodeFormat, "deal tag skipped", nil, fileID,
				zap.Int("game", i+1), zap.Error(g.DealErr))
		}
	}

	for _, side := range []contract.Side{contract.SideNS, contract.SideEW} {
		p := set.Conventions.Get(side)
		if p == "" {
			logger.Warn("engine", "no conventions configured", zap.Stringer("side", side))
			continue
		}
		if err := comp.Engine.LoadConventions(ctx, p, side); err != nil {
			logger.Error("engine", diag.Classify(err), "load conventions failed", &started, zap.Stringer("side", side), zap.Error(err))
			return stats, fmt.Errorf("load %s conventions: %w", side, err)
		}
	}

	reqs, origin := Extract(recs)
	if v, ok := comp.Engine.(contract.Versioner); ok {
		if ver := v.Version(); ver != "" {
			logger.DebugStart("engine", "version", "", zap.String("version", ver))
		}
	}
	if pr, ok := comp.Engine.(contract.ProgressReporter); ok && set.Term != nil {
		pr.SetProgress(set.Term.Progress)
	}
	set.Term.RunStart(set.EngineName, set.CorrID, len(reqs))

	genT := logger.StartWith("engine", "generate", fileID, zap.Int("requests", len(reqs)))
	results, err := comp.Engine.GenerateAuctions(ctx, reqs)
	if err != nil {
		logger.ErrorWith("engine", diag.Classify(err), "generate failed", genT.Since(), fileID, zap.Error(err))
		set.Term.RunFinish(false, stats, time.Since(started))
		return stats, fmt.Errorf("generate auctions: %w", err)
	}
	genT.Finish("generate", int64(len(results)))

	stats, fails, err := Reconcile(recs, origin, reqs, results)
	if err != nil {
		logger.ErrorWith("reconcile", diag.Classify(err), "reconcile failed", nil, fileID, zap.Error(err))
		set.Term.RunFinish(false, stats, time.Since(started))
		return stats, err
	}
	for _, f := range fails {
		logger.ErrorWith("engine", diag.Classify(f.Err), "auction failed", nil, fileID,
			zap.Int("game", f.Record+1), zap.String("diagnostic", f.Diagnostic))
	}

	if set.DryRun {
		logger.DebugStart("writer", "dry run, output skipped", set.Output)
	} else if err := write(ctx, comp.Writer, set.Output, recs, logger); err != nil {
		set.Term.RunFinish(false, stats, time.Since(started))
		return stats, err
	}

	runT.Finish("run", int64(stats.AuctionsGenerated),
		zap.Int("deals", stats.DealsProcessed), zap.Int("errors", stats.Errors))
	set.Term.RunFinish(true, stats, time.Since(started))
	return stats, nil
}

func read(ctx context.Context, r contract.Reader, src string, logger *diag.Logger) ([]*pbn.GameRecord, string, error) {
	t := logger.StartWith("reader", "parse", src)
	fileID, rc, err := r.Open(ctx, src)
	if err != nil {
		logger.ErrorWith("reader", diag.Classify(err), "open failed", t.Since(), src, zap.Error(err))
		return nil, src, fmt.Errorf("open input: %w", err)
	}
	defer rc.Close()
	recs, err := pbn.Parse(ctx, rc)
	if err != nil {
		logger.ErrorWith("reader", diag.Classify(err), "parse failed", t.Since(), string(fileID), zap.Error(err))
		return nil, string(fileID), fmt.Errorf("parse input: %w", err)
	}
	t.Finish("parse", int64(len(recs)))
	return recs, string(fileID), nil
}

func write(ctx context.Context, w contract.Writer, dst string, recs []*pbn.GameRecord, logger *diag.Logger) error {
	t := logger.StartWith("writer", "write", dst)
	var buf bytes.Buffer
	if err := pbn.Render(&buf, recs); err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	if err := w.Write(ctx, contract.ArtifactID(dst), &buf); err != nil {
		logger.ErrorWith("writer", diag.Classify(err), "write failed", t.Since(), dst, zap.Error(err))
		return fmt.Errorf("write output: %w", err)
	}
	t.Finish("write", int64(len(recs)))
	return nil
}

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Engine == nil {
		return errors.New("pipeline: missing components")
	}
	if !s.DryRun && c.Writer == nil {
		return errors.New("pipeline: missing writer")
	}
	if s.Input == "" {
		return errors.New("pipeline: empty input")
	}
	if !s.DryRun && s.Output == "" {
		return errors.New("pipeline: empty output")
	}
	return nil
}
