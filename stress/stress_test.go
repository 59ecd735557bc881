package stress

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	cfgpkg "bba/internal/config"
	"bba/internal/pipeline"
	"bba/pkg/contract"
)

var hands = []string{".63.AKQ987.A9732", "A8654.KQ5.T.QJT6", "J973.J98742.3.K4", "KQT2.AT.J6542.85"}

var (
	seats = []string{"N", "E", "S", "W"}
	vuls  = []string{"None", "NS", "EW", "Both"}
)

// writeBoards 生成 n 副牌的 PBN 文件；每 7 副插入一条无 Deal 的记录。
func writeBoards(path string, n int) error {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		r := i % 4
		fmt.Fprintf(&b, "[Board \"%d\"]\n[Dealer \"%s\"]\n[Vulnerable \"%s\"]\n", i+1, seats[r], vuls[(i/4)%4])
		if i%7 == 6 {
			continue
		}
		rot := append(append([]string{}, hands[r:]...), hands[:r]...)
		fmt.Fprintf(&b, "[Deal \"%s:%s\"]\n", seats[r], strings.Join(rot, " "))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// baseConfig 构造可运行的最小配置（mock 引擎，dry-run 之外写到临时目录）。
func baseConfig(input, output string) (cfgpkg.Config, error) {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Input = input
	cfg.Output = output
	cfg.Engine = "mock"
	cfg.Logging.Level = "error"
	var opts yaml.Node
	if err := yaml.Unmarshal([]byte("bids: [1NT, Pass, 2C, Pass, 2H, Pass, 4H, Pass, Pass, Pass]\ncompletion: flag\n"), &opts); err != nil {
		return cfg, err
	}
	cfg.Engines["mock"] = cfgpkg.EngineDef{Driver: "mock", Options: opts}
	return cfg, nil
}

// runPipeline 执行完整流水线。
func runPipeline(cfg cfgpkg.Config) (contract.Stats, error) {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return contract.Stats{}, err
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

// TestStress 在不同批量下运行流水线并记录延迟统计。
func TestStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress: skipped in -short")
	}
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		t.Run(fmt.Sprintf("deals_%d", n), func(t *testing.T) {
			const runs = 5
			dir := t.TempDir()
			in := filepath.Join(dir, "input.pbn")
			if err := writeBoards(in, n); err != nil {
				t.Fatalf("write input: %v", err)
			}
			wantDeals := n - n/7
			latencies := make([]time.Duration, 0, runs)
			for i := 0; i < runs; i++ {
				cfg, err := baseConfig(in, filepath.Join(dir, fmt.Sprintf("out-%d.pbn", i)))
				if err != nil {
					t.Fatalf("config: %v", err)
				}
				start := time.Now()
				st, err := runPipeline(cfg)
				dur := time.Since(start)
				if err != nil {
					t.Fatalf("run %d: %v", i, err)
				}
				if st.DealsProcessed != wantDeals || st.AuctionsGenerated != wantDeals || st.Errors != 0 {
					t.Fatalf("run %d 统计不符: %s (期望 deals=%d)", i, st, wantDeals)
				}
				latencies = append(latencies, dur)
			}
			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var total time.Duration
			for _, d := range latencies {
				total += d
			}
			avg := total / time.Duration(len(latencies))
			idx := int(math.Ceil(float64(len(latencies))*0.95)) - 1
			if idx < 0 {
				idx = 0
			}
			t.Logf("牌数%d 平均%v 95%%延迟%v", n, avg, latencies[idx])
		})
	}
}
