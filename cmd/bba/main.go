package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"bba/internal/compare"
	cfgpkg "bba/internal/config"
	"bba/internal/diag"
	"bba/internal/pipeline"
	"bba/pkg/contract"
	"bba/pkg/pbn"
	"bba/pkg/registry"
)

var pipelineRun = pipeline.Run

// 退出码：0 完成（含单副失败）；1 运行失败；3 配置错误。
const (
	exitOK      = 0
	exitRun     = 1
	exitConfig  = 3
	defaultConf = "config.yaml"
)

type cliFlags struct {
	config  string
	input   string
	output  string
	nsConv  string
	ewConv  string
	engine  string
	wrapper string
	maxBids int
	dryRun  bool
	threads int
	verbose int
	status  bool
	initDir string
	logDir  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run 构造一次性的根命令并执行；返回进程退出码。
func run(args []string, stdout, stderr io.Writer) int {
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")
	code := exitOK
	cmd := newRootCmd(stdout, stderr, &code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		// 旗标解析失败等（cobra 已打印错误）
		return exitConfig
	}
	return code
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	var f cliFlags
	cmd := &cobra.Command{
		Use:           "bba",
		Short:         "为 PBN 文件中的每副牌生成自动叫牌",
		Long:          "读取 PBN 文件，调用叫牌引擎为每个含 Deal 的记录生成 Auction，并写出更新后的 PBN。",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*code = execute(cmd.Context(), f, stdout, stderr)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "配置文件路径（YAML）；缺省读取 ./config.yaml（若存在）")
	fl.StringVarP(&f.input, "input", "i", "", "输入 PBN 文件；\"-\" 表示 STDIN")
	fl.StringVarP(&f.output, "output", "o", "", "输出 PBN 文件；\"-\" 表示 STDOUT")
	fl.StringVar(&f.nsConv, "ns-conventions", "", "南北方约定文件（.bbsa）")
	fl.StringVar(&f.ewConv, "ew-conventions", "", "东西方约定文件（.bbsa）")
	fl.StringVar(&f.engine, "engine", "", "引擎名称（native|subprocess|mock 或配置中的自定义名）")
	fl.StringVar(&f.wrapper, "wrapper", "", "subprocess 引擎的包装程序路径（默认与可执行文件同目录的 epbot-wrapper）")
	fl.IntVar(&f.maxBids, "max-bids", 0, "单副牌最多取叫次数（仅进程内引擎；0 表示默认 100）")
	fl.BoolVar(&f.dryRun, "dry-run", false, "只生成与统计，不写输出")
	fl.IntVarP(&f.threads, "threads", "j", 0, "预留：工作线程数（>1 时告警，仍顺序处理）")
	fl.CountVarP(&f.verbose, "verbose", "v", "日志详细程度（-v 为 debug）")
	fl.BoolVar(&f.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 分行输出")
	fl.StringVar(&f.logDir, "log-dir", "", "JSON 日志目录（设置后写入轮转文件）")
	fl.StringVar(&f.initDir, "init-config", "", "在指定目录生成默认 config.yaml 与 .env 模板（已存在则跳过）；不带值时为当前目录")
	fl.Lookup("init-config").NoOptDefVal = "."
	cmd.AddCommand(newCompareCmd(stdout, stderr, code))
	return cmd
}

// newCompareCmd: bba compare a.pbn b.pbn，按牌面对比两份文件的叫牌。
func newCompareCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	var samples int
	cmd := &cobra.Command{
		Use:          "compare <a.pbn> <b.pbn>",
		Short:        "按牌面对比两份 PBN 的叫牌序列",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = compareFiles(cmd.Context(), args[0], args[1], samples, stdout, stderr)
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 10, "最多列出的差异样例数")
	return cmd
}

func compareFiles(ctx context.Context, a, b string, samples int, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	ra, err := readRecords(ctx, a)
	if err != nil {
		fprintf(stderr, "读取失败 %s: %v\n", a, err)
		return exitConfig
	}
	rb, err := readRecords(ctx, b)
	if err != nil {
		fprintf(stderr, "读取失败 %s: %v\n", b, err)
		return exitConfig
	}
	if err := compare.Auctions(ra, rb).Write(stdout, a, b, samples); err != nil {
		return exitRun
	}
	return exitOK
}

func readRecords(ctx context.Context, path string) ([]*pbn.GameRecord, error) {
	r, err := registry.Reader["fs"](nil)
	if err != nil {
		return nil, err
	}
	_, rc, err := r.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return pbn.Parse(ctx, rc)
}

func execute(ctx context.Context, f cliFlags, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	corrID := uuid.NewString()
	// 先以默认级别构造，解析/合并配置后按最终 level 重建
	logger, _ := diag.NewLogger(diag.Options{CorrID: corrID, Console: stderr})

	// --init-config: 生成模板并退出
	if dir := strings.TrimSpace(f.initDir); dir != "" {
		if err := initConfig(dir); err != nil {
			fprintf(stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", diag.Classify(err), "first error", &start)
			return exitConfig
		}
		return exitOK
	}

	cfgPath := f.config
	if cfgPath == "" {
		cfgPath = os.Getenv("BBA_CONFIG_FILE")
	}
	if cfgPath == "" {
		if _, err := os.Stat(defaultConf); err == nil {
			cfgPath = defaultConf
		}
	}

	cfg := cfgpkg.Defaults()
	if cfgPath != "" {
		base, err := cfgpkg.Load(cfgPath, nil)
		if err != nil {
			fprintf(stderr, "配置解析失败: %v\n", err)
			logger.Error("config", diag.Classify(err), "first error", &start)
			return exitConfig
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	// ENV 覆盖
	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		fprintf(stderr, "环境变量解析失败: %v\n", err)
		logger.Error("config", diag.Classify(err), "first error", &start)
		return exitConfig
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖
	cfg = cfgpkg.Merge(cfg, cliOverlay(f))

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		_ = dumpConfig(stderr, cfg)
		logger.Error("config", diag.Classify(err), "first error", &start)
		return exitConfig
	}

	// 使用最终配置中的日志设置重建 logger
	if l, err := diag.NewLogger(diag.Options{
		CorrID:   corrID,
		Level:    cfg.Logging.Level,
		Dir:      cfg.Logging.Dir,
		MaxBytes: cfg.Logging.MaxBytes,
		Console:  stderr,
	}); err == nil {
		_ = logger.Close()
		logger = l
	} else {
		fprintf(stderr, "提示：日志文件初始化失败（仅输出到终端）：%v\n", err)
	}
	defer logger.Close()

	if cfg.Threads > 1 {
		logger.Warn("cli", "threads > 1 is reserved; processing stays sequential", zap.Int("threads", cfg.Threads))
	}
	logger.DebugStart("config", "effective", cfgPath,
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.Bool("dry_run", cfg.DryRun),
		zap.String("engine", cfg.Engine),
		zap.String("driver", cfg.Engines[cfg.Engine].Driver),
		zap.String("ns_conventions", cfg.Conventions.NS),
		zap.String("ew_conventions", cfg.Conventions.EW),
	)

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("config", diag.Classify(err), "first error", &start, zap.Error(err))
		if errors.Is(err, contract.ErrConfig) {
			return exitConfig
		}
		return exitRun
	}

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	set.CorrID = corrID
	set.Term = diag.NewTerminal(stderr, f.status)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	stats, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		logger.Error("cli", diag.Classify(err), "first error", &start, zap.Error(err))
		if !errors.Is(err, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", err)
		}
		return exitRun
	}
	// 汇总行：输出写到 STDOUT 时改走 stderr，避免混入 PBN
	sum := stdout
	if set.Output == "-" && !set.DryRun {
		sum = stderr
	}
	fprintf(sum, "处理 %d 副牌，生成叫牌 %d，失败 %d\n", stats.DealsProcessed, stats.AuctionsGenerated, stats.Errors)
	return exitOK
}

// cliOverlay 把显式旗标转为 Config 覆盖；零值视为未设置。
func cliOverlay(f cliFlags) cfgpkg.Config {
	over := cfgpkg.Config{
		Input:   f.input,
		Output:  f.output,
		DryRun:  f.dryRun,
		Threads: f.threads,
		Engine:  f.engine,
		Wrapper: f.wrapper,
		MaxBids: f.maxBids,
	}
	over.Conventions.NS = f.nsConv
	over.Conventions.EW = f.ewConv
	over.Logging.Dir = f.logDir
	if f.verbose > 0 {
		over.Logging.Level = "debug"
	}
	return over
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	_, _ = io.WriteString(w, "有效配置:\n")
	_, err = w.Write(b)
	return err
}

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, defaultConf), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	// .env 模板失败不影响主流程
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

// writeConfig 写出 YAML 配置；已存在的文件不覆盖。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.Write(b)
	return err
}

// loadDotEnv 读取简单的 .env 文件格式并注入进程环境。
// 规则：
// - 忽略不存在的文件；无法读取时返回错误（但调用处可忽略）。
// - 跳过空行与以 # 开头的行；支持可选的前缀 "export "。
// - 仅按首个 '=' 分割；若 value 被成对的单/双引号包裹，则去除外层引号。
// - 不覆盖已存在的环境变量（保持系统/调用者优先）。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 {
			if (val[0] == '\'' && val[len(val)-1] == '\'') || (val[0] == '"' && val[len(val)-1] == '"') {
				val = val[1 : len(val)-1]
			}
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# bba .env 模板（由 --init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > YAML\n")
	b.WriteString("# 空值表示未设置。\n\n")

	b.WriteString("# 配置来源\n")
	b.WriteString("BBA_CONFIG_FILE=\n\n")

	b.WriteString("# 运行参数覆盖\n")
	for _, k := range []string{"INPUT", "OUTPUT", "DRY_RUN", "THREADS", "NS_CONVENTIONS", "EW_CONVENTIONS", "ENGINE", "WRAPPER", "MAX_BIDS"} {
		b.WriteString("BBA_" + k + "=\n")
	}
	b.WriteString("\n# 日志\nBBA_LOG_LEVEL=\nBBA_LOG_DIR=\n\n")
	b.WriteString("# 组件选择\nBBA_COMPONENTS_READER=\nBBA_COMPONENTS_WRITER=\n\n")
	b.WriteString("# 引擎定义覆盖（<name> 为 engines 下的键）\n")
	b.WriteString("BBA_ENGINES__subprocess__DRIVER=\n")
	b.WriteString("BBA_ENGINES__subprocess__OPTIONS_YAML=\n")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}
