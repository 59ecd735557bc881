package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"bba/internal/pipeline"
	"bba/pkg/contract"
	"bba/pkg/registry"
)

// DefaultWrapperName 为未配置 path 时在可执行文件同目录查找的包装程序名。
const DefaultWrapperName = "epbot-wrapper"

// Validate 对最小必要边界做静态校验；失败均包装 contract.ErrConfig。
func Validate(cfg Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("%w: %v", contract.ErrConfig, err)
	}
	return nil
}

func validate(cfg Config) error {
	in := strings.TrimSpace(cfg.Input)
	if in == "" {
		return errors.New("input not set")
	}
	if in != "-" {
		if err := fileExists(in); err != nil {
			return fmt.Errorf("input file: %w", err)
		}
	}
	if !cfg.DryRun && strings.TrimSpace(cfg.Output) == "" {
		return errors.New("output not set (use --dry-run to skip writing)")
	}
	if cfg.Threads < 1 {
		return errors.New("threads must be >= 1")
	}
	if cfg.MaxBids < 0 {
		return errors.New("max_bids must be >= 0")
	}
	if p := strings.TrimSpace(cfg.Conventions.NS); p != "" {
		if err := fileExists(p); err != nil {
			return fmt.Errorf("ns conventions: %w", err)
		}
	}
	if p := strings.TrimSpace(cfg.Conventions.EW); p != "" {
		if err := fileExists(p); err != nil {
			return fmt.Errorf("ew conventions: %w", err)
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q invalid", cfg.Logging.Level)
	}
	if cfg.Engine == "" {
		return errors.New("engine not set")
	}
	def, ok := cfg.Engines[cfg.Engine]
	if !ok {
		return fmt.Errorf("engine %q not defined", cfg.Engine)
	}
	if def.Driver == "" {
		return fmt.Errorf("engine %q missing driver", cfg.Engine)
	}
	if registry.Engines[def.Driver] == nil {
		return fmt.Errorf("engine driver %q not registered", def.Driver)
	}
	if name := effName(cfg.Components.Reader, Defaults().Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("reader %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, Defaults().Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("writer %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传原样 YAML（已套用 wrapper/max_bids 覆盖）。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	wn := effName(cfg.Components.Writer, d.Components.Writer)

	rraw, err := nodeBytes(&cfg.Options.Reader, nil)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	r, err := registry.Reader[rn](rraw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	wraw, err := nodeBytes(&cfg.Options.Writer, nil)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	w, err := registry.Writer[wn](wraw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	def := cfg.Engines[cfg.Engine]
	eraw, err := nodeBytes(&def.Options, enginePatch(cfg, def))
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	eng, err := registry.Engines[def.Driver](eraw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	comp := pipeline.Components{Reader: r, Engine: eng, Writer: w}
	set := pipeline.Settings{
		Input:      strings.TrimSpace(cfg.Input),
		Output:     strings.TrimSpace(cfg.Output),
		DryRun:     cfg.DryRun,
		EngineName: cfg.Engine,
	}
	if p := strings.TrimSpace(cfg.Conventions.NS); p != "" {
		_ = set.Conventions.Set(contract.SideNS, p)
	}
	if p := strings.TrimSpace(cfg.Conventions.EW); p != "" {
		_ = set.Conventions.Set(contract.SideEW, p)
	}
	return comp, set, nil
}

// enginePatch: 顶层便捷项映射到驱动 options 键。
func enginePatch(cfg Config, def EngineDef) map[string]any {
	patch := map[string]any{}
	switch def.Driver {
	case "subprocess":
		if cfg.Wrapper != "" {
			patch["path"] = cfg.Wrapper
		} else if !hasKey(&def.Options, "path") {
			patch["path"] = DefaultWrapperPath()
		}
	case "native", "mock":
		if cfg.MaxBids > 0 {
			patch["max_bids"] = cfg.MaxBids
		}
	}
	return patch
}

// DefaultWrapperPath 返回可执行文件同目录下的包装程序路径；无法定位时退化为裸名（走 PATH 查找）。
func DefaultWrapperPath() string {
	name := DefaultWrapperName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// nodeBytes 将 options 子树序列化为 YAML，并套用 patch 中的键。
func nodeBytes(n *yaml.Node, patch map[string]any) ([]byte, error) {
	if n.Kind == 0 && len(patch) == 0 {
		return nil, nil
	}
	var m map[string]any
	if n.Kind != 0 {
		if err := n.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: options: %v", contract.ErrConfig, err)
		}
	}
	if m == nil {
		m = map[string]any{}
	}
	for k, v := range patch {
		m[k] = v
	}
	if len(m) == 0 {
		return nil, nil
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: options: %v", contract.ErrConfig, err)
	}
	return b, nil
}

func hasKey(n *yaml.Node, key string) bool {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key && strings.TrimSpace(n.Content[i+1].Value) != "" {
			return true
		}
	}
	return false
}

func fileExists(p string) error {
	st, err := os.Stat(p)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
