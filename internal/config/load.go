package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bba/pkg/contract"
)

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Threads: 1,
		Engine:  "subprocess",
		Engines: map[string]EngineDef{
			"native":     {Driver: "native"},
			"subprocess": {Driver: "subprocess"},
			"mock":       {Driver: "mock"},
		},
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader: "fs",
			Writer: "fs",
		},
	}
}

// Load 从文件路径或原始 YAML 解析 Config（严格拒绝未知字段）。
func Load(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", contract.ErrConfig, err)
		}
		defer f.Close()
		r = f
	default:
		return cfg, fmt.Errorf("%w: no config source provided", contract.ErrConfig)
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %v", contract.ErrConfig, err)
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量/字符串空值不覆盖；engines 按名称逐字段覆盖；options 子树整体替换，不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.Input); s != "" {
		out.Input = s
	}
	if s := strings.TrimSpace(over.Output); s != "" {
		out.Output = s
	}
	if over.DryRun {
		out.DryRun = true
	}
	if over.Threads != 0 {
		out.Threads = over.Threads
	}
	if s := strings.TrimSpace(over.Conventions.NS); s != "" {
		out.Conventions.NS = s
	}
	if s := strings.TrimSpace(over.Conventions.EW); s != "" {
		out.Conventions.EW = s
	}
	if s := strings.TrimSpace(over.Engine); s != "" {
		out.Engine = s
	}
	if len(over.Engines) > 0 {
		m := make(map[string]EngineDef, len(out.Engines)+len(over.Engines))
		for k, v := range out.Engines {
			m[k] = v
		}
		for k, v := range over.Engines {
			// 字段级覆盖：空 driver / 缺失 options 保留原值
			cur := m[k]
			if strings.TrimSpace(v.Driver) != "" {
				cur.Driver = strings.TrimSpace(v.Driver)
			}
			if v.Options.Kind != 0 {
				cur.Options = v.Options
			}
			m[k] = cur
		}
		out.Engines = m
	}
	if s := strings.TrimSpace(over.Wrapper); s != "" {
		out.Wrapper = s
	}
	if over.MaxBids != 0 {
		out.MaxBids = over.MaxBids
	}

	// Logging
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}
	if over.Logging.MaxBytes != 0 {
		out.Logging.MaxBytes = over.Logging.MaxBytes
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if over.Options.Reader.Kind != 0 {
		out.Options.Reader = over.Options.Reader
	}
	if over.Options.Writer.Kind != 0 {
		out.Options.Writer = over.Options.Writer
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 BBA_；集合之外的键忽略。
// 支持：INPUT, OUTPUT, DRY_RUN, THREADS, NS_CONVENTIONS, EW_CONVENTIONS, ENGINE, WRAPPER,
// MAX_BIDS, LOG_LEVEL, LOG_DIR, COMPONENTS_*
// 以及 ENGINES__<name>__DRIVER / ENGINES__<name>__OPTIONS_YAML
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	engines := map[string]EngineDef{}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "BBA_") {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len("BBA_") {
			continue
		}
		nk := strings.TrimPrefix(kv[:eq], "BBA_")
		val := kv[eq+1:]
		switch nk {
		case "INPUT":
			over.Input = strings.TrimSpace(val)
		case "OUTPUT":
			over.Output = strings.TrimSpace(val)
		case "DRY_RUN":
			if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
				over.DryRun = b
			}
		case "THREADS":
			if v, err := atoi(val); err == nil {
				over.Threads = v
			}
		case "NS_CONVENTIONS":
			over.Conventions.NS = strings.TrimSpace(val)
		case "EW_CONVENTIONS":
			over.Conventions.EW = strings.TrimSpace(val)
		case "ENGINE":
			over.Engine = strings.TrimSpace(val)
		case "WRAPPER":
			over.Wrapper = strings.TrimSpace(val)
		case "MAX_BIDS":
			if v, err := atoi(val); err == nil {
				over.MaxBids = v
			}
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "LOG_DIR":
			over.Logging.Dir = strings.TrimSpace(val)
		case "COMPONENTS_READER":
			over.Components.Reader = strings.TrimSpace(val)
		case "COMPONENTS_WRITER":
			over.Components.Writer = strings.TrimSpace(val)
		default:
			// engines.* 路径：ENGINES__name__FIELD
			if !strings.HasPrefix(nk, "ENGINES__") {
				continue
			}
			parts := strings.Split(nk, "__")
			if len(parts) != 3 || strings.TrimSpace(parts[1]) == "" {
				continue
			}
			name := strings.TrimSpace(parts[1])
			def := engines[name]
			switch parts[2] {
			case "DRIVER":
				if tv := strings.TrimSpace(val); tv != "" {
					def.Driver = tv
					engines[name] = def
				}
			case "OPTIONS_YAML":
				// 空值视为未设置，避免清空现有配置
				if strings.TrimSpace(val) == "" {
					continue
				}
				var n yaml.Node
				if err := yaml.Unmarshal([]byte(val), &n); err != nil {
					return Config{}, fmt.Errorf("%w: %s: %v", contract.ErrConfig, kv[:eq], err)
				}
				def.Options = n
				engines[name] = def
			}
		}
	}
	if len(engines) > 0 {
		over.Engines = engines
	}
	return over, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
