package config

import "gopkg.in/yaml.v3"

// Config: 运行期只读配置（一次解析，运行期不变）。
// YAML 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input: 输入 PBN 文件；"-" 表示 STDIN。
	Input string `yaml:"input"`
	// Output: 输出 PBN 文件；"-" 表示 STDOUT。dry_run 时可为空。
	Output string `yaml:"output"`
	DryRun bool   `yaml:"dry_run"`
	// Threads: 预留；必须 >=1，>1 时仅告警，仍按顺序处理。
	Threads     int         `yaml:"threads"`
	Conventions Conventions `yaml:"conventions"`

	// 引擎选择与定义。
	Engine  string               `yaml:"engine"`
	Engines map[string]EngineDef `yaml:"engines"`
	// Wrapper/MaxBids: 便捷覆盖，装配时写入所选引擎的 options（path / max_bids）。
	Wrapper string `yaml:"wrapper"`
	MaxBids int    `yaml:"max_bids"`

	Logging Logging `yaml:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `yaml:"components"`
	// 各组件 Options 子树，原样传入工厂。
	Options Options `yaml:"options"`
}

// Conventions: 两方约定文件路径；均可为空。
type Conventions struct {
	NS string `yaml:"ns"`
	EW string `yaml:"ew"`
}

// Logging: 日志等级与可选文件目录（设置后写入轮转 JSON 日志）。
type Logging struct {
	Level    string `yaml:"level"`
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader string `yaml:"reader"`
	Writer string `yaml:"writer"`
}

// Options: 各组件的原样 YAML Options。
type Options struct {
	Reader yaml.Node `yaml:"reader"`
	Writer yaml.Node `yaml:"writer"`
}

// EngineDef: 命名引擎定义（driver 实现 + options）。
type EngineDef struct {
	Driver  string    `yaml:"driver"`
	Options yaml.Node `yaml:"options"`
}
