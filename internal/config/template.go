package config

import "gopkg.in/yaml.v3"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 使用 mock 引擎（本地/离线调试友好）；
// - 默认输入为 STDIN（"-"），输出到 STDOUT（"-"）；
// - 三个内置引擎定义均列出全部选项键，值为中性默认。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := Config{
		Input:      "-",
		Output:     "-",
		Threads:    d.Threads,
		Engine:     "mock",
		Logging:    Logging{Level: "info", Dir: "", MaxBytes: 0},
		Components: d.Components,
		Engines: map[string]EngineDef{
			"native": {
				Driver:  "native",
				Options: mustNode("max_bids: 100\nlibrary_dir: \"\"\n"),
			},
			"subprocess": {
				Driver:  "subprocess",
				Options: mustNode("path: \"\"\nargs: []\nenv: []\n"),
			},
			"mock": {
				Driver: "mock",
				Options: mustNode(`max_bids: 100
bids: [1C, Pass, Pass, Pass]
completion: status
never_complete: false
fail_step: ""
fail_code: 0
fail_message: ""
fail_deal: ""
create_error: false
version: ""
`),
			},
		},
	}
	cfg.Options.Reader = mustNode("buf_size: 65536\n")
	cfg.Options.Writer = mustNode("atomic: true\nperm_file: 0\nperm_dir: 0\nbuf_size: 65536\n")
	return cfg
}

func mustNode(src string) yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		panic(err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return *doc.Content[0]
	}
	return doc
}
