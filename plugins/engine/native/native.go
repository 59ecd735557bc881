// Package native 绑定 EPBot 包装库（C ABI）。需以 -tags epbot 并启用 cgo 构建。
package native

import "fmt"

// Options: 原生绑定无需额外配置；库路径由链接器/动态加载器决定。
type Options struct {
	// LibraryDir: 期望的库目录，仅出现在失败诊断中（实际搜索路径由 LD_LIBRARY_PATH/DYLD_LIBRARY_PATH 控制）。
	LibraryDir string `yaml:"library_dir"`
}

// hint 返回附加到诊断末尾的库目录说明；未配置时为空。
func (o *Options) hint() string {
	if o == nil || o.LibraryDir == "" {
		return ""
	}
	return fmt.Sprintf(" (library_dir %s)", o.LibraryDir)
}
