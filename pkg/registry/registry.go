package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"bba/pkg/contract"
	"bba/plugins/engine/handle"
	emock "bba/plugins/engine/mock"
	"bba/plugins/engine/native"
	"bba/plugins/engine/subprocess"
	rfs "bba/plugins/reader/filesystem"
	wfs "bba/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 KnownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw []byte, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", contract.ErrConfig, err)
	}
	return nil
}

// NewReader 工厂签名：接收原样 YAML Options。
type NewReader func(raw []byte) (contract.Reader, error)

// NewWriter 工厂签名：接收原样 YAML Options。
type NewWriter func(raw []byte) (contract.Writer, error)

// NewEngine 工厂签名：接收原样 YAML Options。
type NewEngine func(raw []byte) (contract.Engine, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw []byte) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统/STDOUT Writer（覆盖写/原子替换可配置）
	"fs": func(raw []byte) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

type nativeOptions struct {
	Handle handle.Options `yaml:",inline"`
	Native native.Options `yaml:",inline"`
}

type mockOptions struct {
	Handle handle.Options `yaml:",inline"`
	Mock   emock.Options  `yaml:",inline"`
}

// Engines 引擎驱动注册表。
var Engines = map[string]NewEngine{
	// native: 进程内句柄协议（需 -tags epbot 构建）
	"native": func(raw []byte) (contract.Engine, error) {
		var opts nativeOptions
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		api, err := native.API(&opts.Native)
		if err != nil {
			return nil, err
		}
		return handle.New(api, &opts.Handle)
	},
	// mock: 句柄协议的内存实现（离线演练/测试）
	"mock": func(raw []byte) (contract.Engine, error) {
		var opts mockOptions
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return handle.New(emock.New(&opts.Mock), &opts.Handle)
	},
	// subprocess: 外部包装程序 JSON 批量交换
	"subprocess": func(raw []byte) (contract.Engine, error) {
		var opts subprocess.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return subprocess.New(&opts)
	},
}
