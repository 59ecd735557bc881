//go:build !epbot || !cgo

package native

import (
	"errors"
	"strings"
	"testing"

	"bba/pkg/contract"
)

// TestStubUnavailable 未启用构建标签时返回 ErrEngineUnavailable。
func TestStubUnavailable(t *testing.T) {
	api, err := API(nil)
	if api != nil || !errors.Is(err, contract.ErrEngineUnavailable) {
		t.Fatalf("期望 ErrEngineUnavailable，得到 api=%v err=%v", api, err)
	}
}

// TestStubMentionsLibraryDir 配置的库目录出现在诊断中。
func TestStubMentionsLibraryDir(t *testing.T) {
	_, err := API(&Options{LibraryDir: "/opt/epbot/lib"})
	if err == nil || !strings.Contains(err.Error(), "library_dir /opt/epbot/lib") {
		t.Fatalf("诊断缺少 library_dir: %v", err)
	}
	_, err = API(&Options{})
	if err == nil || strings.Contains(err.Error(), "library_dir") {
		t.Fatalf("未配置时不应出现 library_dir: %v", err)
	}
}
