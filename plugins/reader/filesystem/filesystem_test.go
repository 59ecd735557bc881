package filesystem

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bba/pkg/contract"
)

// TestOpenSingleFile 读取单文件
func TestOpenSingleFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.pbn")
	if err := os.WriteFile(fp, []byte("[Board \"1\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(nil)
	id, rc, err := r.Open(context.Background(), fp)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "[Board \"1\"]\n" {
		t.Fatalf("内容不符: %q", b)
	}
	if id != contract.NormalizeFileID(fp) {
		t.Fatalf("file id mismatch %s", id)
	}
}

// TestOpenStdin "-" 读取 STDIN
func TestOpenStdin(t *testing.T) {
	r := New(&Options{BufSize: 16})
	r.stdin = io.NopCloser(strings.NewReader("stdin data"))
	id, rc, err := r.Open(context.Background(), "-")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if id != "stdin" || string(b) != "stdin data" {
		t.Fatalf("stdin 读取不符: id=%s data=%q", id, b)
	}
}

// TestOpenErrors 缺失文件与目录
func TestOpenErrors(t *testing.T) {
	r := New(nil)
	dir := t.TempDir()
	if _, _, err := r.Open(context.Background(), filepath.Join(dir, "missing.pbn")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("期望 ErrNotExist，得到 %v", err)
	}
	if _, _, err := r.Open(context.Background(), dir); !errors.Is(err, contract.ErrPathInvalid) {
		t.Fatalf("目录应返回 ErrPathInvalid，得到 %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := r.Open(ctx, "-"); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，得到 %v", err)
	}
}
