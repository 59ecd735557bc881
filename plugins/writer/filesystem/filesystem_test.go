package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bba/pkg/contract"
)

func noTemps(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".bba-tmp-") {
			t.Fatalf("tmp file not cleaned: %s", e.Name())
		}
	}
}

// TestWriteAtomic 原子写入并创建父目录
func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	w, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dest := filepath.Join(dir, "sub", "out.pbn")
	if err := w.Write(context.Background(), contract.ArtifactID(dest), bytes.NewBufferString("data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != "data" {
		t.Fatalf("unexpected file %v %q", err, string(b))
	}
	noTemps(t, filepath.Dir(dest))
}

// 当目标已存在时，原子写应替换为新内容。
func TestWriteAtomicReplaceExisting(t *testing.T) {
	dir := t.TempDir()
	dest := contract.ArtifactID(filepath.Join(dir, "out.pbn"))
	w, _ := New(nil)
	for _, v := range []string{"v1", "v2"} {
		if err := w.Write(context.Background(), dest, bytes.NewBufferString(v)); err != nil {
			t.Fatalf("write %s: %v", v, err)
		}
	}
	b, _ := os.ReadFile(string(dest))
	if string(b) != "v2" {
		t.Fatalf("expect replaced content v2, got %q", string(b))
	}
	noTemps(t, dir)
}

// TestWriteNonAtomic 非原子写入
func TestWriteNonAtomic(t *testing.T) {
	dir := t.TempDir()
	a := false
	w, _ := New(&Options{Atomic: &a})
	dest := filepath.Join(dir, "out.pbn")
	if err := w.Write(context.Background(), contract.ArtifactID(dest), bytes.NewBufferString("v")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("file not created")
	}
}

// TestWriteStdout "-" 写到 STDOUT
func TestWriteStdout(t *testing.T) {
	w, _ := New(nil)
	var buf bytes.Buffer
	w.stdout = &buf
	if err := w.Write(context.Background(), "-", strings.NewReader("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "x" {
		t.Fatalf("stdout 内容不符: %q", buf.String())
	}
}

// TestWritePathInvalid 非法目标
func TestWritePathInvalid(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(nil)
	for _, id := range []string{"", ".", dir, dir + "/"} {
		err := w.Write(context.Background(), contract.ArtifactID(id), bytes.NewBufferString("x"))
		if !errors.Is(err, contract.ErrPathInvalid) {
			t.Fatalf("id %q expect path invalid, got %v", id, err)
		}
	}
}

// TestWriteCtxCancel 上下文取消
func TestWriteCtxCancel(t *testing.T) {
	w, _ := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, contract.ArtifactID(filepath.Join(t.TempDir(), "a.pbn")), strings.NewReader("data")); err == nil {
		t.Fatalf("expect ctx error")
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errors.New("boom") }

// TestWriteAtomicCopyError 原子写入时拷贝失败，不留临时文件也不产生目标
func TestWriteAtomicCopyError(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(nil)
	if err := w.Write(context.Background(), contract.ArtifactID(filepath.Join(dir, "a.pbn")), errReader{}); err == nil {
		t.Fatalf("expect copy error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp files left %v", entries)
	}
}
