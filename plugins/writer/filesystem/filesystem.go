package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bba/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。默认 true；显式 false 关闭。
	Atomic *bool `yaml:"atomic"`
	// PermFile/PermDir: 可选权限；为 0 表示使用默认（0644/0755）。
	PermFile os.FileMode `yaml:"perm_file"`
	PermDir  os.FileMode `yaml:"perm_dir"`
	// BufSize: 写缓冲区大小；<=0 使用默认 64KiB。
	BufSize int `yaml:"buf_size"`
}

// FS 将输出写到 ArtifactID 指向的文件；"-" 表示 STDOUT。
type FS struct {
	atomic  bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
	stdout  io.Writer
}

// New 创建文件系统 Writer 实现。
func New(opts *Options) (*FS, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	bsz := o.BufSize
	if bsz <= 0 {
		bsz = 64 * 1024
	}
	pf := o.PermFile
	if pf == 0 {
		pf = 0o644
	}
	pd := o.PermDir
	if pd == 0 {
		pd = 0o755
	}
	atomic := true
	if o.Atomic != nil {
		atomic = *o.Atomic
	}
	return &FS{atomic: atomic, permF: pf, permD: pd, bufSize: bsz, stdout: os.Stdout}, nil
}

var _ contract.Writer = (*FS)(nil)

// Write 将 r 的全部字节写入 id 对应的目标文件（必要时创建父目录）。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if id == "-" {
		bw := bufio.NewWriterSize(w.stdout, w.bufSize)
		if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
			return err
		}
		return bw.Flush()
	}

	dest, err := mapPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return err
	}
	if w.atomic {
		return w.writeAtomic(ctx, dest, r)
	}
	return w.writeOverwrite(ctx, dest, r)
}

// mapPath: Clean + 拒绝空路径、目录形态与已存在的目录。
func mapPath(id contract.ArtifactID) (string, error) {
	raw := strings.TrimSpace(string(id))
	if raw == "" || strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", contract.ErrPathInvalid, raw)
	}
	dest := filepath.Clean(raw)
	if dest == "." || dest == ".." || dest == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", contract.ErrPathInvalid, raw)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", contract.ErrPathInvalid, dest)
	}
	return dest, nil
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	return bw.Flush()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".bba-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：同步父目录元数据
	_ = syncDir(dir)
	return nil
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}
