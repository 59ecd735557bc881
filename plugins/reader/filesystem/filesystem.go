package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"bba/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `yaml:"buf_size"`
}

// FileSystem 实现基于文件系统与 STDIN 的 Reader。
type FileSystem struct {
	bufSize int
	stdin   io.ReadCloser
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	b := defaultBuf
	if opts != nil && opts.BufSize > 0 {
		b = opts.BufSize
	}
	return &FileSystem{bufSize: b, stdin: os.Stdin}
}

// Open 打开单个输入；src 为 "-" 时读取 STDIN。
// 只接受常规文件（允许指向常规文件的符号链接）。
func (r *FileSystem) Open(ctx context.Context, src string) (contract.FileID, io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	default:
	}
	if src == "-" {
		// STDIN 不由我们关闭
		return contract.FileID("stdin"), newBufferedCloser(io.NopCloser(r.stdin), r.bufSize), nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%w: %s is not a regular file", contract.ErrPathInvalid, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return "", nil, err
	}
	return contract.NormalizeFileID(src), newBufferedCloser(f, r.bufSize), nil
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

var _ contract.Reader = (*FileSystem)(nil)
