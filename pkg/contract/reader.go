package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（单个文件或 STDIN）。
// 约束：
// 1) 只提供字节流，不做解析；
// 2) 返回的 FileID 规范化、去平台差异；
// 3) 调用方负责 Close。
type Reader interface {
	Open(ctx context.Context, src string) (FileID, io.ReadCloser, error)
}
