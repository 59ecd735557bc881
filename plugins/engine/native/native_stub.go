//go:build !epbot || !cgo

package native

import (
	"fmt"

	"bba/pkg/contract"
	"bba/plugins/engine/handle"
)

// API 在未启用 epbot 构建标签（或无 cgo）时不可用。
func API(opts *Options) (handle.API, error) {
	return nil, fmt.Errorf("%w: native engine not built (rebuild with -tags epbot and cgo enabled)%s", contract.ErrEngineUnavailable, opts.hint())
}
