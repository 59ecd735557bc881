//go:build epbot && cgo

package native

/*
#cgo LDFLAGS: -lEPBotWrapper
#include <stdlib.h>
#include <stdint.h>

void*       epbot_create(void);
void        epbot_destroy(void* instance);
const char* epbot_get_last_error(void);
const char* epbot_get_version(void);
int         epbot_set_deal(void* instance, const char* deal_pbn);
int         epbot_set_dealer(void* instance, int dealer);
int         epbot_set_vulnerability(void* instance, int vul);
int         epbot_get_next_bid(void* instance, char* buffer, int buffer_size);
int         epbot_is_auction_complete(void* instance, uint8_t* is_complete);
int         epbot_load_conventions(void* instance, const char* file_path, int side);
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"

	"bba/pkg/contract"
	"bba/plugins/engine/handle"
)

const bidBufSize = 32

// binding: Go 句柄到 C 实例指针的映射表（不向 Go 侧暴露 C 指针）。
type binding struct {
	hint string
	mu   sync.Mutex
	seq  handle.Handle
	ptrs map[handle.Handle]unsafe.Pointer
}

// API 返回原生绑定的 handle.API。
func API(opts *Options) (handle.API, error) {
	return &binding{hint: opts.hint(), ptrs: map[handle.Handle]unsafe.Pointer{}}, nil
}

func (b *binding) ptr(h handle.Handle) unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ptrs[h]
}

func (b *binding) Create() (handle.Handle, error) {
	p := C.epbot_create()
	if p == nil {
		if msg := b.LastError(); msg != "" {
			return 0, errors.New(msg + b.hint)
		}
		return 0, errors.New("epbot_create returned null" + b.hint)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.ptrs[b.seq] = p
	return b.seq, nil
}

func (b *binding) Destroy(h handle.Handle) {
	b.mu.Lock()
	p, ok := b.ptrs[h]
	delete(b.ptrs, h)
	b.mu.Unlock()
	if ok {
		C.epbot_destroy(p)
	}
}

func (b *binding) LastError() string {
	if s := C.epbot_get_last_error(); s != nil {
		return C.GoString(s)
	}
	return ""
}

func (b *binding) Version() string {
	if s := C.epbot_get_version(); s != nil {
		return C.GoString(s)
	}
	return ""
}

func (b *binding) SetDeal(h handle.Handle, deal string) handle.Status {
	p := b.ptr(h)
	if p == nil {
		return handle.StatusNullHandle
	}
	cs := C.CString(deal)
	defer C.free(unsafe.Pointer(cs))
	return handle.Status(C.epbot_set_deal(p, cs))
}

func (b *binding) SetDealer(h handle.Handle, dealer contract.Seat) handle.Status {
	p := b.ptr(h)
	if p == nil {
		return handle.StatusNullHandle
	}
	return handle.Status(C.epbot_set_dealer(p, C.int(dealer)))
}

func (b *binding) SetVulnerability(h handle.Handle, v contract.Vulnerability) handle.Status {
	p := b.ptr(h)
	if p == nil {
		return handle.StatusNullHandle
	}
	return handle.Status(C.epbot_set_vulnerability(p, C.int(v)))
}

func (b *binding) LoadConventions(h handle.Handle, path string, side contract.Side) handle.Status {
	p := b.ptr(h)
	if p == nil {
		return handle.StatusNullHandle
	}
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	return handle.Status(C.epbot_load_conventions(p, cs, C.int(side)))
}

func (b *binding) NextBid(h handle.Handle) (string, handle.Status) {
	p := b.ptr(h)
	if p == nil {
		return "", handle.StatusNullHandle
	}
	var buf [bidBufSize]C.char
	st := handle.Status(C.epbot_get_next_bid(p, &buf[0], C.int(bidBufSize)))
	if st != handle.StatusOK {
		return "", st
	}
	return C.GoString(&buf[0]), st
}

func (b *binding) IsAuctionComplete(h handle.Handle) (bool, handle.Status) {
	p := b.ptr(h)
	if p == nil {
		return false, handle.StatusNullHandle
	}
	var done C.uint8_t
	st := handle.Status(C.epbot_is_auction_complete(p, &done))
	return done != 0, st
}
