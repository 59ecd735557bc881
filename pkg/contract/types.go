package contract

import (
	"fmt"
	"strings"
)

// FileID: 逻辑文档ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Seat: 四个固定座位，按顺时针排列；零值为北（默认发牌人）。
type Seat int

const (
	North Seat = iota
	East
	South
	West
)

// Seats 按顺时针顺序列出全部座位。
var Seats = [4]Seat{North, East, South, West}

// Code 返回单字母座位代码（N/E/S/W）。
func (s Seat) Code() string {
	switch s {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}

func (s Seat) String() string { return s.Code() }

// Next 返回顺时针下一个座位。
func (s Seat) Next() Seat { return Seat((int(s) + 1) % 4) }

// ParseSeat 解析单字母座位代码（忽略首尾空白与大小写）。
func ParseSeat(s string) (Seat, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N":
		return North, true
	case "E":
		return East, true
	case "S":
		return South, true
	case "W":
		return West, true
	default:
		return North, false
	}
}

// Vulnerability: 局况（四种取值）；零值为双方无局。
type Vulnerability int

const (
	VulNone Vulnerability = iota
	VulNorthSouth
	VulEastWest
	VulBoth
)

// Code 返回规范短代码（None/NS/EW/Both），用于外部请求文档。
func (v Vulnerability) Code() string {
	switch v {
	case VulNorthSouth:
		return "NS"
	case VulEastWest:
		return "EW"
	case VulBoth:
		return "Both"
	default:
		return "None"
	}
}

func (v Vulnerability) String() string { return v.Code() }

// ParseVulnerability 解析 Vulnerable 标签取值（大小写不敏感）。
// 无法识别时返回 (VulNone, false)，由调用方决定是否回退。
func ParseVulnerability(s string) (Vulnerability, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE", "-", "":
		return VulNone, true
	case "NS", "N-S":
		return VulNorthSouth, true
	case "EW", "E-W":
		return VulEastWest, true
	case "BOTH", "ALL":
		return VulBoth, true
	default:
		return VulNone, false
	}
}

// Side: 搭档方（约定文件按方加载）。
type Side int

const (
	SideNS Side = iota
	SideEW
)

func (s Side) String() string {
	if s == SideEW {
		return "EW"
	}
	return "NS"
}

// AuctionRequest: 单副牌的引擎请求（构造后只读）。
// Deal 为紧凑牌面编码 "F:S.H.D.C S.H.D.C S.H.D.C S.H.D.C"。
type AuctionRequest struct {
	Deal          string
	Dealer        Seat
	Vulnerability Vulnerability
}

// AuctionResult: 单个请求的结果；与请求一一对应、顺序一致。
// 成功时 Bids 为有限的叫品序列；失败时 Diagnostic 为可读诊断，Err 携带分类哨兵。
type AuctionResult struct {
	Success    bool
	Bids       []string
	Diagnostic string
	Err        error
}

// Failed 构造失败结果；cause 应包装某个分类哨兵。
func Failed(cause error) AuctionResult {
	return AuctionResult{Diagnostic: cause.Error(), Err: cause}
}

// Succeeded 构造成功结果（拷贝 bids）。
func Succeeded(bids []string) AuctionResult {
	out := make([]string, len(bids))
	copy(out, bids)
	return AuctionResult{Success: true, Bids: out}
}

// Stats: 批处理统计；对账阶段单调累加，批结束后只读。
type Stats struct {
	DealsProcessed    int
	AuctionsGenerated int
	Errors            int
}

func (s Stats) String() string {
	return fmt.Sprintf("deals=%d auctions=%d errors=%d", s.DealsProcessed, s.AuctionsGenerated, s.Errors)
}

// Conventions: 两方约定文件路径；每方最多设置一次，批内不再校验。
type Conventions struct {
	NS string
	EW string
}

// Set 记录某一方的约定路径；同一方重复设置返回 ErrInvalidInput。
func (c *Conventions) Set(side Side, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty convention path for %s", ErrInvalidInput, side)
	}
	slot := &c.NS
	if side == SideEW {
		slot = &c.EW
	}
	if *slot != "" {
		return fmt.Errorf("%w: conventions for %s already loaded", ErrInvalidInput, side)
	}
	*slot = path
	return nil
}

// Get 返回某一方的约定路径（未设置为空串）。
func (c Conventions) Get(side Side) string {
	if side == SideEW {
		return c.EW
	}
	return c.NS
}
