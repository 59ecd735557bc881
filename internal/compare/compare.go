// Package compare 对比两份 PBN 中同一牌面的叫牌序列。
package compare

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"bba/pkg/pbn"
)

// Kind 为一对叫牌序列的匹配类型。
type Kind int

const (
	// Full: 规范化后完全一致。
	Full Kind = iota
	// BidDiffers: 在某一位置叫品不同。
	BidDiffers
	// LengthDiffers: 一方是另一方的前缀。
	LengthDiffers
)

func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case BidDiffers:
		return "bid"
	case LengthDiffers:
		return "length"
	default:
		return "unknown"
	}
}

// Difference: 一副不一致的牌。
type Difference struct {
	Board string
	Deal  string
	A, B  []string
	// Pos: 首个不同位置（0 为开叫）；LengthDiffers 时为较短序列的长度。
	Pos  int
	Kind Kind
}

// Report 汇总对比结果；统计按 A 的记录顺序累计。
type Report struct {
	DealsA, DealsB       int
	Common, OnlyA, OnlyB int
	Full, BidDiffers     int
	LengthDiffers        int
	// Positions: BidDiffers 的首差位置分布。
	Positions map[int]int
	Diffs     []Difference
}

// Compared 返回参与比较的记录数（A 中牌面同时出现在 B 的记录）。
func (r Report) Compared() int { return r.Full + r.BidDiffers + r.LengthDiffers }

type entry struct {
	board string
	deal  string
	bids  []string
}

// collect 取出含已解析牌面的记录；键为规范牌面串。
func collect(recs []*pbn.GameRecord) []entry {
	var out []entry
	for _, g := range recs {
		if g == nil || g.Deal == nil {
			continue
		}
		board, _ := g.Tag("Board")
		bids, _ := g.AuctionBids()
		out = append(out, entry{board: board, deal: g.Deal.String(), bids: bids})
	}
	return out
}

// Auctions 以牌面为键对比两组记录；同一文件内重复牌面以最后一条为准。
func Auctions(a, b []*pbn.GameRecord) Report {
	ea, eb := collect(a), collect(b)
	byA := make(map[string]entry, len(ea))
	for _, e := range ea {
		byA[e.deal] = e
	}
	byB := make(map[string]entry, len(eb))
	for _, e := range eb {
		byB[e.deal] = e
	}
	r := Report{DealsA: len(ea), DealsB: len(eb), Positions: map[int]int{}}
	for k := range byA {
		if _, ok := byB[k]; ok {
			r.Common++
		} else {
			r.OnlyA++
		}
	}
	for k := range byB {
		if _, ok := byA[k]; !ok {
			r.OnlyB++
		}
	}
	for _, e := range ea {
		other, ok := byB[e.deal]
		if !ok {
			continue
		}
		kind, pos := Match(e.bids, other.bids)
		switch kind {
		case Full:
			r.Full++
			continue
		case BidDiffers:
			r.BidDiffers++
			r.Positions[pos]++
		case LengthDiffers:
			r.LengthDiffers++
		}
		r.Diffs = append(r.Diffs, Difference{Board: e.board, Deal: e.deal, A: e.bids, B: other.bids, Pos: pos, Kind: kind})
	}
	return r
}

// Match 规范化后比较两条叫牌序列；Full 时位置为 -1。
func Match(a, b []string) (Kind, int) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if NormalizeBid(a[i]) != NormalizeBid(b[i]) {
			return BidDiffers, i
		}
	}
	if len(a) == len(b) {
		return Full, -1
	}
	return LengthDiffers, n
}

// NormalizeBid 大写化，并将 1N…7N 统一为 1NT…7NT。
func NormalizeBid(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 2 && s[0] >= '1' && s[0] <= '7' && s[1] == 'N' {
		return s + "T"
	}
	return s
}

// Write 以文本形式输出报告；samples 为样例差异条数上限。
func (r Report) Write(w io.Writer, nameA, nameB string, samples int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "文件 A: %d 副 (%s)\n", r.DealsA, nameA)
	fmt.Fprintf(&b, "文件 B: %d 副 (%s)\n", r.DealsB, nameB)
	fmt.Fprintf(&b, "共同牌面 %d | 仅 A %d | 仅 B %d\n\n", r.Common, r.OnlyA, r.OnlyB)
	total := r.Compared()
	fmt.Fprintf(&b, "完全一致  %4d (%s)\n", r.Full, pct(r.Full, total))
	fmt.Fprintf(&b, "叫品不同  %4d (%s)\n", r.BidDiffers, pct(r.BidDiffers, total))
	fmt.Fprintf(&b, "长度不同  %4d (%s)\n", r.LengthDiffers, pct(r.LengthDiffers, total))
	if len(r.Positions) > 0 {
		b.WriteString("\n首差位置（0 = 开叫）:\n")
		pos := make([]int, 0, len(r.Positions))
		for p := range r.Positions {
			pos = append(pos, p)
		}
		sort.Ints(pos)
		for _, p := range pos {
			fmt.Fprintf(&b, "  位置 %d: %d\n", p, r.Positions[p])
		}
	}
	if samples > 0 && len(r.Diffs) > 0 {
		b.WriteString("\n样例差异:\n")
		for i, d := range r.Diffs {
			if i >= samples {
				break
			}
			fmt.Fprintf(&b, "  Board %s\n", d.Board)
			fmt.Fprintf(&b, "    A: %s\n", strings.Join(d.A, " "))
			fmt.Fprintf(&b, "    B: %s\n", strings.Join(d.B, " "))
			if d.Kind == BidDiffers {
				fmt.Fprintf(&b, "    位置 %d: %s vs %s\n", d.Pos, d.A[d.Pos], d.B[d.Pos])
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pct(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
