package pipeline

import (
	"fmt"
	"strings"

	"bba/pkg/contract"
	"bba/pkg/pbn"
)

// Failure: 一个失败请求的定位与诊断（供日志使用）。
type Failure struct {
	Record     int
	Request    int
	Diagnostic string
	Err        error
}

// Reconcile 按位置同步遍历请求与结果，将成功结果写回原记录。
// 成功：upsert Auction=发牌人代码，并追加叫牌正文（每行四个叫品）；
// 失败：Errors++，记录不变。
// 三个序列长度必须一致，否则返回 ErrInvariantViolation 且不修改任何记录。
func Reconcile(recs []*pbn.GameRecord, origin []int, reqs []contract.AuctionRequest, results []contract.AuctionResult) (contract.Stats, []Failure, error) {
	var st contract.Stats
	if len(origin) != len(reqs) || len(results) != len(reqs) {
		return st, nil, fmt.Errorf("%w: requests=%d origin=%d results=%d",
			contract.ErrInvariantViolation, len(reqs), len(origin), len(results))
	}
	for _, ri := range origin {
		if ri < 0 || ri >= len(recs) {
			return st, nil, fmt.Errorf("%w: origin index %d out of range", contract.ErrInvariantViolation, ri)
		}
	}
	st.DealsProcessed = len(reqs)
	var fails []Failure
	for i, res := range results {
		g := recs[origin[i]]
		if !res.Success {
			st.Errors++
			fails = append(fails, Failure{Record: origin[i], Request: i, Diagnostic: res.Diagnostic, Err: res.Err})
			continue
		}
		st.AuctionsGenerated++
		g.SetTag("Auction", reqs[i].Dealer.Code())
		for _, line := range FormatAuction(res.Bids) {
			g.AppendLine(line)
		}
	}
	return st, fails, nil
}

// FormatAuction 每四个叫品一行（空格分隔），余数单独成行。
func FormatAuction(bids []string) []string {
	var lines []string
	for i := 0; i < len(bids); i += 4 {
		end := i + 4
		if end > len(bids) {
			end = len(bids)
		}
		lines = append(lines, strings.Join(bids[i:end], " "))
	}
	return lines
}
