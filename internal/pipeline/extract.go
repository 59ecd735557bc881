package pipeline

import (
	"bba/pkg/contract"
	"bba/pkg/pbn"
)

// Extract 为每个含已解析牌面的记录生成一个请求；origin[i] 为第 i 个请求对应的记录下标。
// Dealer 缺失或无法识别时取北；Vulnerable 缺失或无法识别时取无局。
func Extract(recs []*pbn.GameRecord) (reqs []contract.AuctionRequest, origin []int) {
	for i, g := range recs {
		if g == nil || g.Deal == nil {
			continue
		}
		reqs = append(reqs, contract.AuctionRequest{
			Deal:          g.Deal.String(),
			Dealer:        dealerOf(g),
			Vulnerability: vulnerabilityOf(g),
		})
		origin = append(origin, i)
	}
	return reqs, origin
}

func dealerOf(g *pbn.GameRecord) contract.Seat {
	v, ok := g.Tag("Dealer")
	if !ok {
		return contract.North
	}
	s, ok := contract.ParseSeat(v)
	if !ok {
		return contract.North
	}
	return s
}

func vulnerabilityOf(g *pbn.GameRecord) contract.Vulnerability {
	v, ok := g.Tag("Vulnerable")
	if !ok {
		return contract.VulNone
	}
	vul, _ := contract.ParseVulnerability(v)
	return vul
}
