package pbn

import "strings"

// AuctionBids 返回 Auction 标签之后、下一个标签之前各原样行中的叫品。
// 跳过 % 注释行、{...} 注释、=N= 注解引用、$N 与结束标记 *。
// 不含 Auction 标签时 ok 为 false。
func (g *GameRecord) AuctionBids() (bids []string, ok bool) {
	for _, e := range g.entries {
		if !ok {
			if e.IsTag && strings.EqualFold(e.Name, "Auction") {
				ok = true
			}
			continue
		}
		if e.IsTag {
			break
		}
		line := strings.TrimSpace(e.Line)
		if strings.HasPrefix(line, "%") || strings.HasPrefix(line, ";") {
			continue
		}
		for _, tok := range strings.Fields(stripBraces(line)) {
			if tok == "*" || strings.HasPrefix(tok, "$") || isNoteRef(tok) {
				continue
			}
			bids = append(bids, tok)
		}
	}
	return bids, ok
}

// stripBraces 去除单行内的 {...} 注释；未闭合的 { 截断到行尾。
func stripBraces(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
			sb.WriteByte(' ')
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isNoteRef(tok string) bool {
	if len(tok) < 3 || tok[0] != '=' || tok[len(tok)-1] != '=' {
		return false
	}
	for _, c := range tok[1 : len(tok)-1] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
