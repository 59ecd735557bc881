package pbn

import (
	"fmt"
	"math/bits"
	"strings"

	"bba/pkg/contract"
)

// Suit 顺序与 PBN 牌面一致：黑桃、红心、方块、梅花。
const (
	Spades = iota
	Hearts
	Diamonds
	Clubs
)

// 牌点由高到低；位 12 为 A，位 0 为 2。
const ranks = "AKQJT98765432"

// Deal: 52 张牌的分布及牌面文本的起始座位；解析后不可变。
type Deal struct {
	First contract.Seat
	hands [4][4]uint16 // [座位][花色] 牌点位集
}

// Holding 返回某座位某花色的牌点位集（位 12 为 A）。
func (d *Deal) Holding(seat contract.Seat, suit int) uint16 {
	return d.hands[seat][suit]
}

// ParseDeal 解析 Deal 标签值 "F:S.H.D.C S.H.D.C S.H.D.C S.H.D.C"。
// 手牌自 F 起顺时针排列；每手必须 13 张，四手合计 52 张互不重复。
func ParseDeal(s string) (*Deal, error) {
	s = strings.TrimSpace(s)
	head, body, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing first-seat prefix in %q", contract.ErrDealFormat, s)
	}
	first, ok := contract.ParseSeat(head)
	if !ok {
		return nil, fmt.Errorf("%w: invalid first seat %q", contract.ErrDealFormat, head)
	}
	hands := strings.Fields(body)
	if len(hands) != 4 {
		return nil, fmt.Errorf("%w: want 4 hands, got %d", contract.ErrDealFormat, len(hands))
	}
	d := &Deal{First: first}
	var seen [4]uint16
	seat := first
	for _, h := range hands {
		if err := d.parseHand(seat, h, &seen); err != nil {
			return nil, err
		}
		seat = seat.Next()
	}
	return d, nil
}

func (d *Deal) parseHand(seat contract.Seat, h string, seen *[4]uint16) error {
	suits := strings.Split(h, ".")
	if len(suits) != 4 {
		return fmt.Errorf("%w: hand %s %q: want 4 suits", contract.ErrDealFormat, seat, h)
	}
	count := 0
	for si, cards := range suits {
		if cards == "-" {
			continue
		}
		cards = strings.ReplaceAll(strings.ToUpper(cards), "10", "T")
		for _, c := range cards {
			i := strings.IndexRune(ranks, c)
			if i < 0 {
				return fmt.Errorf("%w: hand %s: invalid rank %q", contract.ErrDealFormat, seat, c)
			}
			bit := uint16(1) << (12 - i)
			if seen[si]&bit != 0 {
				return fmt.Errorf("%w: duplicate card %c%c", contract.ErrDealFormat, "SHDC"[si], c)
			}
			seen[si] |= bit
			d.hands[seat][si] |= bit
			count++
		}
	}
	if count != 13 {
		return fmt.Errorf("%w: hand %s has %d cards", contract.ErrDealFormat, seat, count)
	}
	return nil
}

// String 渲染规范形式：大写、牌点降序、自 First 起顺时针。
func (d *Deal) String() string {
	var sb strings.Builder
	sb.WriteString(d.First.Code())
	sb.WriteByte(':')
	seat := d.First
	for i := 0; i < 4; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for si := 0; si < 4; si++ {
			if si > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(holdingString(d.hands[seat][si]))
		}
		seat = seat.Next()
	}
	return sb.String()
}

// Cards 返回某座位手牌张数。
func (d *Deal) Cards(seat contract.Seat) int {
	n := 0
	for _, h := range d.hands[seat] {
		n += bits.OnesCount16(h)
	}
	return n
}

func holdingString(h uint16) string {
	var sb strings.Builder
	for i := 0; i < len(ranks); i++ {
		if h&(uint16(1)<<(12-i)) != 0 {
			sb.WriteByte(ranks[i])
		}
	}
	return sb.String()
}
