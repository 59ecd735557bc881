package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bba/pkg/pbn"
)

const (
	deal1 = "N:.63.AKQ987.A9732 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85"
	deal2 = "N:AKQJ.AKQ.AKQ.AKQ T987.JT9.JT9.JT9 6543.876.876.876 2.5432.5432.5432"
	deal3 = "N:AKQJT98765432... .AKQJT98765432.. ..AKQJT98765432. ...AKQJT98765432"
	deal4 = "N:...AKQJT98765432 AKQJT98765432... .AKQJT98765432.. ..AKQJT98765432."
)

func record(board, deal, auction string) string {
	var b strings.Builder
	b.WriteString("[Board \"" + board + "\"]\n")
	b.WriteString("[Deal \"" + deal + "\"]\n")
	if auction != "" {
		b.WriteString("[Auction \"N\"]\n" + auction + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func parse(t *testing.T, s string) []*pbn.GameRecord {
	t.Helper()
	recs, err := pbn.ParseString(s)
	require.NoError(t, err)
	return recs
}

func TestNormalizeBid(t *testing.T) {
	cases := map[string]string{
		"1n":   "1NT",
		"7N":   "7NT",
		"3nt":  "3NT",
		"pass": "PASS",
		" x ":  "X",
		"8N":   "8N",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBid(in), in)
	}
}

func TestMatch(t *testing.T) {
	k, pos := Match([]string{"1N", "Pass"}, []string{"1NT", "pass"})
	assert.Equal(t, Full, k)
	assert.Equal(t, -1, pos)

	k, pos = Match([]string{"1C", "1D"}, []string{"1C", "1H"})
	assert.Equal(t, BidDiffers, k)
	assert.Equal(t, 1, pos)

	k, pos = Match([]string{"1C"}, []string{"1C", "Pass"})
	assert.Equal(t, LengthDiffers, k)
	assert.Equal(t, 1, pos)
}

func TestAuctions(t *testing.T) {
	a := parse(t, record("1", deal1, "1C Pass Pass Pass")+
		record("2", deal2, "2C Pass 2D Pass")+
		record("3", deal3, "1N Pass")+
		record("4", "W:bad", "Pass"))
	b := parse(t, record("1", deal1, "1c pass pass pass")+
		record("2", deal2, "2C Pass 2H Pass")+
		record("3", deal3, "1NT Pass Pass Pass")+
		record("9", deal4, "Pass Pass Pass Pass"))

	r := Auctions(a, b)
	assert.Equal(t, 3, r.DealsA)
	assert.Equal(t, 4, r.DealsB)
	assert.Equal(t, 3, r.Common)
	assert.Equal(t, 0, r.OnlyA)
	assert.Equal(t, 1, r.OnlyB)
	assert.Equal(t, 1, r.Full)
	assert.Equal(t, 1, r.BidDiffers)
	assert.Equal(t, 1, r.LengthDiffers)
	assert.Equal(t, map[int]int{2: 1}, r.Positions)
	require.Len(t, r.Diffs, 2)
	assert.Equal(t, "2", r.Diffs[0].Board)
	assert.Equal(t, BidDiffers, r.Diffs[0].Kind)
	assert.Equal(t, "3", r.Diffs[1].Board)
	assert.Equal(t, LengthDiffers, r.Diffs[1].Kind)
}

func TestAuctions_MatchesByDealNotBoard(t *testing.T) {
	a := parse(t, record("1", deal1, "1C Pass Pass Pass"))
	b := parse(t, record("17", deal1, "1C Pass Pass Pass")+record("1", deal2, "Pass"))
	r := Auctions(a, b)
	assert.Equal(t, 1, r.Common)
	assert.Equal(t, 1, r.Full)
	assert.Empty(t, r.Diffs)
}

func TestReportWrite(t *testing.T) {
	a := parse(t, record("2", deal2, "2C Pass 2D Pass"))
	b := parse(t, record("2", deal2, "2C Pass 2H Pass"))
	var sb strings.Builder
	require.NoError(t, Auctions(a, b).Write(&sb, "a.pbn", "b.pbn", 10))
	out := sb.String()
	assert.Contains(t, out, "文件 A: 1 副 (a.pbn)")
	assert.Contains(t, out, "叫品不同     1 (100.0%)")
	assert.Contains(t, out, "位置 2: 1")
	assert.Contains(t, out, "位置 2: 2D vs 2H")

	sb.Reset()
	require.NoError(t, Report{}.Write(&sb, "x", "y", 10))
	assert.Contains(t, sb.String(), "完全一致     0 (-)")
}
