package pbn

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bba/pkg/contract"
)

const sampleDeal = "N:.63.AKQ987.A9732 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85"

func TestRoundTrip(t *testing.T) {
	in := strings.Join([]string{
		"% PBN 2.1",
		"[Event \"Club  Night\"]",
		"[Board \"1\"]",
		"; a comment between tags",
		"[Deal \"" + sampleDeal + "\"]",
		"",
		"[Board \"2\"]",
		"[Dealer \"E\"]",
		"%escape",
		"",
	}, "\n")
	recs, err := ParseString(in)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	if diff := cmp.Diff(in, RenderString(recs)); diff != "" {
		t.Fatalf("往返不一致 (-want +got):\n%s", diff)
	}
}

func TestParse_CRLFAndLeadingBlankLines(t *testing.T) {
	in := "\r\n\r\n[Board \"7\"]\r\n[Vulnerable \"NS\"]\r\n"
	recs, err := ParseString(in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "[Board \"7\"]\n[Vulnerable \"NS\"]\n", RenderString(recs))
}

func TestParse_DropsTaglessRecords(t *testing.T) {
	recs, err := ParseString("; only a comment\n\n[Board \"1\"]\n\n%tail\n")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	v, ok := recs[0].Tag("board")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestParse_NoTrailingNewline(t *testing.T) {
	recs, err := ParseString("[Board \"1\"]\n1C Pass")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	es := recs[0].Entries()
	require.Len(t, es, 2)
	assert.Equal(t, "1C Pass", es[1].Line)
}

func TestParse_DealErrorKeepsRecord(t *testing.T) {
	recs, err := ParseString("[Board \"1\"]\n[Deal \"N:AKQ...\"]\n")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Deal)
	require.Error(t, recs[0].DealErr)
	assert.True(t, errors.Is(recs[0].DealErr, contract.ErrDealFormat))
}

func TestTag_FirstMatchAndSetTag_LastWrite(t *testing.T) {
	recs, err := ParseString("[Note \"a\"]\n[note \"b\"]\n1C Pass\n")
	require.NoError(t, err)
	g := recs[0]
	v, _ := g.Tag("NOTE")
	assert.Equal(t, "a", v)

	g.SetTag("Note", "c")
	v, _ = g.Tag("note")
	assert.Equal(t, "c", v)
	assert.Equal(t, "[Note \"c\"]\n[note \"b\"]\n1C Pass\n", RenderString(recs))
}

// 重复的 Auction 标签：写入后读回的是刚写入的值，另一条保持原样。
func TestSetTag_DuplicateNameReadsBackWrite(t *testing.T) {
	recs, err := ParseString("[Auction \"E\"]\n[auction \"S\"]\n")
	require.NoError(t, err)
	g := recs[0]
	g.SetTag("Auction", "N")
	v, ok := g.Tag("Auction")
	require.True(t, ok)
	assert.Equal(t, "N", v)
	assert.Equal(t, 2, g.TagCount())
	assert.Equal(t, "[Auction \"N\"]\n[auction \"S\"]\n", RenderString(recs))
}

func TestSetTag_InsertsAfterLastTag(t *testing.T) {
	recs, err := ParseString("[Board \"1\"]\n; old\n")
	require.NoError(t, err)
	g := recs[0]
	g.SetTag("Auction", "N")
	g.AppendLine("1C Pass Pass Pass")
	want := "[Board \"1\"]\n[Auction \"N\"]\n; old\n1C Pass Pass Pass\n"
	assert.Equal(t, want, RenderString(recs))
}

func TestParseDeal_Canonical(t *testing.T) {
	d, err := ParseDeal(sampleDeal)
	require.NoError(t, err)
	assert.Equal(t, contract.North, d.First)
	assert.Equal(t, sampleDeal, d.String())
	for _, s := range contract.Seats {
		assert.Equal(t, 13, d.Cards(s))
	}

	// 小写、10 写法、起始座位非北
	d2, err := ParseDeal("e:a8654.kq5.10.qjt6 j973.j98742.3.k4 kqt2.at.j6542.85 .63.akq987.a9732")
	require.NoError(t, err)
	assert.Equal(t, contract.East, d2.First)
	assert.Equal(t, "E:A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85 .63.AKQ987.A9732", d2.String())
	assert.Equal(t, d.Holding(contract.West, Spades), d2.Holding(contract.West, Spades))
}

func TestParseDeal_Rejects(t *testing.T) {
	cases := map[string]string{
		"no prefix":   ".63.AKQ987.A9732 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85",
		"bad seat":    "X:.63.AKQ987.A9732 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85",
		"three hands": "N:.63.AKQ987.A9732 A8654.KQ5.T.QJT6 J973.J98742.3.K4",
		"bad rank":    "N:.63.AKQ987.A973Z A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85",
		"duplicate":   "N:A.63.AKQ987.A973 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85",
		"short hand":  "N:.63.AKQ987.A973 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85",
		"suit count":  "N:63.AKQ987.A9732 A8654.KQ5.T.QJT6 J973.J98742.3.K4 KQT2.AT.J6542.85",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDeal(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrDealFormat)
		})
	}
}

func TestAuctionBids(t *testing.T) {
	in := strings.Join([]string{
		"[Board \"1\"]",
		"[Auction \"N\"]",
		"1C =1= Pass {forcing?} 1N",
		"% 注释行",
		"Pass Pass $2 *",
		"[Play \"E\"]",
		"SK SA",
		"",
		"[Board \"2\"]",
		"[Dealer \"S\"]",
		"",
	}, "\n")
	recs, err := ParseString(in)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	bids, ok := recs[0].AuctionBids()
	require.True(t, ok)
	assert.Equal(t, []string{"1C", "Pass", "1N", "Pass", "Pass"}, bids)

	bids, ok = recs[1].AuctionBids()
	assert.False(t, ok)
	assert.Empty(t, bids)
}
