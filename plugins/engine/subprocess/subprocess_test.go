package subprocess

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bba/pkg/contract"
)

const modeEnv = "BBA_FAKE_WRAPPER"

// TestMain 在子进程模式下充当包装程序；否则运行测试并检查 goroutine 泄漏。
func TestMain(m *testing.M) {
	if mode := os.Getenv(modeEnv); mode != "" {
		os.Exit(fakeWrapper(mode))
	}
	goleak.VerifyTestMain(m)
}

func fakeWrapper(mode string) int {
	in, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 9
	}
	if p := os.Getenv("BBA_FAKE_DUMP"); p != "" {
		_ = os.WriteFile(p, in, 0o644)
	}
	var req wireRequest
	if err := json.Unmarshal(in, &req); err != nil {
		fmt.Fprintln(os.Stderr, "bad request:", err)
		return 8
	}
	switch mode {
	case "exit":
		fmt.Fprintln(os.Stderr, "wrapper exploded")
		return 2
	case "garbage":
		fmt.Print("not json")
		return 0
	case "hang":
		time.Sleep(time.Minute)
		return 0
	}
	resp := wireResponse{}
	for _, d := range req.Deals {
		pbn := d.PBN
		switch pbn {
		case "bad":
			msg := "set_deal failed (code -2): invalid hand"
			resp.Results = append(resp.Results, wireResult{Deal: &pbn, Error: &msg})
		case "noauction":
			resp.Results = append(resp.Results, wireResult{Deal: &pbn, Success: true})
		default:
			resp.Results = append(resp.Results, wireResult{Deal: &pbn, Success: true, Auction: []string{"1C", "Pass", "Pass", "Pass"}})
		}
	}
	if mode == "short" {
		resp.Results = resp.Results[:len(resp.Results)-1]
	}
	_ = json.NewEncoder(os.Stdout).Encode(resp)
	return 0
}

func newDriver(t *testing.T, mode string, env ...string) *Driver {
	t.Helper()
	d, err := New(&Options{Path: os.Args[0], Env: append([]string{modeEnv + "=" + mode}, env...)})
	require.NoError(t, err)
	return d
}

func reqs(deals ...string) []contract.AuctionRequest {
	out := make([]contract.AuctionRequest, 0, len(deals))
	for _, d := range deals {
		out = append(out, contract.AuctionRequest{Deal: d, Dealer: contract.East, Vulnerability: contract.VulBoth})
	}
	return out
}

func TestGenerate_Echo(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "req.json")
	d := newDriver(t, "echo", "BBA_FAKE_DUMP="+dump)
	ctx := context.Background()
	require.NoError(t, d.LoadConventions(ctx, "ns.bbsa", contract.SideNS))

	res, err := d.GenerateAuctions(ctx, reqs("a", "bad", "noauction", "b"))
	require.NoError(t, err)
	require.Len(t, res, 4)
	assert.True(t, res[0].Success)
	assert.Equal(t, []string{"1C", "Pass", "Pass", "Pass"}, res[0].Bids)
	assert.False(t, res[1].Success)
	assert.Equal(t, "set_deal failed (code -2): invalid hand", res[1].Diagnostic)
	assert.ErrorIs(t, res[1].Err, contract.ErrEngineStatus)
	assert.False(t, res[2].Success)
	assert.True(t, res[3].Success)

	raw, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ns_conventions":"ns.bbsa","ew_conventions":null,"deals":[
		{"pbn":"a","dealer":"E","vulnerability":"Both"},
		{"pbn":"bad","dealer":"E","vulnerability":"Both"},
		{"pbn":"noauction","dealer":"E","vulnerability":"Both"},
		{"pbn":"b","dealer":"E","vulnerability":"Both"}]}`, string(raw))
}

func TestGenerate_ResultCountMismatch(t *testing.T) {
	d := newDriver(t, "short")
	res, err := d.GenerateAuctions(context.Background(), reqs("a", "b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrResultCount)
	assert.Nil(t, res)
}

func TestGenerate_NonZeroExitSurfacesStderr(t *testing.T) {
	d := newDriver(t, "exit")
	_, err := d.GenerateAuctions(context.Background(), reqs("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrEngineExit)
	assert.Contains(t, err.Error(), "wrapper exploded")
	assert.Contains(t, err.Error(), "exit code 2")
}

func TestGenerate_MalformedOutput(t *testing.T) {
	d := newDriver(t, "garbage")
	_, err := d.GenerateAuctions(context.Background(), reqs("a"))
	assert.ErrorIs(t, err, contract.ErrResponseInvalid)
}

func TestGenerate_ZeroRequestsSpawnsNothing(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "req.json")
	d := newDriver(t, "exit", "BBA_FAKE_DUMP="+dump)
	res, err := d.GenerateAuctions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
	_, statErr := os.Stat(dump)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_ContextDeadline(t *testing.T) {
	d := newDriver(t, "hang")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := d.GenerateAuctions(ctx, reqs("a"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, contract.ErrConfig)
	_, err = New(&Options{Path: filepath.Join(t.TempDir(), "missing-wrapper")})
	assert.ErrorIs(t, err, contract.ErrEngineUnavailable)
}

func TestLoadConventions_Twice(t *testing.T) {
	d := newDriver(t, "echo")
	ctx := context.Background()
	require.NoError(t, d.LoadConventions(ctx, "ew.bbsa", contract.SideEW))
	assert.ErrorIs(t, d.LoadConventions(ctx, "ew2.bbsa", contract.SideEW), contract.ErrInvalidInput)
}
