package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type fakeStats struct {
	online int
	tick   uint64
}

func (f fakeStats) OnlineCount() int { return f.online }
func (f fakeStats) TickCount() uint64 { return f.tick }

func TestRouterStatsReportsOnlineAndTick(t *testing.T) {
	stats := fakeStats{online: 3, tick: 42}
	r := Router(nil, stats, noopKick, noopUsurp, noopRunGM, zap.NewNop())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Online int    `json:"online"`
		Tick   uint64 `json:"tick"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Online != 3 || body.Tick != 42 {
		t.Fatalf("expected online=3 tick=42, got %+v", body)
	}
}

func TestRouterGMDispatchesCommandAndReturnsLines(t *testing.T) {
	var gotCharID, gotAccountID int32
	var gotText string
	runGM := func(ctx context.Context, charID, accountID int32, text string) ([]string, error) {
		gotCharID, gotAccountID, gotText = charID, accountID, text
		return []string{"hp set to 50"}, nil
	}
	r := Router(nil, fakeStats{}, noopKick, noopUsurp, runGM, zap.NewNop())
	srv := httptest.NewServer(r)
	defer srv.Close()

	payload, _ := json.Marshal(map[string]any{
		"char_id":    1,
		"account_id": 9,
		"text":       ".hp 50",
	})
	resp, err := http.Post(srv.URL+"/admin/gm", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /admin/gm: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Lines []string `json:"lines"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Lines) != 1 || out.Lines[0] != "hp set to 50" {
		t.Fatalf("unexpected lines: %v", out.Lines)
	}
	if gotCharID != 1 || gotAccountID != 9 || gotText != ".hp 50" {
		t.Fatalf("runGM called with wrong args: char=%d account=%d text=%q", gotCharID, gotAccountID, gotText)
	}
}

func TestRouterGMReturns500OnError(t *testing.T) {
	runGM := func(ctx context.Context, charID, accountID int32, text string) ([]string, error) {
		return nil, errNotFound
	}
	r := Router(nil, fakeStats{}, noopKick, noopUsurp, runGM, zap.NewNop())
	srv := httptest.NewServer(r)
	defer srv.Close()

	payload, _ := json.Marshal(map[string]any{"char_id": 1, "account_id": 1, "text": ".hp 1"})
	resp, err := http.Post(srv.URL+"/admin/gm", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /admin/gm: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

var errNotFound = &testError{"character not found"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func noopKick(accountID int32, reason string) error { return nil }

func noopUsurp(staffCharID, targetCharID int32) error { return nil }

func noopRunGM(ctx context.Context, charID, accountID int32, text string) ([]string, error) {
	return nil, nil
}
