package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gemgrid/internal/engine"
)

const testDebugToken = "router-test-token"

type fixedOracle struct {
	epoch  uint32
	commit bool
}

func (o fixedOracle) CurrentEpoch() (uint32, bool) { return o.epoch, o.commit }

func newTestServer(t *testing.T, oracle OracleAPI) (*httptest.Server, *engine.Engine, *engine.MemoryLedger) {
	t.Helper()
	ledger := engine.NewMemoryLedger()
	eng := engine.New(engine.Options{
		Sink:      ledger,
		Oracle:    oracle,
		Authorize: func(tok string) bool { return tok == testDebugToken },
	})
	router := NewRouter(RouterConfig{
		Engine:         eng,
		Ledger:         ledger,
		Oracle:         oracle,
		DebugToken:     testDebugToken,
		DisableLogging: true,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, eng, ledger
}

func postJSON(t *testing.T, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, fixedOracle{epoch: 1})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestResolveEndpoint(t *testing.T) {
	srv, eng, _ := newTestServer(t, fixedOracle{epoch: 1})

	resp := postJSON(t, srv.URL+"/api/resolve", engine.BatchEnvelope{
		Player: "alice",
		Epoch:  1,
		Moves:  []engine.MoveRecord{{X: 0, Y: 0, Color: "blue"}},
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Result.TokensPlaced != 1 {
		t.Errorf("result = %+v", out.Result)
	}
	if out.Digest != eng.StateDigest() {
		t.Error("response digest does not match engine state")
	}

	view := eng.CellAt(0, 0)
	if view.Color != "blue" || view.Owner != "alice" {
		t.Errorf("cell = %+v", view)
	}
}

func TestResolveEndpointCommitPhase(t *testing.T) {
	srv, _, _ := newTestServer(t, fixedOracle{epoch: 3, commit: true})

	// Epoch 0 defers to the oracle, which is inside the commit window.
	resp := postJSON(t, srv.URL+"/api/resolve", engine.BatchEnvelope{
		Player: "alice",
		Moves:  []engine.MoveRecord{{X: 0, Y: 0, Color: "blue"}},
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestResolveEndpointBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t, fixedOracle{epoch: 1})

	tests := []struct {
		name string
		env  engine.BatchEnvelope
		want int
	}{
		{
			"empty player",
			engine.BatchEnvelope{Epoch: 1, Moves: []engine.MoveRecord{{X: 0, Y: 0, Color: "blue"}}},
			http.StatusBadRequest,
		},
		{
			"bad color",
			engine.BatchEnvelope{Player: "a", Epoch: 1, Moves: []engine.MoveRecord{{Color: "cyan"}}},
			http.StatusBadRequest,
		},
		{
			"hash mismatch",
			engine.BatchEnvelope{Player: "a", Epoch: 1, Hash: "ff", Moves: []engine.MoveRecord{{Color: "blue"}}},
			http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/resolve", tt.env, nil)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestStateAndCellEndpoints(t *testing.T) {
	srv, eng, _ := newTestServer(t, fixedOracle{epoch: 1})
	if _, err := eng.ResolveBatch("alice", 1, []engine.Move{{Position: engine.Pack(2, 3), Color: engine.Green}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/state?x0=0&y0=0&x1=5&y1=5")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	defer resp.Body.Close()
	var snap engine.BoardSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Cells) != 1 || snap.Cells[0].Color != "green" {
		t.Errorf("snapshot = %+v", snap)
	}

	resp2, err := http.Get(srv.URL + "/api/cell?x=2&y=3")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	defer resp2.Body.Close()
	var view engine.CellView
	if err := json.NewDecoder(resp2.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Color != "green" || view.Owner != "alice" {
		t.Errorf("cell = %+v", view)
	}
}

func TestEpochEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, fixedOracle{epoch: 12, commit: true})

	resp, err := http.Get(srv.URL + "/api/epoch")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Epoch       uint32 `json:"epoch"`
		CommitPhase bool   `json:"commitPhase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Epoch != 12 || !out.CommitPhase {
		t.Errorf("epoch = %+v", out)
	}
}

func TestInjectEndpointAuth(t *testing.T) {
	srv, eng, _ := newTestServer(t, fixedOracle{epoch: 1})

	body := injectRequest{
		Epoch: 1,
		Cells: []engine.ForcedCell{{X: 0, Y: 0, Color: "red", Life: 2, Owner: "bob"}},
	}

	resp := postJSON(t, srv.URL+"/api/inject", body, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("no token: status = %d, want 403", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/inject", body, map[string]string{debugTokenHeader: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong token: status = %d, want 403", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/inject", body, map[string]string{debugTokenHeader: testDebugToken})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("good token: status = %d, want 200", resp.StatusCode)
	}
	if view := eng.CellAt(0, 0); view.Color != "red" || view.Owner != "bob" {
		t.Errorf("injected cell = %+v", view)
	}
}

func TestBalancesEndpoint(t *testing.T) {
	srv, eng, ledger := newTestServer(t, fixedOracle{epoch: 1})

	// A same-epoch collision refunds through the ledger.
	if _, err := eng.ResolveBatch("alice", 1, []engine.Move{
		{Position: engine.Pack(0, 0), Color: engine.Blue},
		{Position: engine.Pack(0, 0), Color: engine.Red},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ledger.Balance("alice") == 0 {
		t.Fatal("expected a refund on the ledger")
	}

	resp, err := http.Get(srv.URL + "/api/balances")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var balances map[string]uint64
	if err := json.NewDecoder(resp.Body).Decode(&balances); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if balances["alice"] != ledger.Balance("alice") {
		t.Errorf("balances = %v", balances)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, fixedOracle{epoch: 1})

	resp, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"stats", "digest", "eventLog"} {
		if _, ok := out[key]; !ok {
			t.Errorf("stats response missing %q", key)
		}
	}
}

func TestBoardPNGWithoutRenderer(t *testing.T) {
	srv, _, _ := newTestServer(t, fixedOracle{epoch: 1})
	resp, err := http.Get(srv.URL + "/api/board.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
