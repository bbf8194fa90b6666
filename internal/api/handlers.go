package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"gemgrid/internal/engine"
)

// Default viewport when the caller does not bound the state query.
const defaultViewRadius = 32

// Maximum request body for resolve/inject payloads.
const maxBodyBytes = 1 << 20

// EngineAPI is the slice of the resolution engine the HTTP layer
// consumes. Tests substitute a stub.
type EngineAPI interface {
	SnapshotRect(x0, y0, x1, y1 int32) engine.BoardSnapshot
	CellAt(x, y int32) engine.CellView
	Stats() engine.Stats
	StateDigest() string
	ResolveBatch(player string, epoch uint32, moves []engine.Move) (engine.BatchResult, error)
	ResolveCurrent(player string, moves []engine.Move) (engine.BatchResult, error)
	InjectCells(token string, epoch uint32, cells []engine.ForcedCell) error
	EventLogStats() map[string]interface{}
	Config() engine.Config
}

// LedgerAPI exposes accrued balances for the read side.
type LedgerAPI interface {
	Balances() map[string]uint64
}

// BoardRenderer draws a board window as a PNG.
type BoardRenderer interface {
	RenderPNG(w io.Writer, snap engine.BoardSnapshot, x0, y0, x1, y1 int32) error
}

type handlers struct {
	engine   EngineAPI
	ledger   LedgerAPI
	oracle   OracleAPI
	hub      *WebSocketHub
	renderer BoardRenderer
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt32 parses an int32 query parameter, falling back to def.
func queryInt32(r *http.Request, key string, def int32) int32 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return def
	}
	return int32(n)
}

// handleState returns the populated cells inside a rectangular window.
func (h *handlers) handleState(w http.ResponseWriter, r *http.Request) {
	x0 := queryInt32(r, "x0", -defaultViewRadius)
	y0 := queryInt32(r, "y0", -defaultViewRadius)
	x1 := queryInt32(r, "x1", defaultViewRadius)
	y1 := queryInt32(r, "y1", defaultViewRadius)

	writeJSON(w, http.StatusOK, h.engine.SnapshotRect(x0, y0, x1, y1))
}

// handleCell returns one cell.
func (h *handlers) handleCell(w http.ResponseWriter, r *http.Request) {
	x := queryInt32(r, "x", 0)
	y := queryInt32(r, "y", 0)
	writeJSON(w, http.StatusOK, h.engine.CellAt(x, y))
}

// handleStats returns resolution counters, the current digest, and
// event log health.
func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":    h.engine.Stats(),
		"digest":   h.engine.StateDigest(),
		"eventLog": h.engine.EventLogStats(),
	})
}

// handleEpoch reports the oracle's view of time.
func (h *handlers) handleEpoch(w http.ResponseWriter, r *http.Request) {
	if h.oracle == nil {
		writeError(w, http.StatusServiceUnavailable, "no epoch oracle")
		return
	}
	epoch, commit := h.oracle.CurrentEpoch()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"epoch":       epoch,
		"commitPhase": commit,
	})
}

// handleBalances returns accrued ledger balances.
func (h *handlers) handleBalances(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "no ledger attached")
		return
	}
	writeJSON(w, http.StatusOK, h.ledger.Balances())
}

// resolveResponse is what POST /api/resolve returns and what the hub
// broadcasts after each committed batch.
type resolveResponse struct {
	Player string             `json:"player"`
	Epoch  uint32             `json:"epoch"`
	Result engine.BatchResult `json:"result"`
	Digest string             `json:"digest"`
}

// handleResolve accepts a batch envelope and resolves it. Epoch 0 in
// the envelope defers to the epoch oracle, which also enforces the
// commit window.
func (h *handlers) handleResolve(w http.ResponseWriter, r *http.Request) {
	var env engine.BatchEnvelope
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		RecordConnectionRejected("invalid")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	moves, err := engine.DecodeBatch(env)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	var result engine.BatchResult
	epoch := env.Epoch
	if epoch == 0 {
		result, err = h.engine.ResolveCurrent(env.Player, moves)
	} else {
		result, err = h.engine.ResolveBatch(env.Player, epoch, moves)
	}
	if err != nil {
		writeError(w, resolveStatus(err), err.Error())
		return
	}
	RecordResolve(time.Since(start), result)

	stats := h.engine.Stats()
	UpdateLiveCells(stats.LiveCells)

	resp := resolveResponse{
		Player: env.Player,
		Epoch:  epoch,
		Result: result,
		Digest: h.engine.StateDigest(),
	}
	if resp.Epoch == 0 && h.oracle != nil {
		resp.Epoch, _ = h.oracle.CurrentEpoch()
	}
	if h.hub != nil {
		h.hub.BroadcastJSON(map[string]interface{}{
			"type":    "batch_resolved",
			"payload": resp,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveStatus maps engine errors onto HTTP status codes.
func resolveStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrCommitPhase):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEmptyPlayer),
		errors.Is(err, engine.ErrEpochZero),
		errors.Is(err, engine.ErrTooManyMoves),
		errors.Is(err, engine.ErrPositionRange),
		errors.Is(err, engine.ErrBadColor),
		errors.Is(err, engine.ErrHashMismatch):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotAuthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// injectRequest is the debug bulk-load body.
type injectRequest struct {
	Epoch uint32              `json:"epoch"`
	Cells []engine.ForcedCell `json:"cells"`
}

// handleInject force-loads cells. The route sits behind the debug
// token middleware; the engine re-checks the token itself.
func (h *handlers) handleInject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token := r.Header.Get(debugTokenHeader)
	if err := h.engine.InjectCells(token, req.Epoch, req.Cells); err != nil {
		writeError(w, resolveStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"injected": len(req.Cells),
		"digest":   h.engine.StateDigest(),
	})
}

// handleBoardPNG renders a board window as an image.
func (h *handlers) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "rendering disabled")
		return
	}
	x0 := queryInt32(r, "x0", -defaultViewRadius)
	y0 := queryInt32(r, "y0", -defaultViewRadius)
	x1 := queryInt32(r, "x1", defaultViewRadius)
	y1 := queryInt32(r, "y1", defaultViewRadius)

	snap := h.engine.SnapshotRect(x0, y0, x1, y1)
	w.Header().Set("Content-Type", "image/png")
	if err := h.renderer.RenderPNG(w, snap, x0, y0, x1, y1); err != nil {
		log.Printf("⚠️ board render: %v", err)
	}
}
