// Package api implements the HTTP handlers for the jobfinder service.
//
// Routes:
//
//	POST /feed/criteria        → replace filter criteria and rebuild the stack
//	POST /feed/refresh         → reload the current view bypassing the cache
//	POST /feed/more            → append the next page behind the stack
//	GET  /feed/snapshot        → current card-stack render state
//	GET  /decisions/liked      → accepted postings, oldest first
//	GET  /decisions/passed     → rejected postings, oldest first
//	POST /stack/pointer/down   → begin a drag on the front card
//	POST /stack/pointer/move   → update drag displacement
//	POST /stack/pointer/up     → release; commit or snap back
//	POST /stack/swipe          → programmatic left/right swipe
//	GET  /applications/{handle} → submission status
//	POST /ingest/trigger       → on-demand ingest run (throttled)
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Frankanator8/jobfinder/internal/appqueue"
	"github.com/Frankanator8/jobfinder/internal/ingest"
	"github.com/Frankanator8/jobfinder/internal/model"
	"github.com/Frankanator8/jobfinder/internal/stack"
	"github.com/Frankanator8/jobfinder/internal/swipe"
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	ctrl   *stack.Controller
	queue  *appqueue.Queue
	runner *ingest.Runner
}

// NewHandler returns a configured Handler. runner may be nil when ingest is
// disabled; the trigger route then returns 503.
func NewHandler(ctrl *stack.Controller, queue *appqueue.Queue, runner *ingest.Runner) *Handler {
	return &Handler{ctrl: ctrl, queue: queue, runner: runner}
}

// RegisterRoutes mounts all service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/feed/criteria", h.handleCriteria)
	mux.HandleFunc("/feed/refresh", h.handleRefresh)
	mux.HandleFunc("/feed/more", h.handleMore)
	mux.HandleFunc("/feed/snapshot", h.handleSnapshot)
	mux.HandleFunc("/decisions/", h.handleDecisions)
	mux.HandleFunc("/stack/pointer/", h.handlePointer)
	mux.HandleFunc("/stack/swipe", h.handleSwipe)
	mux.HandleFunc("/applications/", h.handleApplicationStatus)
	mux.HandleFunc("/ingest/trigger", h.handleIngestTrigger)
}

// ─── Feed routes ─────────────────────────────────────────────────────────────

func (h *Handler) handleCriteria(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body model.Criteria
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.MaxAgeHours < 0 {
		jsonError(w, "maxAgeHours must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.ctrl.ApplyCriteria(r.Context(), body); err != nil {
		log.Printf("[api] applyCriteria error: %v", err)
		jsonError(w, "feed load failed", http.StatusBadGateway)
		return
	}

	h.writeSnapshot(w)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.ctrl.Refresh(r.Context()); err != nil {
		log.Printf("[api] refresh error: %v", err)
		jsonError(w, "feed refresh failed", http.StatusBadGateway)
		return
	}

	h.writeSnapshot(w)
}

func (h *Handler) handleMore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	appended, err := h.ctrl.LoadMore(r.Context())
	if err != nil {
		log.Printf("[api] loadMore error: %v", err)
		jsonError(w, "feed load failed", http.StatusBadGateway)
		return
	}

	jsonOK(w, map[string]any{
		"appended":  appended,
		"exhausted": h.ctrl.Exhausted(),
	})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeSnapshot(w)
}

// handleDecisions handles GET /decisions/liked|passed
func (h *Handler) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bucket := strings.TrimPrefix(r.URL.Path, "/decisions/")
	switch bucket {
	case "liked":
		jsonOK(w, h.ctrl.Liked())
	case "passed":
		jsonOK(w, h.ctrl.Passed())
	default:
		jsonError(w, fmt.Sprintf("unknown bucket %q", bucket), http.StatusNotFound)
	}
}

// ─── Gesture routes ──────────────────────────────────────────────────────────

// handlePointer handles POST /stack/pointer/down|move|up
func (h *Handler) handlePointer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/stack/pointer/")
	eng := h.ctrl.Engine()

	switch action {
	case "down":
		if !eng.PointerDown() {
			// Mid-animation or empty stack: the gesture is ignored, not an error.
			jsonOK(w, map[string]any{"accepted": false, "phase": eng.Phase()})
			return
		}
		jsonOK(w, map[string]any{"accepted": true, "phase": eng.Phase()})

	case "move":
		var body struct {
			DX float64 `json:"dx"`
			DY float64 `json:"dy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		eng.PointerMove(swipe.Vec{X: body.DX, Y: body.DY})
		h.writeSnapshot(w)

	case "up":
		var body struct {
			VX float64 `json:"vx"`
			VY float64 `json:"vy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		eng.PointerUp(swipe.Vec{X: body.VX, Y: body.VY})
		h.writeSnapshot(w)

	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

func (h *Handler) handleSwipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	eng := h.ctrl.Engine()
	switch body.Direction {
	case "right":
		eng.SwipeRight()
	case "left":
		eng.SwipeLeft()
	default:
		jsonError(w, `direction must be "left" or "right"`, http.StatusBadRequest)
		return
	}

	h.writeSnapshot(w)
}

// ─── Application status ──────────────────────────────────────────────────────

// handleApplicationStatus handles GET /applications/{handle}
func (h *Handler) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	handle := strings.TrimPrefix(r.URL.Path, "/applications/")
	if handle == "" || strings.Contains(handle, "/") {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	rec, err := h.queue.Status(r.Context(), handle)
	if errors.Is(err, appqueue.ErrNotFound) {
		jsonError(w, "submission not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[api] application status error: %v", err)
		jsonError(w, "queue error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, rec)
}

// ─── Ingest ──────────────────────────────────────────────────────────────────

func (h *Handler) handleIngestTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.runner == nil {
		jsonError(w, "ingest is disabled", http.StatusServiceUnavailable)
		return
	}

	if err := h.runner.Trigger(r.Context()); err != nil {
		if errors.Is(err, ingest.ErrRateLimited) {
			jsonError(w, "ingest triggered too soon, try again shortly", http.StatusTooManyRequests)
			return
		}
		log.Printf("[api] ingest trigger error: %v", err)
		jsonError(w, "ingest failed", http.StatusBadGateway)
		return
	}

	jsonOK(w, map[string]string{"status": "ok"})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (h *Handler) writeSnapshot(w http.ResponseWriter) {
	snap := h.ctrl.Engine().Snapshot(time.Now())
	jsonOK(w, map[string]any{
		"snapshot":  snap,
		"exhausted": h.ctrl.Exhausted(),
	})
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
