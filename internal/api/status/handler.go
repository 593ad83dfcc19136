// Package status serves the agent status route: who this agent is, which peer
// it asks for prices, and what is still waiting for a quote.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"fiatrouter/internal/domain/pending"
	"fiatrouter/pkg/logger"
)

// Snapshotter lists pending requests
type Snapshotter interface {
	GetAll(ctx context.Context) ([]*pending.Request, error)
}

// Response is the /agent/status body
type Response struct {
	Address     string         `json:"address"`
	PeerAddress string         `json:"peer_price_agent"`
	StoreKind   string         `json:"store"`
	Pending     PendingSection `json:"pending"`
	Timestamp   string         `json:"timestamp"`
}

// PendingSection summarises the pending-request store
type PendingSection struct {
	Total            int            `json:"total"`
	ByKind           map[string]int `json:"by_kind"`
	OldestKey        string         `json:"oldest_key,omitempty"`
	OldestAgeSeconds float64        `json:"oldest_age_seconds"`
	OldestWaiting    string         `json:"oldest_waiting,omitempty"`
}

// Handler serves the agent status
type Handler struct {
	address   string
	peer      string
	storeKind string
	store     Snapshotter
	now       func() time.Time
	log       *logger.Logger
}

// New creates the status handler
func New(address, peer, storeKind string, store Snapshotter, log *logger.Logger) *Handler {
	return &Handler{
		address:   address,
		peer:      peer,
		storeKind: storeKind,
		store:     store,
		now:       time.Now,
		log:       log.With("component", "status"),
	}
}

// ServeHTTP renders the current status as JSON
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	reqs, err := h.store.GetAll(ctx)
	if err != nil {
		h.log.Errorw("Failed to read pending requests", "error", err)
		http.Error(w, "pending store unavailable", http.StatusServiceUnavailable)
		return
	}

	summary := pending.Summarize(reqs, h.now())
	resp := Response{
		Address:     h.address,
		PeerAddress: h.peer,
		StoreKind:   h.storeKind,
		Pending: PendingSection{
			Total:            summary.Total,
			ByKind:           make(map[string]int, len(summary.ByKind)),
			OldestKey:        summary.OldestKey,
			OldestAgeSeconds: summary.OldestAge().Seconds(),
		},
		Timestamp: summary.TakenAt.UTC().Format(time.RFC3339),
	}
	for kind, n := range summary.ByKind {
		resp.Pending.ByKind[string(kind)] = n
	}
	if summary.Total > 0 {
		resp.Pending.OldestWaiting = humanize.RelTime(summary.Oldest, summary.TakenAt, "ago", "from now")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
