package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/internal/domain/pending"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

type failingStore struct{}

func (failingStore) GetAll(context.Context) ([]*pending.Request, error) {
	return nil, errors.ErrUnavailable
}

func TestHandler_ReportsPending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := pending.NewMemoryStore()
	req := pending.NewTradingRequest("bob", "SOL", 150, 0, 0, nil)
	req.CreatedAt = now.Add(-3 * time.Minute)
	require.NoError(t, store.Put(ctx, req))

	h := New("fiatrouter", "coingecko", "memory", store, logger.NewNop())
	h.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "fiatrouter", resp.Address)
	assert.Equal(t, "coingecko", resp.PeerAddress)
	assert.Equal(t, 1, resp.Pending.Total)
	assert.Equal(t, 1, resp.Pending.ByKind["trading"])
	assert.Equal(t, 0, resp.Pending.ByKind["chat"])
	assert.Equal(t, "trading_request_bob", resp.Pending.OldestKey)
	assert.Equal(t, 180.0, resp.Pending.OldestAgeSeconds)
	assert.Equal(t, "3 minutes ago", resp.Pending.OldestWaiting)
}

func TestHandler_StoreFailure(t *testing.T) {
	h := New("fiatrouter", "coingecko", "redis", failingStore{}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New("fiatrouter", "coingecko", "memory", pending.NewMemoryStore(), logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
