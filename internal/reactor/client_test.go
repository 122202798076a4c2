package reactor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ScoreDraft(t *testing.T) {
	var gotSecret string
	var gotDraft SignalDraft

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/webhooks/tradingview", r.URL.Path)
		gotSecret = r.Header.Get("X-Webhook-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDraft))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ScoredSignal{
			SignalID: "sig-abc",
			AnalystScore: AnalystScore{
				UWRScore: 0.82,
				UWRAxes:  UWRAxes{Utility: 0.9, WorkQuality: 0.8, Rarity: 0.76},
			},
			ScoredAt: "2026-08-28T12:00:00Z",
			Meta: ScoredMeta{
				Symbol:    gotDraft.Symbol,
				Timeframe: gotDraft.Timeframe,
				Strategy:  gotDraft.Strategy,
				Direction: gotDraft.Direction,
				Source:    "tradingview",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, WithSharedSecret("hunter2"))

	scored, err := client.ScoreDraft(context.Background(), &SignalDraft{
		Symbol:    "BTC-PERP",
		Timeframe: "4h",
		Strategy:  "breakout",
		Direction: "long",
	})
	require.NoError(t, err)

	assert.Equal(t, "sig-abc", scored.SignalID)
	assert.InDelta(t, 0.82, scored.AnalystScore.UWRScore, 1e-9)
	assert.Equal(t, "BTC-PERP", scored.Meta.Symbol)
	assert.Equal(t, "hunter2", gotSecret)
	assert.Equal(t, "breakout", gotDraft.Strategy)
}

func TestClient_ScoreDraftUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("scorer unavailable"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.ScoreDraft(context.Background(), &SignalDraft{Symbol: "BTC-PERP"})
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "scorer unavailable")
}

func TestClient_ScoreDraftNoSecretHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Webhook-Secret"]
		assert.False(t, present)
		json.NewEncoder(w).Encode(ScoredSignal{SignalID: "sig-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	scored, err := client.ScoreDraft(context.Background(), &SignalDraft{Symbol: "ETH-PERP"})
	require.NoError(t, err)
	assert.Equal(t, "sig-1", scored.SignalID)
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	for i := 0; i < 5; i++ {
		_, err := client.ScoreDraft(context.Background(), &SignalDraft{Symbol: "BTC-PERP"})
		require.Error(t, err)
	}

	_, err := client.ScoreDraft(context.Background(), &SignalDraft{Symbol: "BTC-PERP"})
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(HealthStatus{Status: "ok"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
}

func TestClient_HealthUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	status, err := client.Health(context.Background())
	require.Error(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "error", status.Status)
}
