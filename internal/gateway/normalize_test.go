package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-protocol/afi-gateway/internal/vault"
)

func validRaw() *RawSignal {
	return &RawSignal{
		Identity: vault.SignalIdentity{
			SignalID:  "sig-123",
			EpochID:   "epoch-1",
			Market:    "BTC-PERP",
			Timeframe: "1h",
		},
	}
}

func TestNormalizeSignal_Defaults(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	record, err := NormalizeSignal(validRaw(), now)
	require.NoError(t, err)

	assert.Equal(t, "sig-123", record.Identity.SignalID)
	assert.NotNil(t, record.Stages)
	assert.Empty(t, record.Stages)
	assert.NotNil(t, record.Training)
	assert.NotNil(t, record.PublicSurface.KeyDrivers)
	assert.NotNil(t, record.PublicSurface.Tags)
	assert.Equal(t, now, record.CreatedAt)
	assert.Equal(t, now, record.UpdatedAt)
}

func TestNormalizeSignal_CallerSuppliedSections(t *testing.T) {
	created := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	raw := validRaw()
	raw.Stages = map[string]interface{}{"scout": map[string]interface{}{"confidence": 0.7}}
	raw.PublicSurface = &vault.PublicSurface{
		KeyDrivers:     []string{"funding"},
		SummaryInsight: "funding flip",
		Tags:           []string{"perp"},
	}
	raw.CreatedAt = &created

	record, err := NormalizeSignal(raw, time.Now())
	require.NoError(t, err)

	assert.Contains(t, record.Stages, "scout")
	assert.Equal(t, "funding flip", record.PublicSurface.SummaryInsight)
	assert.Equal(t, created, record.CreatedAt)
}

func TestNormalizeSignal_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*RawSignal)
		expected []string
	}{
		{
			name:     "missing signalId",
			mutate:   func(r *RawSignal) { r.Identity.SignalID = "" },
			expected: []string{"signalId"},
		},
		{
			name:     "missing timeframe",
			mutate:   func(r *RawSignal) { r.Identity.Timeframe = "" },
			expected: []string{"timeframe"},
		},
		{
			name: "several missing fields, all named",
			mutate: func(r *RawSignal) {
				r.Identity.EpochID = ""
				r.Identity.Market = ""
			},
			expected: []string{"epochId", "market"},
		},
		{
			name:     "empty identity",
			mutate:   func(r *RawSignal) { r.Identity = vault.SignalIdentity{} },
			expected: []string{"signalId", "epochId", "market", "timeframe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			_, err := NormalizeSignal(raw, time.Now())
			require.Error(t, err)

			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.expected, invalid.Missing)
			for _, field := range tt.expected {
				assert.Contains(t, invalid.Error(), field)
			}
		})
	}
}

func TestNormalizeSignal_PartialPublicSurface(t *testing.T) {
	raw := validRaw()
	raw.PublicSurface = &vault.PublicSurface{SummaryInsight: "only insight"}

	record, err := NormalizeSignal(raw, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "only insight", record.PublicSurface.SummaryInsight)
	assert.NotNil(t, record.PublicSurface.KeyDrivers)
	assert.NotNil(t, record.PublicSurface.Tags)
}
