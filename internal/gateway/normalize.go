package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/afi-protocol/afi-gateway/internal/vault"
)

// RawSignal is the inbound ingestion payload before normalization.
type RawSignal struct {
	Identity          vault.SignalIdentity   `json:"identity"`
	Stages            map[string]interface{} `json:"stages"`
	PublicSurface     *vault.PublicSurface   `json:"publicSurface"`
	ProprietaryDetail interface{}            `json:"proprietaryDetail"`
	Training          map[string]interface{} `json:"training"`
	CreatedAt         *time.Time             `json:"createdAt"`
	UpdatedAt         *time.Time             `json:"updatedAt"`
}

// ValidationError reports the identity fields missing from a payload.
// The message names exactly the missing fields so clients can correct
// the payload without guessing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required identity fields: %s", strings.Join(e.Missing, ", "))
}

// NormalizeSignal validates a raw payload and builds the record to
// persist. Absent sections default to empty-but-well-formed shapes and
// timestamps default to now.
func NormalizeSignal(raw *RawSignal, now time.Time) (*vault.SignalRecord, error) {
	var missing []string
	if raw.Identity.SignalID == "" {
		missing = append(missing, "signalId")
	}
	if raw.Identity.EpochID == "" {
		missing = append(missing, "epochId")
	}
	if raw.Identity.Market == "" {
		missing = append(missing, "market")
	}
	if raw.Identity.Timeframe == "" {
		missing = append(missing, "timeframe")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	record := &vault.SignalRecord{
		Identity:          raw.Identity,
		Stages:            raw.Stages,
		PublicSurface:     vault.EmptyPublicSurface(),
		ProprietaryDetail: raw.ProprietaryDetail,
		Training:          raw.Training,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if record.Stages == nil {
		record.Stages = map[string]interface{}{}
	}
	if record.Training == nil {
		record.Training = map[string]interface{}{}
	}
	if raw.PublicSurface != nil {
		record.PublicSurface = *raw.PublicSurface
		if record.PublicSurface.KeyDrivers == nil {
			record.PublicSurface.KeyDrivers = []string{}
		}
		if record.PublicSurface.Tags == nil {
			record.PublicSurface.Tags = []string{}
		}
	}
	if raw.CreatedAt != nil {
		record.CreatedAt = *raw.CreatedAt
	}
	if raw.UpdatedAt != nil {
		record.UpdatedAt = *raw.UpdatedAt
	}

	return record, nil
}
