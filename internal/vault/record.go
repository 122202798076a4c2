// Package vault provides tenant-isolated storage for vaulted signal
// records. A vault handle is constructed with its tenant baked in, so
// every read and write it performs is implicitly scoped; cross-tenant
// leakage is structurally impossible rather than policy-enforced per
// call.
package vault

import "time"

// SignalIdentity identifies a signal within a tenant's partition.
// SignalID, EpochID, Market, and Timeframe are required on ingest.
type SignalIdentity struct {
	SignalID    string `bson:"signalId" json:"signalId"`
	EpochID     string `bson:"epochId" json:"epochId"`
	Market      string `bson:"market" json:"market"`
	Timeframe   string `bson:"timeframe" json:"timeframe"`
	StrategyID  string `bson:"strategyId,omitempty" json:"strategyId,omitempty"`
	ScoutID     string `bson:"scoutId,omitempty" json:"scoutId,omitempty"`
	AnalystID   string `bson:"analystId,omitempty" json:"analystId,omitempty"`
	ValidatorID string `bson:"validatorId,omitempty" json:"validatorId,omitempty"`
}

// PublicSurface is the projection of a signal that may be shared
// outside the owning tenant's proprietary pipeline.
type PublicSurface struct {
	KeyDrivers     []string `bson:"keyDrivers" json:"keyDrivers"`
	SummaryInsight string   `bson:"summaryInsight" json:"summaryInsight"`
	Tags           []string `bson:"tags" json:"tags"`
}

// EmptyPublicSurface returns a well-formed zero-value surface.
func EmptyPublicSurface() PublicSurface {
	return PublicSurface{
		KeyDrivers: []string{},
		Tags:       []string{},
	}
}

// SignalRecord is a normalized signal persisted in a tenant partition.
// Repeat ingest of the same signalId overwrites the stored record.
type SignalRecord struct {
	Identity          SignalIdentity         `bson:"identity" json:"identity"`
	Stages            map[string]interface{} `bson:"stages" json:"stages"`
	PublicSurface     PublicSurface          `bson:"publicSurface" json:"publicSurface"`
	ProprietaryDetail interface{}            `bson:"proprietaryDetail,omitempty" json:"proprietaryDetail,omitempty"`
	Training          map[string]interface{} `bson:"training" json:"training"`
	CreatedAt         time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time              `bson:"updatedAt" json:"updatedAt"`
}
