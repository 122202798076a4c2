// Package apikey provides issuance, lookup, and revocation of tenant
// API keys. Plaintext credentials exist only transiently at issuance;
// records store a salted SHA-256 fingerprint and a short display suffix.
package apikey

import "time"

// Status represents the lifecycle state of an API key.
type Status string

const (
	// StatusActive indicates the key can authenticate requests.
	StatusActive Status = "active"

	// StatusRevoked indicates the key has been permanently disabled.
	// The transition active -> revoked is one-way.
	StatusRevoked Status = "revoked"
)

// RateLimitRule describes "at most Limit accepted requests per fixed
// window of WindowSeconds".
type RateLimitRule struct {
	Limit         int `bson:"limit" json:"limit" yaml:"limit"`
	WindowSeconds int `bson:"windowSeconds" json:"windowSeconds" yaml:"windowSeconds"`
}

// Window returns the rule's window as a duration.
func (r RateLimitRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Valid reports whether the rule is well-formed.
func (r RateLimitRule) Valid() bool {
	return r.Limit > 0 && r.WindowSeconds > 0
}

// Record is the stored form of an issued API key. The plaintext
// credential is never part of the record.
type Record struct {
	KeyID      string         `bson:"keyId" json:"keyId"`
	KeyHash    string         `bson:"keyHash" json:"-"`
	KeySuffix  string         `bson:"keySuffix" json:"keySuffix"`
	TenantID   string         `bson:"tenantId" json:"tenantId"`
	Label      string         `bson:"label,omitempty" json:"label,omitempty"`
	Status     Status         `bson:"status" json:"status"`
	CreatedAt  time.Time      `bson:"createdAt" json:"createdAt"`
	RevokedAt  *time.Time     `bson:"revokedAt,omitempty" json:"revokedAt,omitempty"`
	LastUsedAt *time.Time     `bson:"lastUsedAt,omitempty" json:"lastUsedAt,omitempty"`
	RateLimit  *RateLimitRule `bson:"rateLimit,omitempty" json:"rateLimit,omitempty"`
}

// Metadata is the caller-visible projection of a Record. The
// fingerprint is omitted; the suffix identifies the key in listings.
type Metadata struct {
	KeyID      string         `json:"keyId"`
	KeySuffix  string         `json:"keySuffix"`
	TenantID   string         `json:"tenantId"`
	Label      string         `json:"label,omitempty"`
	Status     Status         `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	RevokedAt  *time.Time     `json:"revokedAt,omitempty"`
	LastUsedAt *time.Time     `json:"lastUsedAt,omitempty"`
	RateLimit  *RateLimitRule `json:"rateLimit,omitempty"`
}

// Metadata returns the caller-visible projection of the record.
func (r *Record) Metadata() Metadata {
	return Metadata{
		KeyID:      r.KeyID,
		KeySuffix:  r.KeySuffix,
		TenantID:   r.TenantID,
		Label:      r.Label,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		RevokedAt:  r.RevokedAt,
		LastUsedAt: r.LastUsedAt,
		RateLimit:  r.RateLimit,
	}
}

// CreatedKey is the result of issuing a new API key. APIKey holds the
// plaintext credential and is returned exactly once.
type CreatedKey struct {
	APIKey   string   `json:"apiKey"`
	Metadata Metadata `json:"metadata"`
}
