package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afi-protocol/afi-gateway/internal/apikey"
	"github.com/afi-protocol/afi-gateway/internal/auth"
	"github.com/afi-protocol/afi-gateway/internal/observability"
	"github.com/afi-protocol/afi-gateway/internal/vault"
)

// Error codes returned by the admin and ingestion handlers.
const (
	codeCreateFailed  = "api_key_create_failed"
	codeListFailed    = "api_key_list_failed"
	codeRevokeFailed  = "api_key_revoke_failed"
	codeNotFound      = "not_found"
	codeInvalidBody   = "invalid_payload"
	codeIngestFailed  = "signal_ingest_failed"
	codeInternalError = "internal_error"
)

// Handler serves the API-key administration and signal-ingestion
// routes. The tenant identity comes from the auth middleware; handlers
// never accept a tenant from the request body.
type Handler struct {
	store   apikey.Store
	factory vault.Factory
	logger  observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// HandlerOption is a functional option for the handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for the handler.
func WithHandlerLogger(logger observability.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHandlerMetrics sets the metrics for the handler.
func WithHandlerMetrics(metrics *observability.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// NewHandler creates a handler over the given key store and vault
// factory.
func NewHandler(store apikey.Store, factory vault.Factory, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:   store,
		factory: factory,
		logger:  observability.NopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// createKeyRequest is the body for POST /api/v1/api-keys.
type createKeyRequest struct {
	Label     string                `json:"label"`
	RateLimit *apikey.RateLimitRule `json:"rateLimit"`
}

// CreateKey issues a new credential for the authenticated tenant. The
// plaintext appears in this response and nowhere else.
func (h *Handler) CreateKey(c *gin.Context) {
	tenant := auth.TenantFromGin(c)
	if tenant == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeInternalError})
		return
	}

	var req createKeyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalidBody, "message": "request body is not valid JSON"})
			return
		}
	}

	created, err := h.store.CreateKey(c.Request.Context(), tenant.TenantID, req.Label, req.RateLimit)
	if err != nil {
		h.logger.Error("api key creation failed",
			observability.String("tenant_id", tenant.TenantID),
			observability.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeCreateFailed})
		return
	}

	h.logger.Info("api key created",
		observability.String("tenant_id", tenant.TenantID),
		observability.String("key_id", created.Metadata.KeyID),
		observability.String("key_suffix", created.Metadata.KeySuffix),
	)

	c.JSON(http.StatusCreated, gin.H{
		"apiKey":   created.APIKey,
		"metadata": created.Metadata,
	})
}

// ListKeys returns the authenticated tenant's key metadata, newest
// first.
func (h *Handler) ListKeys(c *gin.Context) {
	tenant := auth.TenantFromGin(c)
	if tenant == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeInternalError})
		return
	}

	items, err := h.store.ListKeys(c.Request.Context(), tenant.TenantID)
	if err != nil {
		h.logger.Error("api key listing failed",
			observability.String("tenant_id", tenant.TenantID),
			observability.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeListFailed})
		return
	}
	if items == nil {
		items = []apikey.Metadata{}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RevokeKey revokes one of the authenticated tenant's keys. A keyId
// owned by another tenant answers 404 exactly like an unknown one.
func (h *Handler) RevokeKey(c *gin.Context) {
	tenant := auth.TenantFromGin(c)
	if tenant == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeInternalError})
		return
	}

	keyID := c.Param("keyId")
	revoked, err := h.store.RevokeKey(c.Request.Context(), tenant.TenantID, keyID)
	if err != nil {
		h.logger.Error("api key revocation failed",
			observability.String("tenant_id", tenant.TenantID),
			observability.String("key_id", keyID),
			observability.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeRevokeFailed})
		return
	}
	if !revoked {
		c.JSON(http.StatusNotFound, gin.H{"error": codeNotFound})
		return
	}

	h.logger.Info("api key revoked",
		observability.String("tenant_id", tenant.TenantID),
		observability.String("key_id", keyID),
	)

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

// IngestSignal validates, normalizes, and persists a signal into the
// authenticated tenant's vault partition.
func (h *Handler) IngestSignal(c *gin.Context) {
	tenant := auth.TenantFromGin(c)
	if tenant == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeInternalError})
		return
	}

	var raw RawSignal
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.recordIngest("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalidBody, "message": "request body is not valid JSON"})
		return
	}

	record, err := NormalizeSignal(&raw, h.now())
	if err != nil {
		var invalid *ValidationError
		if errors.As(err, &invalid) {
			h.recordIngest("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalidBody, "message": invalid.Error()})
			return
		}
		h.recordIngest("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeIngestFailed})
		return
	}

	if err := h.factory.For(tenant.TenantID).Upsert(c.Request.Context(), record); err != nil {
		h.recordIngest("error")
		h.logger.Error("signal ingest failed",
			observability.String("tenant_id", tenant.TenantID),
			observability.String("signal_id", record.Identity.SignalID),
			observability.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeIngestFailed})
		return
	}

	h.recordIngest("accepted")
	h.logger.Info("signal ingested",
		observability.String("tenant_id", tenant.TenantID),
		observability.String("signal_id", record.Identity.SignalID),
		observability.String("market", record.Identity.Market),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"tenantId": tenant.TenantID,
		"signalId": record.Identity.SignalID,
	})
}

func (h *Handler) recordIngest(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordIngest(outcome)
	}
}
