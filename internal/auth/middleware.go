package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afi-protocol/afi-gateway/internal/apikey"
	"github.com/afi-protocol/afi-gateway/internal/observability"
	"github.com/afi-protocol/afi-gateway/internal/ratelimit"
)

// TenantContextKey is the gin context key for the tenant identity.
const TenantContextKey = "tenant"

// Error codes returned to callers. Unknown and revoked credentials
// share one code so callers cannot enumerate key states.
const (
	codeMissingAPIKey = "missing_api_key"
	codeInvalidAPIKey = "invalid_api_key"
	codeRateLimited   = "rate_limited"
	codeInternalError = "auth_internal_error"
)

// MiddlewareConfig holds configuration for the auth middleware.
type MiddlewareConfig struct {
	Store       apikey.Store
	Limiter     ratelimit.Limiter
	DefaultRule ratelimit.Rule
	Extractor   Extractor
	Logger      observability.Logger
	Metrics     *observability.Metrics

	// MarkUsedTimeout bounds the fire-and-forget lastUsedAt update.
	MarkUsedTimeout time.Duration
}

// Middleware returns a gin middleware that authenticates requests by
// API key, applies the key's rate budget, and attaches the tenant
// identity to the request context.
func Middleware(cfg MiddlewareConfig) gin.HandlerFunc {
	if cfg.Extractor == nil {
		cfg.Extractor = NewHeaderExtractor()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}
	if cfg.MarkUsedTimeout <= 0 {
		cfg.MarkUsedTimeout = 5 * time.Second
	}

	return func(c *gin.Context) {
		credential, err := cfg.Extractor.Extract(c.Request)
		if err != nil {
			recordAuth(cfg.Metrics, "missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": codeMissingAPIKey})
			return
		}

		record, err := cfg.Store.FindByAPIKey(c.Request.Context(), credential)
		if err != nil {
			recordAuth(cfg.Metrics, "error")
			cfg.Logger.Error("api key lookup failed", observability.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": codeInternalError})
			return
		}
		if record == nil {
			recordAuth(cfg.Metrics, "invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": codeInvalidAPIKey})
			return
		}

		rule := cfg.DefaultRule
		if record.RateLimit != nil && record.RateLimit.Valid() {
			rule = ratelimit.Rule{
				Limit:  record.RateLimit.Limit,
				Window: record.RateLimit.Window(),
			}
		}

		// The budget is keyed by keyId, not tenant: distinct keys of
		// the same tenant get independent budgets.
		result, err := cfg.Limiter.Check(c.Request.Context(), record.KeyID, rule)
		if err != nil {
			recordAuth(cfg.Metrics, "error")
			cfg.Logger.Error("rate limit check failed",
				observability.String("key_id", record.KeyID),
				observability.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": codeInternalError})
			return
		}
		if !result.Allowed {
			recordAuth(cfg.Metrics, "rate_limited")
			recordRateLimit(cfg.Metrics, "rejected")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             codeRateLimited,
				"retryAfterSeconds": result.RetryAfterSeconds(),
			})
			return
		}
		recordRateLimit(cfg.Metrics, "allowed")

		tenant := &TenantContext{TenantID: record.TenantID, KeyID: record.KeyID}
		c.Set(TenantContextKey, tenant)
		c.Request = c.Request.WithContext(ContextWithTenant(c.Request.Context(), tenant))

		// Best-effort usage stamp; never blocks or fails the request.
		go markUsed(cfg, record.KeyID)

		recordAuth(cfg.Metrics, "ok")
		c.Next()
	}
}

// markUsed updates the key's lastUsedAt off the request path.
func markUsed(cfg MiddlewareConfig, keyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MarkUsedTimeout)
	defer cancel()

	if err := cfg.Store.MarkUsed(ctx, keyID); err != nil {
		cfg.Logger.Warn("markUsed failed",
			observability.String("key_id", keyID),
			observability.Error(err),
		)
	}
}

// TenantFromGin extracts the tenant identity set by the middleware.
func TenantFromGin(c *gin.Context) *TenantContext {
	if value, exists := c.Get(TenantContextKey); exists {
		if tenant, ok := value.(*TenantContext); ok {
			return tenant
		}
	}
	return nil
}

func recordAuth(m *observability.Metrics, result string) {
	if m != nil {
		m.RecordAuth(result)
	}
}

func recordRateLimit(m *observability.Metrics, decision string) {
	if m != nil {
		m.RecordRateLimit(decision)
	}
}
