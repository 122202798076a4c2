package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoCredential indicates the request carried no API key.
var ErrNoCredential = errors.New("no API key found in request")

// APIKeyHeader is the primary credential header.
const APIKeyHeader = "X-API-Key"

// bearerPrefix is stripped case-insensitively from header values.
const bearerPrefix = "Bearer "

// Extractor pulls an API key credential from an HTTP request.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

// HeaderExtractor reads the credential from the X-API-Key header or,
// failing that, the Authorization header. Either may carry a raw token
// or a "Bearer <token>" form.
type HeaderExtractor struct{}

// NewHeaderExtractor creates the default credential extractor.
func NewHeaderExtractor() *HeaderExtractor {
	return &HeaderExtractor{}
}

// Extract implements Extractor.
func (e *HeaderExtractor) Extract(r *http.Request) (string, error) {
	value := r.Header.Get(APIKeyHeader)
	if value == "" {
		value = r.Header.Get("Authorization")
	}
	if value == "" {
		return "", ErrNoCredential
	}

	return stripBearer(value), nil
}

// stripBearer removes a leading "Bearer " scheme, case-insensitively.
func stripBearer(value string) string {
	if len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(value[len(bearerPrefix):])
	}
	return strings.TrimSpace(value)
}

var _ Extractor = (*HeaderExtractor)(nil)
