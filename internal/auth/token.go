package auth

import (
	"fmt"
	"strings"
)

// TokenExtractor resolves a bearer token to a company ID. Tokens are
// currently opaque API keys of the form "hrms_<companyID>"; JWT validation
// can replace ExtractCompanyIDFromHeader without touching the middleware.
type TokenExtractor struct{}

func NewTokenExtractor() *TokenExtractor {
	return &TokenExtractor{}
}

const tokenPrefix = "hrms_"

// ExtractCompanyIDFromHeader parses an Authorization header value and
// returns the company ID encoded in the token.
func (te *TokenExtractor) ExtractCompanyIDFromHeader(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", fmt.Errorf("authorization header is not a bearer token")
	}

	companyID, ok := strings.CutPrefix(strings.TrimSpace(token), tokenPrefix)
	if !ok || companyID == "" {
		return "", fmt.Errorf("token is not a valid API key")
	}

	return companyID, nil
}
