package auth

import (
	"encoding/json"
	"fmt"
)

// CompanyContext represents the context of a company (tenant) in the database.
// This model persists company information and associated metadata.
type CompanyContext struct {
	CompanyID      string          `gorm:"type:varchar(100);column:company_id;primaryKey;not null" json:"company_id"`
	CompanyContext json.RawMessage `gorm:"type:jsonb;column:company_context;serializer:json;not null" json:"company_context"`
}

// TableName specifies the database table name for CompanyContext
func (c *CompanyContext) TableName() string {
	return "company_contexts"
}

// AuthContext represents the authentication context available in a request.
// This is a transient context that is injected into the request by the auth
// middleware. It contains company information retrieved from the database
// based on the token.
type AuthContext struct {
	*CompanyContext
}

// GetCompanyContextMap returns the company context as a map for convenient access.
// If no context exists, it returns an empty map.
func (ac *AuthContext) GetCompanyContextMap() (map[string]any, error) {
	contextMap := make(map[string]any)
	if ac == nil || ac.CompanyContext == nil || len(ac.CompanyContext.CompanyContext) == 0 {
		return contextMap, nil
	}

	if err := json.Unmarshal(ac.CompanyContext.CompanyContext, &contextMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal company context: %w", err)
	}

	return contextMap, nil
}
