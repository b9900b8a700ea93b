package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AuthService provides business logic for authentication and company
// context operations. It handles database interactions for tenant data.
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new AuthService instance
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		db: db,
	}
}

// GetCompanyContext retrieves the company context from the database for a
// given company ID. Returns gorm.ErrRecordNotFound if the company is unknown.
func (as *AuthService) GetCompanyContext(companyID string) (*CompanyContext, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company ID is empty")
	}

	var companyCtx CompanyContext
	result := as.db.Where("company_id = ?", companyID).First(&companyCtx)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("company context not found", "company_id", companyID)
			return nil, result.Error
		}
		slog.Error("failed to fetch company context from database",
			"company_id", companyID,
			"error", result.Error,
		)
		return nil, fmt.Errorf("failed to fetch company context: %w", result.Error)
	}

	return &companyCtx, nil
}

// UpsertCompanyContext creates or updates the company context.
// If the company doesn't exist, it will be created with the provided context.
// Useful for initialization or bulk operations.
func (as *AuthService) UpsertCompanyContext(companyID string, context json.RawMessage) error {
	if companyID == "" {
		return fmt.Errorf("company ID is empty")
	}

	if len(context) == 0 {
		return fmt.Errorf("company context is empty")
	}

	// Validate JSON format
	var jsonData interface{}
	if err := json.Unmarshal(context, &jsonData); err != nil {
		return fmt.Errorf("invalid JSON in company context: %w", err)
	}

	result := as.db.Save(&CompanyContext{
		CompanyID:      companyID,
		CompanyContext: context,
	})

	if result.Error != nil {
		slog.Error("failed to upsert company context",
			"company_id", companyID,
			"error", result.Error,
		)
		return fmt.Errorf("failed to upsert company context: %w", result.Error)
	}

	slog.Debug("company context upserted successfully",
		"company_id", companyID,
	)

	return nil
}
