package implementation

import (
	"fmt"
	"sort"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// createPayComponents is phase 3: the fixed catalog of statutory and
// standard components, then one earning component per (band, allowance
// type) pair discovered by analysis. Phase 5 looks these up by code, so
// codes must be deterministic. Components that already exist for the
// company are kept as-is, so a later run cannot trip the unique index.
func (e *Executor) createPayComponents(r *run) error {
	bands := r.task.Analysis.BandsFound
	bandNames := make([]string, 0, len(bands))
	pairCount := 0
	for band, types := range bands {
		bandNames = append(bandNames, band)
		pairCount += len(types)
	}
	sort.Strings(bandNames)

	r.beginPhase(3, len(componentCatalog)+pairCount, "creating pay components")

	companyID := r.task.CompanyID
	taskID := r.task.ID

	ensure := func(component model.PayComponent) error {
		result := e.db.WithContext(r.ctx).
			Where("company_id = ? AND code = ?", component.CompanyID, component.Code).
			FirstOrCreate(&component)
		if result.Error != nil {
			return fmt.Errorf("phase 3: failed to create component %s: %w", component.Code, result.Error)
		}
		if result.RowsAffected > 0 {
			r.result.ComponentsCreated++
		}
		r.unitDone()
		return nil
	}

	for _, seed := range componentCatalog {
		err := ensure(model.PayComponent{
			CompanyID:    companyID,
			Code:         seed.Code,
			Name:         seed.Name,
			Kind:         seed.Kind,
			Taxable:      seed.Taxable,
			SourceTaskID: &taskID,
		})
		if err != nil {
			return err
		}
	}

	for _, band := range bandNames {
		for _, allowanceType := range bands[band] {
			err := ensure(model.PayComponent{
				CompanyID:     companyID,
				Code:          bandComponentCode(band, allowanceType),
				Name:          fmt.Sprintf("%s Allowance (%s)", allowanceType, band),
				Kind:          model.ComponentKindEarning,
				Taxable:       true,
				Band:          band,
				AllowanceType: allowanceType,
				SourceTaskID:  &taskID,
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}
