package testutil

import (
	"time"

	"revreport/models"
)

// CreateTestLead creates a test lead with default values
func CreateTestLead(id, price, managerID int64) models.Lead {
	now := time.Now()
	return models.Lead{
		ID:                id,
		Name:              "Test lead",
		Price:             price,
		ResponsibleUserID: managerID,
		StatusID:          142,
		PipelineID:        1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CreateTestLeadAt creates a test lead created at a specific time
func CreateTestLeadAt(id, price, managerID int64, createdAt time.Time) models.Lead {
	lead := CreateTestLead(id, price, managerID)
	lead.CreatedAt = createdAt
	lead.UpdatedAt = createdAt
	return lead
}

// CreateTestReport creates a report aggregated from simple per-manager rows
func CreateTestReport(date time.Time, rows ...models.ManagerRevenue) *models.RevenueReport {
	report := &models.RevenueReport{
		Date:        date,
		WindowStart: date,
		WindowEnd:   date.AddDate(0, 0, 1),
		ByManager:   rows,
	}
	for _, row := range rows {
		report.TotalRevenue += row.Revenue
		report.LeadCount += row.LeadCount
	}
	return report
}
