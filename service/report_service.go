package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"revreport/config"
	"revreport/events"
	"revreport/models"

	log "github.com/sirupsen/logrus"
)

// ErrAllDeliveriesFailed indicates no recipient on any channel received the
// report. Partial failure is not an error; total failure is.
var ErrAllDeliveriesFailed = errors.New("report was not delivered to any recipient")

// ReportService runs the fetch, aggregate, format, send pipeline for one day
type ReportService struct {
	crm       CRMClient
	notifiers []Notifier
	bus       events.Publisher
	cfg       *config.Config
}

// NewReportService creates the pipeline service
func NewReportService(crm CRMClient, notifiers []Notifier, bus events.Publisher, cfg *config.Config) *ReportService {
	return &ReportService{
		crm:       crm,
		notifiers: notifiers,
		bus:       bus,
		cfg:       cfg,
	}
}

// Run executes one report run for the given date and returns the combined
// delivery stats across all channels
func (s *ReportService) Run(ctx context.Context, date time.Time) (models.DeliveryStats, error) {
	start, end := DayWindow(date, s.cfg.ReportLocation)

	leads, err := s.crm.FetchLeads(ctx, start, end)
	if err != nil {
		return models.DeliveryStats{}, fmt.Errorf("failed to fetch leads: %w", err)
	}
	s.bus.Emit(ctx, events.LeadsFetchedEvent{
		WindowStart: start,
		WindowEnd:   end,
		LeadCount:   len(leads),
	})

	report := BuildRevenueReport(date, start, end, leads)

	if s.cfg.ResolveManagerNames && !report.IsEmpty() {
		managers, err := s.crm.FetchManagers(ctx)
		if err != nil {
			// name resolution is an enrichment, the run continues with bare IDs
			log.Warnf("Failed to resolve manager names: %v", err)
		} else {
			ApplyManagerNames(report, managers)
		}
	}

	s.bus.Emit(ctx, events.ReportGeneratedEvent{Report: report})
	log.WithFields(log.Fields{
		"date":          report.Date.Format("2006-01-02"),
		"leads":         report.LeadCount,
		"total_revenue": report.TotalRevenue,
		"managers":      len(report.ByManager),
	}).Info("Revenue report generated")

	var total models.DeliveryStats
	for _, notifier := range s.notifiers {
		stats, err := notifier.Send(ctx, report)
		if err != nil {
			log.Errorf("Delivery via %s failed: %v", notifier.Name(), err)
		}
		total.Add(stats)
		s.bus.Emit(ctx, events.ReportDeliveredEvent{Channel: notifier.Name(), Stats: stats})
	}

	if total.Sent == 0 {
		return total, ErrAllDeliveriesFailed
	}
	if total.Failed > 0 {
		log.Warnf("Report delivered partially: %d sent, %d failed", total.Sent, total.Failed)
	}
	return total, nil
}

// BuildRevenueReport aggregates leads into a per-manager revenue report.
// It is a pure function; an empty lead list yields an empty report.
func BuildRevenueReport(date, windowStart, windowEnd time.Time, leads []models.Lead) *models.RevenueReport {
	report := &models.RevenueReport{
		Date:        date,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	byManager := make(map[int64]*models.ManagerRevenue)
	for _, lead := range leads {
		row, ok := byManager[lead.ResponsibleUserID]
		if !ok {
			row = &models.ManagerRevenue{ManagerID: lead.ResponsibleUserID}
			byManager[lead.ResponsibleUserID] = row
		}
		row.Revenue += lead.Price
		row.LeadCount++

		report.TotalRevenue += lead.Price
		report.LeadCount++
	}

	report.ByManager = make([]models.ManagerRevenue, 0, len(byManager))
	for _, row := range byManager {
		report.ByManager = append(report.ByManager, *row)
	}
	sort.Slice(report.ByManager, func(i, j int) bool {
		a, b := report.ByManager[i], report.ByManager[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.ManagerID < b.ManagerID
	})

	return report
}

// ApplyManagerNames fills in manager names on the report's breakdown rows.
// Rows without a matching manager keep an empty name.
func ApplyManagerNames(report *models.RevenueReport, managers []models.Manager) {
	names := make(map[int64]string, len(managers))
	for _, m := range managers {
		names[m.ID] = m.Name
	}
	for i := range report.ByManager {
		report.ByManager[i].ManagerName = names[report.ByManager[i].ManagerID]
	}
}
