package service

import (
	"context"
	"time"

	"revreport/models"
)

// CRMClient fetches leads and users from the CRM API
type CRMClient interface {
	// FetchLeads returns all leads created within [from, to)
	FetchLeads(ctx context.Context, from, to time.Time) ([]models.Lead, error)

	// FetchManagers returns all CRM users for manager name resolution
	FetchManagers(ctx context.Context) ([]models.Manager, error)
}

// Notifier delivers a finished report to one channel's recipients.
// Implementations report per-recipient failures through the returned stats
// and keep attempting the remaining recipients.
type Notifier interface {
	// Name identifies the channel in logs, events and metrics
	Name() string

	Send(ctx context.Context, report *models.RevenueReport) (models.DeliveryStats, error)
}
