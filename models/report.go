package models

import (
	"time"
)

// ManagerRevenue is one row of the per-manager revenue breakdown
type ManagerRevenue struct {
	ManagerID   int64
	ManagerName string // empty when name resolution is disabled or failed
	Revenue     int64
	LeadCount   int
}

// RevenueReport represents the aggregated revenue for one report window
type RevenueReport struct {
	Date         time.Time // calendar day the report covers
	WindowStart  time.Time
	WindowEnd    time.Time
	TotalRevenue int64
	LeadCount    int
	ByManager    []ManagerRevenue // sorted by revenue descending, manager ID ascending on ties
}

// IsEmpty reports whether the window contained no leads
func (r *RevenueReport) IsEmpty() bool {
	return r.LeadCount == 0
}

// DeliveryStats tracks how a report delivery went across recipients
type DeliveryStats struct {
	Sent   int
	Failed int
}

// Add merges another stats value into this one
func (s *DeliveryStats) Add(other DeliveryStats) {
	s.Sent += other.Sent
	s.Failed += other.Failed
}
