package observability

// Metric name prefix
const (
	MetricPrefix = "revreport"
)

// Metric names
const (
	// CRM metrics
	CRMRequestsTotal   = MetricPrefix + ".crm.requests_total"
	CRMRequestDuration = MetricPrefix + ".crm.request_duration"

	// Pipeline metrics
	LeadsFetchedTotal     = MetricPrefix + ".leads.fetched_total"
	ReportsGeneratedTotal = MetricPrefix + ".reports.generated_total"

	// Delivery metrics
	DeliveriesTotal = MetricPrefix + ".deliveries_total"
)

// Label keys
const (
	LabelEndpoint = "endpoint"
	LabelOutcome  = "outcome"
	LabelChannel  = "channel"
)

// Delivery outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
