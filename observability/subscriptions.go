package observability

import (
	"context"

	"revreport/events"
)

// BindEventBus wires pipeline events to metric instruments so the pipeline
// itself stays free of metrics calls
func (mp *MetricsProvider) BindEventBus(bus *events.Bus) {
	bus.Subscribe(events.EventTypeLeadsFetched, func(ctx context.Context, event events.Event) {
		e := event.(events.LeadsFetchedEvent)
		mp.RecordLeadsFetched(e.LeadCount)
	})

	bus.Subscribe(events.EventTypeReportGenerated, func(ctx context.Context, event events.Event) {
		mp.RecordReportGenerated()
	})

	bus.Subscribe(events.EventTypeReportDelivered, func(ctx context.Context, event events.Event) {
		e := event.(events.ReportDeliveredEvent)
		mp.RecordDeliveries(e.Channel, OutcomeSuccess, e.Stats.Sent)
		mp.RecordDeliveries(e.Channel, OutcomeFailure, e.Stats.Failed)
	})
}
