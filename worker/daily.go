package worker

import (
	"context"
	"time"

	"revreport/models"

	log "github.com/sirupsen/logrus"
)

// ReportRunner runs one report pipeline execution for a date
type ReportRunner interface {
	Run(ctx context.Context, date time.Time) (models.DeliveryStats, error)
}

// DailyWorker triggers the report pipeline once a day at a fixed hour
type DailyWorker struct {
	runner ReportRunner
	hour   int
	loc    *time.Location
}

// NewDailyWorker creates a worker firing at the given hour in the given location
func NewDailyWorker(runner ReportRunner, hour int, loc *time.Location) *DailyWorker {
	return &DailyWorker{
		runner: runner,
		hour:   hour,
		loc:    loc,
	}
}

// NextRun returns the next trigger time strictly after now
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)

	// If the trigger time has already passed today, schedule for tomorrow
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// Start begins the daily scheduling loop and returns a stop function
func (w *DailyWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("Daily report worker started, firing at %02d:00 %s", w.hour, w.loc)

		for {
			waitDuration := time.Until(NextRun(time.Now(), w.hour, w.loc))
			log.Infof("Daily report worker waiting %v until next run", waitDuration.Round(time.Second))

			select {
			case <-ctx.Done():
				log.Info("Daily report worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Daily report worker shutting down (stop requested)")
				return
			case <-time.After(waitDuration):
				w.runOnce(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// runOnce executes one pipeline run. A failed run is logged and the worker
// keeps scheduling; a daemon must survive a bad day.
func (w *DailyWorker) runOnce(ctx context.Context) {
	date := time.Now().In(w.loc)
	stats, err := w.runner.Run(ctx, date)
	if err != nil {
		log.Errorf("Scheduled report run for %s failed: %v", date.Format("2006-01-02"), err)
		return
	}

	log.WithFields(log.Fields{
		"date":   date.Format("2006-01-02"),
		"sent":   stats.Sent,
		"failed": stats.Failed,
	}).Info("Scheduled report run completed")
}
