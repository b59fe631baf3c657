package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"revreport/amocrm"
	"revreport/config"
	"revreport/events"
	"revreport/models"
	"revreport/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildRevenueReportEmpty(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := BuildRevenueReport(date, date, date.AddDate(0, 0, 1), nil)

	assert.Equal(t, int64(0), report.TotalRevenue)
	assert.Equal(t, 0, report.LeadCount)
	assert.Empty(t, report.ByManager)
	assert.True(t, report.IsEmpty())
}

func TestBuildRevenueReportSumsPrices(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	leads := []models.Lead{
		testutil.CreateTestLead(1, 100, 10),
		testutil.CreateTestLead(2, 200, 10),
		testutil.CreateTestLead(3, 300, 10),
	}

	report := BuildRevenueReport(date, date, date.AddDate(0, 0, 1), leads)

	assert.Equal(t, int64(600), report.TotalRevenue)
	assert.Equal(t, 3, report.LeadCount)
	require.Len(t, report.ByManager, 1)
	assert.Equal(t, int64(600), report.ByManager[0].Revenue)
	assert.Equal(t, 3, report.ByManager[0].LeadCount)
}

func TestBuildRevenueReportGroupsByManager(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	leads := []models.Lead{
		testutil.CreateTestLead(1, 500, 20),
		testutil.CreateTestLead(2, 100, 10),
		testutil.CreateTestLead(3, 300, 10),
		testutil.CreateTestLead(4, 0, 0), // unassigned lead
	}

	report := BuildRevenueReport(date, date, date.AddDate(0, 0, 1), leads)

	assert.Equal(t, int64(900), report.TotalRevenue)
	assert.Equal(t, 4, report.LeadCount)
	require.Len(t, report.ByManager, 3)

	// sorted by revenue descending
	assert.Equal(t, int64(20), report.ByManager[0].ManagerID)
	assert.Equal(t, int64(500), report.ByManager[0].Revenue)
	assert.Equal(t, int64(10), report.ByManager[1].ManagerID)
	assert.Equal(t, int64(400), report.ByManager[1].Revenue)
	assert.Equal(t, 2, report.ByManager[1].LeadCount)
	assert.Equal(t, int64(0), report.ByManager[2].ManagerID)
}

func TestBuildRevenueReportTieOrderIsDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	leads := []models.Lead{
		testutil.CreateTestLead(1, 250, 30),
		testutil.CreateTestLead(2, 250, 10),
		testutil.CreateTestLead(3, 250, 20),
	}

	report := BuildRevenueReport(date, date, date.AddDate(0, 0, 1), leads)

	require.Len(t, report.ByManager, 3)
	assert.Equal(t, int64(10), report.ByManager[0].ManagerID)
	assert.Equal(t, int64(20), report.ByManager[1].ManagerID)
	assert.Equal(t, int64(30), report.ByManager[2].ManagerID)
}

func TestApplyManagerNames(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := testutil.CreateTestReport(date,
		models.ManagerRevenue{ManagerID: 10, Revenue: 100, LeadCount: 1},
		models.ManagerRevenue{ManagerID: 99, Revenue: 50, LeadCount: 1},
	)

	ApplyManagerNames(report, []models.Manager{{ID: 10, Name: "Alice"}})

	assert.Equal(t, "Alice", report.ByManager[0].ManagerName)
	assert.Equal(t, "", report.ByManager[1].ManagerName)
}

func TestDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	date := time.Date(2024, 3, 1, 15, 30, 0, 0, loc)
	start, end := DayWindow(date, loc)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, loc), end)
}

func TestRunAuthFailureSendsNothing(t *testing.T) {
	cfg := config.NewTestConfig()
	crm := new(MockCRMClient)
	notifier := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, amocrm.ErrAuthFailed)

	svc := NewReportService(crm, []Notifier{notifier}, events.NewBus(), cfg)
	_, err := svc.Run(context.Background(), time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, amocrm.ErrAuthFailed))
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRunDeliversToAllNotifiers(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.ResolveManagerNames = false
	crm := new(MockCRMClient)
	telegram := new(MockNotifier)
	discord := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Lead{testutil.CreateTestLead(1, 100, 10)}, nil)

	telegram.On("Name").Return("telegram")
	telegram.On("Send", mock.Anything, mock.Anything).
		Return(models.DeliveryStats{Sent: 2}, nil)
	discord.On("Name").Return("discord")
	discord.On("Send", mock.Anything, mock.Anything).
		Return(models.DeliveryStats{Sent: 1}, nil)

	svc := NewReportService(crm, []Notifier{telegram, discord}, events.NewBus(), cfg)
	stats, err := svc.Run(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sent)
	assert.Equal(t, 0, stats.Failed)
	telegram.AssertExpectations(t)
	discord.AssertExpectations(t)
}

func TestRunPartialDeliveryFailureIsNotAnError(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.ResolveManagerNames = false
	crm := new(MockCRMClient)
	notifier := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Lead{testutil.CreateTestLead(1, 100, 10)}, nil)
	notifier.On("Name").Return("telegram")
	notifier.On("Send", mock.Anything, mock.Anything).
		Return(models.DeliveryStats{Sent: 1, Failed: 1}, nil)

	svc := NewReportService(crm, []Notifier{notifier}, events.NewBus(), cfg)
	stats, err := svc.Run(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Failed)
}

func TestRunTotalDeliveryFailure(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.ResolveManagerNames = false
	crm := new(MockCRMClient)
	notifier := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Lead{testutil.CreateTestLead(1, 100, 10)}, nil)
	notifier.On("Name").Return("telegram")
	notifier.On("Send", mock.Anything, mock.Anything).
		Return(models.DeliveryStats{Failed: 2}, errors.New("bot unreachable"))

	svc := NewReportService(crm, []Notifier{notifier}, events.NewBus(), cfg)
	_, err := svc.Run(context.Background(), time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllDeliveriesFailed))
}

func TestRunManagerResolutionFailureDegrades(t *testing.T) {
	cfg := config.NewTestConfig()
	crm := new(MockCRMClient)
	notifier := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Lead{testutil.CreateTestLead(1, 100, 10)}, nil)
	crm.On("FetchManagers", mock.Anything).
		Return(nil, errors.New("users endpoint down"))
	notifier.On("Name").Return("telegram")
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(r *models.RevenueReport) bool {
		return len(r.ByManager) == 1 && r.ByManager[0].ManagerName == ""
	})).Return(models.DeliveryStats{Sent: 1}, nil)

	svc := NewReportService(crm, []Notifier{notifier}, events.NewBus(), cfg)
	stats, err := svc.Run(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	notifier.AssertExpectations(t)
}

func TestRunResolvesManagerNames(t *testing.T) {
	cfg := config.NewTestConfig()
	crm := new(MockCRMClient)
	notifier := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Lead{testutil.CreateTestLead(1, 100, 10)}, nil)
	crm.On("FetchManagers", mock.Anything).
		Return([]models.Manager{{ID: 10, Name: "Alice"}}, nil)
	notifier.On("Name").Return("telegram")
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(r *models.RevenueReport) bool {
		return r.ByManager[0].ManagerName == "Alice"
	})).Return(models.DeliveryStats{Sent: 1}, nil)

	svc := NewReportService(crm, []Notifier{notifier}, events.NewBus(), cfg)
	_, err := svc.Run(context.Background(), time.Now())

	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestRunEmptyDayStillDelivers(t *testing.T) {
	cfg := config.NewTestConfig()
	crm := new(MockCRMClient)
	notifier := new(MockNotifier)

	crm.On("FetchLeads", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Lead{}, nil)
	notifier.On("Name").Return("telegram")
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(r *models.RevenueReport) bool {
		return r.IsEmpty()
	})).Return(models.DeliveryStats{Sent: 1}, nil)

	svc := NewReportService(crm, []Notifier{notifier}, events.NewBus(), cfg)
	_, err := svc.Run(context.Background(), time.Now())

	require.NoError(t, err)
	// no managers to resolve on an empty day
	crm.AssertNotCalled(t, "FetchManagers", mock.Anything)
	notifier.AssertExpectations(t)
}
