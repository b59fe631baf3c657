package service

import (
	"context"
	"time"

	"revreport/models"

	"github.com/stretchr/testify/mock"
)

// MockCRMClient is a mock implementation of CRMClient
type MockCRMClient struct {
	mock.Mock
}

func (m *MockCRMClient) FetchLeads(ctx context.Context, from, to time.Time) ([]models.Lead, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

func (m *MockCRMClient) FetchManagers(ctx context.Context) ([]models.Manager, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Manager), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) Send(ctx context.Context, report *models.RevenueReport) (models.DeliveryStats, error) {
	args := m.Called(ctx, report)
	return args.Get(0).(models.DeliveryStats), args.Error(1)
}
