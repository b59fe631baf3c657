package cmd

import (
	"testing"
	"time"

	"revreport/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportDateNegativeOffsetZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	date, err := parseReportDate("2026-08-30", loc)
	require.NoError(t, err)

	// the window must cover the requested calendar day in the report zone,
	// not shift back a day because the date was read as UTC midnight
	start, end := service.DayWindow(date, loc)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, loc), end)
}

func TestParseReportDatePositiveOffsetZone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	date, err := parseReportDate("2026-08-30", loc)
	require.NoError(t, err)

	start, _ := service.DayWindow(date, loc)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), start)
}

func TestParseReportDateInvalid(t *testing.T) {
	_, err := parseReportDate("30.08.2026", time.UTC)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected YYYY-MM-DD")
}
