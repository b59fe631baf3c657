package notify

import (
	"bytes"
	"errors"

	"revreport/models"

	chart "github.com/wcharczuk/go-chart/v2"
)

// RenderRevenueChart renders the per-manager breakdown as a PNG bar chart
func RenderRevenueChart(report *models.RevenueReport) ([]byte, error) {
	if report.IsEmpty() {
		return nil, errors.New("nothing to chart for an empty report")
	}

	bars := make([]chart.Value, 0, len(report.ByManager))
	var maxRevenue int64
	for _, row := range report.ByManager {
		if row.Revenue > maxRevenue {
			maxRevenue = row.Revenue
		}
		bars = append(bars, chart.Value{
			Value: float64(row.Revenue),
			Label: ManagerLabel(row),
		})
	}

	// go-chart rejects an all-zero value range
	yMax := float64(maxRevenue)
	if yMax <= 0 {
		yMax = 1
	}

	graph := chart.BarChart{
		Title:    "Revenue by manager, " + report.Date.Format("2006-01-02"),
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:   50,
			Left:  16,
			Right: 16,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
