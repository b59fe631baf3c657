package notify

import (
	"fmt"
	"strings"

	"revreport/models"
)

// FormatAmount formats a monetary amount with thousand separators
func FormatAmount(amount int64) string {
	str := fmt.Sprintf("%d", amount)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// ManagerLabel returns the display name for a breakdown row, falling back to
// the bare manager ID when no name was resolved
func ManagerLabel(row models.ManagerRevenue) string {
	if row.ManagerName != "" {
		return row.ManagerName
	}
	if row.ManagerID == 0 {
		return "Unassigned"
	}
	return fmt.Sprintf("Manager %d", row.ManagerID)
}

// FormatReport renders the report as a plain-text chat message
func FormatReport(report *models.RevenueReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Revenue report for %s\n", report.Date.Format("2006-01-02"))

	if report.IsEmpty() {
		b.WriteString("\nNo leads were created on this day.")
		return b.String()
	}

	b.WriteString("\n")
	for _, row := range report.ByManager {
		fmt.Fprintf(&b, "%s: %s (%d %s)\n",
			ManagerLabel(row), FormatAmount(row.Revenue), row.LeadCount, pluralLeads(row.LeadCount))
	}

	fmt.Fprintf(&b, "\nTotal: %s across %d %s",
		FormatAmount(report.TotalRevenue), report.LeadCount, pluralLeads(report.LeadCount))
	return b.String()
}

func pluralLeads(n int) string {
	if n == 1 {
		return "lead"
	}
	return "leads"
}
