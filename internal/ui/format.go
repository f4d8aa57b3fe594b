// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for ledger rows and delivery progress

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/harper/colony/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultMarker is shown in place of the remaining amount once a row is satisfied.
const DefaultMarker = "✅"

var hundred = decimal.NewFromInt(100)

// FormatQuantity renders an amount with thousands separators.
func FormatQuantity(n int64) string {
	return humanize.Comma(n)
}

// FormatRemaining renders the remaining amount, or marker once nothing remains.
func FormatRemaining(req *models.Requirement, marker string) string {
	if req.Complete() {
		if marker == "" {
			marker = DefaultMarker
		}
		return marker
	}
	return FormatQuantity(req.Remaining())
}

// FormatProgress returns the delivered share of the requirement as a percentage.
// Rows with nothing required render "-".
func FormatProgress(req *models.Requirement) string {
	if req.AmountRequired <= 0 {
		return "-"
	}
	pct := decimal.NewFromInt(req.QuantityDelivered).
		Mul(hundred).
		Div(decimal.NewFromInt(req.AmountRequired)).
		Round(1)
	return pct.StringFixed(1) + "%"
}

// FormatRequirement formats one ledger row for terminal display.
func FormatRequirement(req *models.Requirement, marker string) string {
	if req == nil {
		return color.New(color.Faint).Sprint("(invalid row)")
	}

	// Pad before coloring so escape codes do not skew the columns.
	remaining := fmt.Sprintf("%10s", FormatRemaining(req, marker))
	if req.Complete() {
		remaining = color.GreenString(remaining)
	} else {
		remaining = color.YellowString(remaining)
	}

	return fmt.Sprintf("%s %10s %s %10s %s",
		color.CyanString("%-19s", req.Commodity),
		FormatQuantity(req.AmountRequired),
		remaining,
		FormatQuantity(req.QuantityDelivered),
		color.New(color.Faint).Sprintf("%8s", FormatProgress(req)))
}

// FormatHeader returns the column header matching FormatRequirement.
func FormatHeader() string {
	header := fmt.Sprintf("%-19s %10s %10s %10s %8s", "Commodity", "Required", "Remaining", "Delivered", "Progress")
	return color.New(color.Bold).Sprint(header) + "\n" + strings.Repeat("-", len(header))
}

// FilterCompleted drops satisfied rows unless showCompleted is set.
func FilterCompleted(reqs []*models.Requirement, showCompleted bool) []*models.Requirement {
	if showCompleted {
		return reqs
	}
	out := make([]*models.Requirement, 0, len(reqs))
	for _, req := range reqs {
		if !req.Complete() {
			out = append(out, req)
		}
	}
	return out
}

// SiteTotals sums the required and delivered amounts of a site's rows.
func SiteTotals(reqs []*models.Requirement) (required, delivered int64) {
	for _, req := range reqs {
		required += req.AmountRequired
		delivered += req.QuantityDelivered
	}
	return required, delivered
}

// FormatSiteSummary formats a one-line overview of a site's ledger.
func FormatSiteSummary(site string, reqs []*models.Requirement) string {
	if len(reqs) == 0 {
		return fmt.Sprintf("%s - %s",
			color.GreenString(site),
			color.New(color.Faint).Sprint("no requirements"))
	}

	done := 0
	var lastUpdate time.Time
	for _, req := range reqs {
		if req.Complete() {
			done++
		}
		if req.UpdatedAt.After(lastUpdate) {
			lastUpdate = req.UpdatedAt
		}
	}

	required, delivered := SiteTotals(reqs)
	total := &models.Requirement{AmountRequired: required, QuantityDelivered: delivered}
	return fmt.Sprintf("%s - %d/%d complete, %s delivered (%s)",
		color.GreenString(site),
		done, len(reqs),
		FormatProgress(total),
		color.New(color.Faint).Sprint(FormatRelativeTime(lastUpdate)))
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
