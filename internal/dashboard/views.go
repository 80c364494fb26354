package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownView = errors.New("unknown view")

// View is one entry of the sidebar. The set is closed.
type View string

const (
	ViewMain            View = "Main"
	ViewSentiment       View = "Sentiment Score"
	ViewChurn           View = "Churn Prediction"
	ViewFollowUp        View = "Follow-Up Analysis"
	ViewCallMetrics     View = "Call Metrics"
	ViewIssueTypes      View = "Issue Types Breakdown"
	ViewDurationByIssue View = "Call Duration by Issue"
)

// Views lists every view in sidebar order.
var Views = []View{
	ViewMain,
	ViewSentiment,
	ViewChurn,
	ViewFollowUp,
	ViewCallMetrics,
	ViewIssueTypes,
	ViewDurationByIssue,
}

func (v View) String() string { return string(v) }

// Slug is the URL-safe form used in routes and Slack action values.
func (v View) Slug() string {
	return strings.ToLower(strings.ReplaceAll(string(v), " ", "-"))
}

// Title is the chart title handed to the narrative generator.
func (v View) Title() string {
	return string(v) + " Dashboard"
}

// Heading is the subheader shown above the charts.
func (v View) Heading() string {
	if v == ViewMain {
		return "Main Dashboard Overview"
	}
	return ""
}

// Columns is the number of chart columns the view lays out.
func (v View) Columns() int {
	if v == ViewMain {
		return 2
	}
	return 1
}

func (v View) Valid() bool {
	_, ok := viewCharts[v]
	return ok
}

// ParseView accepts a display name or a slug, case-insensitively.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	for _, v := range Views {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Slug()) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownView, s)
}
