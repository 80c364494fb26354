package dashboard

import "insightdash/internal/domain"

type ChartKind string

const (
	KindLine ChartKind = "line"
	KindBar  ChartKind = "bar"
	KindPie  ChartKind = "pie"
)

type BarMode string

const (
	BarModeRelative BarMode = ""
	BarModeGroup    BarMode = "group"
)

// Chart ids, stable across releases; they appear in image URLs.
const (
	ChartSentiment       = "sentiment"
	ChartChurn           = "churn"
	ChartFollowUp        = "follow-up"
	ChartCallMetrics     = "call-metrics"
	ChartIssueTypes      = "issue-types"
	ChartDurationByIssue = "duration-by-issue"
)

// ChartSpec declares a chart as data: which table, which columns feed which
// axis, and how it is colored. Values empty on a pie means "count rows per
// name".
type ChartSpec struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Kind    ChartKind      `json:"kind"`
	Table   domain.TableID `json:"table"`
	X       string         `json:"x,omitempty"`
	Y       []string       `json:"y,omitempty"`
	Names   string         `json:"names,omitempty"`
	Values  string         `json:"values,omitempty"`
	ColorBy string         `json:"color_by,omitempty"`
	Hole    float64        `json:"hole,omitempty"`
	BarMode BarMode        `json:"bar_mode,omitempty"`
}

var chartSpecs = []ChartSpec{
	{
		ID:    ChartSentiment,
		Title: "Average Sentiment Score by Call Date",
		Kind:  KindLine,
		Table: domain.TableCalls,
		X:     domain.ColCallDate,
		Y:     []string{domain.ColSentimentScore},
	},
	{
		ID:      ChartChurn,
		Title:   "Churn Prediction by Customer ID",
		Kind:    KindBar,
		Table:   domain.TableCalls,
		X:       domain.ColCustomerID,
		Y:       []string{domain.ColChurnLikelihood},
		ColorBy: domain.ColCustomerID,
	},
	{
		ID:    ChartFollowUp,
		Title: "Follow-Up Analysis by Issue Types",
		Kind:  KindPie,
		Table: domain.TableCalls,
		Names: domain.ColFollowUpRequired,
		Hole:  0.4,
	},
	{
		ID:      ChartCallMetrics,
		Title:   "Call Metrics",
		Kind:    KindBar,
		Table:   domain.TableCalls,
		X:       domain.ColCallDate,
		Y:       []string{domain.ColCallDuration, domain.ColWaitTime},
		BarMode: BarModeGroup,
	},
	{
		ID:     ChartIssueTypes,
		Title:  "Customer Service Issue Types Breakdown (TADA)",
		Kind:   KindPie,
		Table:  domain.TableIssues,
		Names:  domain.ColIssueType,
		Values: domain.ColCount,
	},
	{
		ID:      ChartDurationByIssue,
		Title:   "Average Call Duration by Issue Type",
		Kind:    KindBar,
		Table:   domain.TableDurations,
		X:       domain.ColIssueType,
		Y:       []string{domain.ColAverageCallDuration},
		ColorBy: domain.ColIssueType,
	},
}

// Main shows every chart, two per row, in declaration order.
var viewCharts = map[View][]string{
	ViewMain: {
		ChartSentiment, ChartChurn,
		ChartFollowUp, ChartCallMetrics,
		ChartIssueTypes, ChartDurationByIssue,
	},
	ViewSentiment:       {ChartSentiment},
	ViewChurn:           {ChartChurn},
	ViewFollowUp:        {ChartFollowUp},
	ViewCallMetrics:     {ChartCallMetrics},
	ViewIssueTypes:      {ChartIssueTypes},
	ViewDurationByIssue: {ChartDurationByIssue},
}

// Specs returns a copy of every chart spec in declaration order.
func Specs() []ChartSpec {
	out := make([]ChartSpec, len(chartSpecs))
	for i, s := range chartSpecs {
		out[i] = s.clone()
	}
	return out
}

func SpecByID(id string) (ChartSpec, bool) {
	for _, s := range chartSpecs {
		if s.ID == id {
			return s.clone(), true
		}
	}
	return ChartSpec{}, false
}

// ChartIDs returns the ids of the charts a view shows, in layout order.
func ChartIDs(v View) []string {
	return append([]string(nil), viewCharts[v]...)
}

func (s ChartSpec) clone() ChartSpec {
	s.Y = append([]string(nil), s.Y...)
	return s
}
