package domain

import "fmt"

// TableID names one of the three static tables.
type TableID string

const (
	TableCalls     TableID = "calls"
	TableIssues    TableID = "issues"
	TableDurations TableID = "durations"
)

// Column headers, in the order the tables present them.
const (
	ColCustomerID          = "Customer ID"
	ColCallDate            = "Call Date"
	ColSentimentScore      = "Sentiment Score"
	ColChurnLikelihood     = "Churn Likelihood"
	ColFollowUpRequired    = "Follow-Up Required"
	ColCallDuration        = "Call Duration Minutes"
	ColWaitTime            = "Customer Wait Time Minutes"
	ColIssueType           = "Issue Type"
	ColCount               = "Count"
	ColAverageCallDuration = "Average Call Duration"
)

type CallRecord struct {
	CustomerID              string
	CallDate                string // YYYY-MM-DD, kept as the literal label
	SentimentScore          float64
	ChurnLikelihood         float64
	FollowUpRequired        string // "Yes" or "No"
	CallDurationMinutes     int
	CustomerWaitTimeMinutes int
	IssueType               string
}

type IssueTypeCount struct {
	IssueType string
	Count     int
}

type IssueTypeDuration struct {
	IssueType           string
	AverageCallDuration int
}

// Dataset holds the three tables a rendering pass works from.
type Dataset struct {
	Calls     []CallRecord
	Issues    []IssueTypeCount
	Durations []IssueTypeDuration
}

func (d Dataset) CallsFrame() Frame {
	cols := []Column{
		{Name: ColCustomerID}, {Name: ColCallDate}, {Name: ColSentimentScore}, {Name: ColChurnLikelihood},
		{Name: ColFollowUpRequired}, {Name: ColCallDuration}, {Name: ColWaitTime}, {Name: ColIssueType},
	}
	for _, r := range d.Calls {
		cols[0].Values = append(cols[0].Values, r.CustomerID)
		cols[1].Values = append(cols[1].Values, r.CallDate)
		cols[2].Values = append(cols[2].Values, r.SentimentScore)
		cols[3].Values = append(cols[3].Values, r.ChurnLikelihood)
		cols[4].Values = append(cols[4].Values, r.FollowUpRequired)
		cols[5].Values = append(cols[5].Values, r.CallDurationMinutes)
		cols[6].Values = append(cols[6].Values, r.CustomerWaitTimeMinutes)
		cols[7].Values = append(cols[7].Values, r.IssueType)
	}
	return Frame{Name: "Sentiment Data", Columns: cols}
}

func (d Dataset) IssuesFrame() Frame {
	cols := []Column{{Name: ColIssueType}, {Name: ColCount}}
	for _, r := range d.Issues {
		cols[0].Values = append(cols[0].Values, r.IssueType)
		cols[1].Values = append(cols[1].Values, r.Count)
	}
	return Frame{Name: "Issue Type Data", Columns: cols}
}

func (d Dataset) DurationsFrame() Frame {
	cols := []Column{{Name: ColIssueType}, {Name: ColAverageCallDuration}}
	for _, r := range d.Durations {
		cols[0].Values = append(cols[0].Values, r.IssueType)
		cols[1].Values = append(cols[1].Values, r.AverageCallDuration)
	}
	return Frame{Name: "Call Duration Data", Columns: cols}
}

// Frame returns the columnar view of the given table.
func (d Dataset) Frame(id TableID) (Frame, error) {
	switch id {
	case TableCalls:
		return d.CallsFrame(), nil
	case TableIssues:
		return d.IssuesFrame(), nil
	case TableDurations:
		return d.DurationsFrame(), nil
	default:
		return Frame{}, fmt.Errorf("unknown table %q", id)
	}
}
