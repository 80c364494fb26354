package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestSampleDatasetRowCounts(t *testing.T) {
	ds := SampleDataset()
	if len(ds.Calls) != 9 {
		t.Fatalf("expected 9 call records, got %d", len(ds.Calls))
	}
	if len(ds.Issues) != 5 {
		t.Fatalf("expected 5 issue counts, got %d", len(ds.Issues))
	}
	if len(ds.Durations) != 5 {
		t.Fatalf("expected 5 issue durations, got %d", len(ds.Durations))
	}
}

func TestSampleDatasetReturnsIndependentCopies(t *testing.T) {
	first := SampleDataset()
	first.Calls[0].SentimentScore = 99
	first.Issues[0].Count = -1
	first.Durations = first.Durations[:1]

	second := SampleDataset()
	if second.Calls[0].SentimentScore != 0.5 {
		t.Fatalf("mutation leaked into a later dataset: %v", second.Calls[0].SentimentScore)
	}
	if second.Issues[0].Count != 45 {
		t.Fatalf("mutation leaked into a later dataset: %d", second.Issues[0].Count)
	}
	if len(second.Durations) != 5 {
		t.Fatalf("expected 5 durations, got %d", len(second.Durations))
	}
}

func TestCallsFrameColumnOrder(t *testing.T) {
	frame := SampleDataset().CallsFrame()
	want := []string{
		"Customer ID", "Call Date", "Sentiment Score", "Churn Likelihood",
		"Follow-Up Required", "Call Duration Minutes", "Customer Wait Time Minutes", "Issue Type",
	}
	got := frame.ColumnNames()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected column order: %v", got)
	}
	if frame.Len() != 9 {
		t.Fatalf("expected 9 rows, got %d", frame.Len())
	}
}

func TestFrameLabelsAndNumbers(t *testing.T) {
	frame := SampleDataset().CallsFrame()

	labels, err := frame.Labels(ColCallDate)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if labels[0] != "2025-01-01" || labels[8] != "2025-01-09" {
		t.Fatalf("unexpected date labels: %v", labels)
	}

	durations, err := frame.Numbers(ColCallDuration)
	if err != nil {
		t.Fatalf("Numbers: %v", err)
	}
	if durations[2] != 12 {
		t.Fatalf("expected third duration 12, got %v", durations[2])
	}

	scores, err := frame.Labels(ColSentimentScore)
	if err != nil {
		t.Fatalf("Labels on numeric column: %v", err)
	}
	if scores[1] != "0.55" {
		t.Fatalf("expected float label 0.55, got %q", scores[1])
	}
}

func TestFrameColumnErrors(t *testing.T) {
	frame := SampleDataset().IssuesFrame()

	if _, err := frame.Numbers("Missing"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := frame.Numbers(ColIssueType); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("expected ErrNotNumeric, got %v", err)
	}
}

func TestDatasetFrameUnknownTable(t *testing.T) {
	if _, err := SampleDataset().Frame(TableID("nope")); err == nil {
		t.Fatal("expected an error for an unknown table")
	}
}

func TestFrameMarshalJSONShape(t *testing.T) {
	data, err := json.Marshal(SampleDataset().CallsFrame())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	payload := string(data)

	if got := gjson.Get(payload, "Customer ID.0").String(); got != "C001" {
		t.Fatalf("expected C001 at Customer ID.0, got %q", got)
	}
	if got := gjson.Get(payload, "Churn Likelihood.8").Float(); got != 0.9 {
		t.Fatalf("expected 0.9 at Churn Likelihood.8, got %v", got)
	}
	if got := gjson.Get(payload, "Call Duration Minutes.5").Int(); got != 13 {
		t.Fatalf("expected 13 at Call Duration Minutes.5, got %d", got)
	}
	if !strings.HasPrefix(payload, `{"Customer ID":{"0":"C001"`) {
		t.Fatalf("expected column order to be preserved, got %s", payload[:40])
	}
}
