package domain

import "time"

// InsightRun is the audit record of one narrative generation.
type InsightRun struct {
	ID             string
	View           string
	Title          string
	LLMProvider    string
	LLMModel       string
	Outcome        string // "ok" or a failure category
	Detail         string
	ResponseChars  int
	InputTokens    int64
	OutputTokens   int64
	DurationMillis int64
	Surface        string // "web", "api", "slack", "digest", "cli"
	GeneratedAt    time.Time
}

type InsightStats struct {
	TotalRuns       int
	SuccessfulRuns  int
	FailedRuns      int
	TotalTokens     int64
	AvgDurationMS   float64
	ByProvider      map[string]int
	ByOutcome       map[string]int
	LastGeneratedAt time.Time
}
