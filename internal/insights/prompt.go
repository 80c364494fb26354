package insights

import (
	"encoding/json"
	"fmt"

	"insightdash/internal/domain"
)

type combinedData struct {
	Sentiment domain.Frame `json:"Sentiment Data"`
	Issues    domain.Frame `json:"Issue Type Data"`
	Durations domain.Frame `json:"Call Duration Data"`
}

// CombinedData serializes all three tables, whatever view is showing.
func CombinedData(ds domain.Dataset) (string, error) {
	b, err := json.Marshal(combinedData{
		Sentiment: ds.CallsFrame(),
		Issues:    ds.IssuesFrame(),
		Durations: ds.DurationsFrame(),
	})
	if err != nil {
		return "", fmt.Errorf("encoding dataset: %w", err)
	}
	return string(b), nil
}

func SystemPrompt(companyName string) string {
	return "You are a helpful AI assistant analyzing data for insights, predictions and recommendations for an e-hailing company named " + companyName + "."
}

func UserPrompt(title, data string) string {
	return fmt.Sprintf("Analyze the following data for the chart titled '%s':\n%s\nProvide a summary, insights, prediction and recommended actions.", title, data)
}
