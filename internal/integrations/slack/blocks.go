package slackbot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"insightdash/internal/dashboard"
	"insightdash/internal/insights"

	"github.com/slack-go/slack"
)

// Slack rejects section text longer than 3000 characters.
const maxSectionChars = 3000

func viewBlocks(appTitle string, current dashboard.View) []slack.Block {
	var options []*slack.OptionBlockObject
	var initial *slack.OptionBlockObject
	for _, v := range dashboard.Views {
		opt := slack.NewOptionBlockObject(v.Slug(), slack.NewTextBlockObject(slack.PlainTextType, v.String(), false, false), nil)
		options = append(options, opt)
		if v == current {
			initial = opt
		}
	}
	picker := slack.NewOptionsSelectBlockElement(
		slack.OptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Select Tab", false, false),
		actionSelectView,
		options...,
	)
	if initial != nil {
		picker = picker.WithInitialOption(initial)
	}

	charts := dashboard.ChartIDs(current)
	summary := fmt.Sprintf("*%s*: %d chart", current, len(charts))
	if len(charts) != 1 {
		summary += "s"
	}
	if h := current.Heading(); h != "" {
		summary = "*" + h + "*"
	}

	askAI := slack.NewButtonBlockElement(actionAskAI, current.Slug(),
		slack.NewTextBlockObject(slack.PlainTextType, "Ask AI", false, false))

	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, appTitle, false, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, summary, false, false),
			nil,
			slack.NewAccessory(picker),
			slack.SectionBlockOptionBlockID(blockViewPicker),
		),
		slack.NewActionBlock(blockAskAI, askAI),
	}
}

func insightBlocks(res insights.Result) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "AI Insights", false, false)),
	}
	if res.Title != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, res.Title, false, false)))
	}
	for _, chunk := range chunkText(res.Display(), maxSectionChars) {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, chunk, false, false), nil, nil))
	}
	if res.Failure != nil {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf(":warning: generation failed (%s)", res.Failure.Category), false, false)))
	}
	return blocks
}

// chunkText splits text into pieces of at most limit runes, preferring to
// break after a newline.
func chunkText(text string, limit int) []string {
	if text == "" {
		return []string{" "}
	}
	var out []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if nl := strings.LastIndex(text[:cut], "\n"); nl > 0 {
			cut = nl + 1
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func byteOffset(s string, runes int) int {
	i := 0
	for pos := range s {
		if i == runes {
			return pos
		}
		i++
	}
	return len(s)
}
