package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/taskboard/internal/model"
)

type promptKind int

const (
	promptAddTask promptKind = iota
	promptAddSubTask
	promptEditTask
	promptEditSubTask
	promptSetDate
	promptSearch
	promptAddProject
	promptRenameProject
)

// promptState is the single-line input shown over the board. targetID and
// subID identify what the submitted value applies to.
type promptState struct {
	kind     promptKind
	title    string
	value    string
	targetID int64
	subID    int64
}

func (p promptState) titleText() string {
	switch p.kind {
	case promptSetDate:
		return p.title + " (YYYY-MM-DD, empty clears)"
	default:
		return p.title
	}
}

func parseDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if _, err := time.Parse(model.DateLayout, trimmed); err != nil {
		return "", fmt.Errorf("invalid date %q", trimmed)
	}
	return trimmed, nil
}

func shiftDate(date string, days int) string {
	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return parsed.AddDate(0, 0, days).Format(model.DateLayout)
}
