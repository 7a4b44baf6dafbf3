package model

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const (
	ViewToday    = "today"
	ViewInbox    = "inbox"
	ViewCalendar = "calendar"
	ViewSearch   = "search"
)

var ReservedViews = []string{ViewInbox, ViewToday, ViewCalendar, ViewSearch}

// IsReservedView reports whether name is one of the built-in views,
// ignoring case and surrounding space.
func IsReservedView(name string) bool {
	value := strings.ToLower(strings.TrimSpace(name))
	for _, view := range ReservedViews {
		if view == value {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts any casing of High/Medium/Low.
func ParsePriority(value string) (Priority, bool) {
	trimmed := strings.TrimSpace(value)
	for _, p := range Priorities {
		if strings.EqualFold(string(p), trimmed) {
			return p, true
		}
	}
	return "", false
}

func (p Priority) Valid() bool {
	_, ok := ParsePriority(string(p))
	return ok
}

// Next cycles High -> Medium -> Low -> High. Unset priorities start at High.
func (p Priority) Next() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityHigh
}

type Task struct {
	ID        int64     `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	Date      string    `json:"date,omitempty" yaml:"date,omitempty"`
	Priority  Priority  `json:"priority,omitempty" yaml:"priority,omitempty"`
	View      string    `json:"view,omitempty" yaml:"view,omitempty"`
	SubTasks  []SubTask `json:"subTasks" yaml:"subTasks"`
}

type SubTask struct {
	ID        int64  `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

type Project struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Inbox bool   `json:"inbox" yaml:"inbox"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	EventType string    `json:"eventType"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}
