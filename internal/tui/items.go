package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/model"
)

type sidebarEntry struct {
	Label     string
	View      string
	ProjectID int64
	Inbox     bool
}

// taskRow is one line of the task pane: a task, or one of its sub-tasks when
// Sub is set.
type taskRow struct {
	Task model.Task
	Sub  *model.SubTask
}

func (r taskRow) isSub() bool {
	return r.Sub != nil
}

func buildSidebar(b board.Board) []sidebarEntry {
	entries := make([]sidebarEntry, 0, len(model.ReservedViews)+len(b.Projects))
	for _, view := range model.ReservedViews {
		entries = append(entries, sidebarEntry{Label: view, View: view})
	}
	for _, project := range b.ActiveProjects() {
		entries = append(entries, sidebarEntry{Label: "# " + project.Name, View: project.Name, ProjectID: project.ID})
	}
	for _, project := range b.InboxProjects() {
		entries = append(entries, sidebarEntry{Label: "~ " + project.Name, View: project.Name, ProjectID: project.ID, Inbox: true})
	}
	return entries
}

// buildTaskRows flattens tasks and their sub-tasks, skipping children of
// collapsed parents.
func buildTaskRows(tasks []model.Task, collapsed map[int64]bool) []taskRow {
	rows := make([]taskRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, taskRow{Task: task})
		if collapsed != nil && collapsed[task.ID] {
			continue
		}
		for i := range task.SubTasks {
			sub := task.SubTasks[i]
			rows = append(rows, taskRow{Task: task, Sub: &sub})
		}
	}
	return rows
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatTaskSummary(task model.Task) string {
	parts := []string{checkbox(task.Completed), task.Text}
	meta := []string{}
	if task.Priority != "" {
		meta = append(meta, string(task.Priority))
	}
	if task.Date != "" {
		meta = append(meta, task.Date)
	}
	if done, total := board.Progress(task); total > 0 {
		meta = append(meta, fmt.Sprintf("%d/%d", done, total))
	}
	if len(meta) > 0 {
		parts = append(parts, "| "+strings.Join(meta, " | "))
	}
	return strings.Join(parts, " ")
}

func formatSubTaskSummary(sub model.SubTask) string {
	return checkbox(sub.Completed) + " " + sub.Text
}

func viewTitle(view, searchText, calendarDate string) string {
	switch view {
	case model.ViewSearch:
		if searchText == "" {
			return "search (press /)"
		}
		return fmt.Sprintf("search: %s", searchText)
	case model.ViewCalendar:
		return fmt.Sprintf("calendar: %s", calendarDate)
	default:
		return view
	}
}
