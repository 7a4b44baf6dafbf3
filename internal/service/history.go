package service

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/model"
)

const (
	eventCreated = "created"
	eventUpdated = "updated"
	eventDeleted = "deleted"
	eventProject = "project"
)

func taskEvent(before, after board.Board, id int64) []model.HistoryEntry {
	old, hadTask := before.Task(id)
	current, hasTask := after.Task(id)

	switch {
	case !hadTask && hasTask:
		return []model.HistoryEntry{{TaskID: id, EventType: eventCreated, Details: formatCreatedDetails(current)}}
	case hadTask && !hasTask:
		return []model.HistoryEntry{{TaskID: id, EventType: eventDeleted, Details: formatDeletedDetails(old)}}
	case hadTask && hasTask:
		return []model.HistoryEntry{{TaskID: id, EventType: eventUpdated, Details: formatTaskDiff(old, current)}}
	}
	return nil
}

func projectEvent(before, after board.Board, id int64, policy board.DeletePolicy) []model.HistoryEntry {
	old, hadProject := before.Project(id)
	current, hasProject := after.Project(id)

	var details string
	switch {
	case !hadProject && hasProject:
		details = fmt.Sprintf("project created: name='%s'", current.Name)
	case hadProject && !hasProject:
		details = fmt.Sprintf("project deleted: name='%s' policy=%s tasks=%d", old.Name, policy, countView(before, old.Name))
	case old.Name != current.Name:
		details = "project renamed: " + formatChange("name", old.Name, current.Name)
	case !old.Inbox && current.Inbox:
		details = fmt.Sprintf("project moved to inbox: name='%s'", current.Name)
	case old.Inbox && !current.Inbox:
		details = fmt.Sprintf("project restored: name='%s'", current.Name)
	default:
		return nil
	}
	return []model.HistoryEntry{{TaskID: id, EventType: eventProject, Details: details}}
}

func countView(b board.Board, view string) int {
	count := 0
	for _, task := range b.Tasks {
		if task.View == view {
			count++
		}
	}
	return count
}

func formatCreatedDetails(task model.Task) string {
	return fmt.Sprintf("created: text='%s' view=%s priority=%s date=%s", task.Text, task.View, valueOrNone(string(task.Priority)), valueOrNone(task.Date))
}

func formatDeletedDetails(task model.Task) string {
	return fmt.Sprintf("deleted: text='%s' view=%s priority=%s date=%s subtasks=%s", task.Text, task.View, valueOrNone(string(task.Priority)), valueOrNone(task.Date), formatSubTasks(task.SubTasks))
}

func formatTaskDiff(before, after model.Task) string {
	changes := []string{}
	if before.Text != after.Text {
		changes = append(changes, formatChange("text", before.Text, after.Text))
	}
	if before.Completed != after.Completed {
		changes = append(changes, formatChange("completed", fmt.Sprintf("%t", before.Completed), fmt.Sprintf("%t", after.Completed)))
	}
	if before.Priority != after.Priority {
		changes = append(changes, formatChange("priority", string(before.Priority), string(after.Priority)))
	}
	if before.Date != after.Date {
		changes = append(changes, formatChange("date", before.Date, after.Date))
	}
	if before.View != after.View {
		changes = append(changes, formatChange("view", before.View, after.View))
	}
	beforeSubs := formatSubTasks(before.SubTasks)
	afterSubs := formatSubTasks(after.SubTasks)
	if beforeSubs != afterSubs {
		changes = append(changes, formatChange("subtasks", beforeSubs, afterSubs))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatSubTasks(subs []model.SubTask) string {
	if len(subs) == 0 {
		return "none"
	}

	parts := make([]string, 0, len(subs))
	for _, sub := range subs {
		mark := " "
		if sub.Completed {
			mark = "x"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", mark, sub.Text))
	}
	return strings.Join(parts, ",")
}
