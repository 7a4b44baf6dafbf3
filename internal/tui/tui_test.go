package tui

import (
	"context"
	"testing"
	"time"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/db"
	"github.com/Joseda-hg/taskboard/internal/logger"
	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/service"
)

func fixedClock() time.Time {
	return time.Date(2025, 9, 8, 9, 30, 0, 0, time.Local)
}

func newTestUI(t *testing.T) *UI {
	t.Helper()

	sqlDB, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	svc := service.New(board.Board{}, db.NewStore(sqlDB), logger.Discard(), service.WithClock(fixedClock))
	ui := newUI(svc)
	if err := ui.load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return ui
}

func submit(t *testing.T, ui *UI, p *promptState, value string) {
	t.Helper()
	ui.prompt = p
	if err := ui.applyPrompt(value); err != nil {
		t.Fatalf("apply prompt: %v", err)
	}
	ui.closePrompt(nil)
	if err := ui.load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestAddTaskPromptUsesActiveView(t *testing.T) {
	ui := newTestUI(t)
	ui.activeView = model.ViewToday

	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if ui.prompt == nil || ui.prompt.kind != promptAddTask {
		t.Fatalf("expected add task prompt")
	}
	submit(t, ui, ui.prompt, "React 공부하기")

	if len(ui.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(ui.rows))
	}
	task := ui.rows[0].Task
	if task.Date != "2025-09-08" {
		t.Fatalf("expected today's date, got %q", task.Date)
	}
	if len(ui.history) != 1 || ui.history[0].EventType != "created" {
		t.Fatalf("expected a created history entry, got %+v", ui.history)
	}
}

func TestBlankPromptDoesNothing(t *testing.T) {
	ui := newTestUI(t)

	submit(t, ui, &promptState{kind: promptAddTask}, "   ")

	if len(ui.svc.Snapshot().Tasks) != 0 {
		t.Fatalf("expected no tasks")
	}
}

func TestToggleAndDeleteSelectedRow(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Call the bank")

	if err := ui.toggleSelected(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !ui.rows[0].Task.Completed {
		t.Fatalf("expected task to be completed")
	}

	if err := ui.deleteSelected(nil, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ui.rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(ui.rows))
	}
}

func TestSubTaskRowsCollapse(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Trip")
	parent := ui.rows[0].Task

	if err := ui.addSubTask(nil, nil); err != nil {
		t.Fatalf("add sub-task: %v", err)
	}
	submit(t, ui, ui.prompt, "Book hotel")
	submit(t, ui, &promptState{kind: promptAddSubTask, targetID: parent.ID}, "Pack")

	if len(ui.rows) != 3 {
		t.Fatalf("expected parent plus 2 sub-task rows, got %d", len(ui.rows))
	}

	ui.selectedRow = 1
	if err := ui.toggleSelected(nil, nil); err != nil {
		t.Fatalf("toggle sub-task: %v", err)
	}
	if !ui.rows[1].Sub.Completed {
		t.Fatalf("expected sub-task to be completed")
	}
	if done, total := board.Progress(ui.rows[0].Task); done != 1 || total != 2 {
		t.Fatalf("expected progress 1/2, got %d/%d", done, total)
	}

	ui.selectedRow = 0
	if err := ui.toggleCollapse(nil, nil); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if len(ui.rows) != 1 {
		t.Fatalf("expected collapsed parent only, got %d rows", len(ui.rows))
	}
}

func TestEditPromptPrefillsText(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Draft")

	if err := ui.editSelected(nil, nil); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if ui.prompt.value != "Draft" {
		t.Fatalf("expected prompt to hold current text, got %q", ui.prompt.value)
	}
	submit(t, ui, ui.prompt, "Final")

	if ui.rows[0].Task.Text != "Final" {
		t.Fatalf("expected edited text, got %q", ui.rows[0].Task.Text)
	}
}

func TestCyclePriority(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Report")

	if err := ui.cyclePriority(nil, nil); err != nil {
		t.Fatalf("cycle priority: %v", err)
	}
	if ui.rows[0].Task.Priority != model.PriorityMedium.Next() {
		t.Fatalf("expected %s, got %s", model.PriorityMedium.Next(), ui.rows[0].Task.Priority)
	}
}

func TestSetDateRejectsInvalidInput(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Dentist")
	id := ui.rows[0].Task.ID

	ui.prompt = &promptState{kind: promptSetDate, targetID: id}
	if err := ui.applyPrompt("next week"); err == nil {
		t.Fatalf("expected invalid date error")
	}

	submit(t, ui, &promptState{kind: promptSetDate, targetID: id}, "2025-09-10")
	task, _ := ui.svc.Snapshot().Task(id)
	if task.Date != "2025-09-10" {
		t.Fatalf("expected date to be set, got %q", task.Date)
	}
}

func TestSearchPromptSwitchesView(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "React 공부하기")
	submit(t, ui, &promptState{kind: promptAddTask}, "장보기")

	if err := ui.startSearch(nil, nil); err != nil {
		t.Fatalf("start search: %v", err)
	}
	submit(t, ui, ui.prompt, "react")

	if ui.activeView != model.ViewSearch {
		t.Fatalf("expected search view, got %q", ui.activeView)
	}
	if len(ui.rows) != 1 || ui.rows[0].Task.Text != "React 공부하기" {
		t.Fatalf("unexpected search rows: %+v", ui.rows)
	}
}

func TestCalendarDayNavigation(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Tomorrow's task")
	submit(t, ui, &promptState{kind: promptSetDate, targetID: ui.rows[0].Task.ID}, "2025-09-09")

	if err := ui.nextDay(nil, nil); err != nil {
		t.Fatalf("next day: %v", err)
	}
	if ui.activeView != model.ViewCalendar || ui.calendarDate != "2025-09-08" {
		t.Fatalf("expected calendar at today, got %q %q", ui.activeView, ui.calendarDate)
	}
	if len(ui.rows) != 0 {
		t.Fatalf("expected no tasks today, got %d", len(ui.rows))
	}

	if err := ui.nextDay(nil, nil); err != nil {
		t.Fatalf("next day: %v", err)
	}
	if ui.calendarDate != "2025-09-09" || len(ui.rows) != 1 {
		t.Fatalf("expected 1 task on 2025-09-09, got %d on %s", len(ui.rows), ui.calendarDate)
	}
}

func TestProjectLifecycleFromSidebar(t *testing.T) {
	ui := newTestUI(t)

	if err := ui.addProject(nil, nil); err != nil {
		t.Fatalf("add project: %v", err)
	}
	submit(t, ui, ui.prompt, "Study")

	ui.focus = viewSidebar
	ui.selectedSidebar = len(model.ReservedViews)
	if err := ui.openSelectedView(nil, nil); err != nil {
		t.Fatalf("open view: %v", err)
	}
	if ui.activeView != "Study" {
		t.Fatalf("expected Study view, got %q", ui.activeView)
	}
	submit(t, ui, &promptState{kind: promptAddTask}, "Chapter 3")

	ui.focus = viewSidebar
	if err := ui.renameProject(nil, nil); err != nil {
		t.Fatalf("rename: %v", err)
	}
	submit(t, ui, ui.prompt, "Learning")
	if ui.activeView != "Learning" {
		t.Fatalf("expected active view to follow rename, got %q", ui.activeView)
	}
	if len(ui.rows) != 1 || ui.rows[0].Task.View != "Learning" {
		t.Fatalf("expected task to follow rename, got %+v", ui.rows)
	}

	if err := ui.moveProjectToInbox(nil, nil); err != nil {
		t.Fatalf("move to inbox: %v", err)
	}
	if !ui.sidebar[len(model.ReservedViews)].Inbox {
		t.Fatalf("expected project to be archived")
	}

	if err := ui.deleteProject(nil, nil); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if ui.activeView != model.ViewInbox {
		t.Fatalf("expected fallback to inbox, got %q", ui.activeView)
	}
	if len(ui.sidebar) != len(model.ReservedViews) {
		t.Fatalf("expected only reserved views, got %d entries", len(ui.sidebar))
	}
}

func TestHandlersIgnoredWhilePromptOpen(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Keep me")

	ui.prompt = &promptState{kind: promptSearch}
	if err := ui.deleteSelected(nil, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ui.svc.Snapshot().Tasks) != 1 {
		t.Fatalf("expected task to survive while prompt is open")
	}
	if err := ui.quit(nil, nil); err != nil {
		t.Fatalf("expected quit to be ignored, got %v", err)
	}
}

func TestHistoryFollowsSelection(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "First")
	submit(t, ui, &promptState{kind: promptAddTask}, "Second")

	ui.selectedRow = 0
	if err := ui.toggleSelected(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(ui.history) != 2 {
		t.Fatalf("expected 2 history entries for first task, got %d", len(ui.history))
	}

	if err := ui.moveDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if len(ui.history) != 1 {
		t.Fatalf("expected 1 history entry for second task, got %d", len(ui.history))
	}

	entries, err := ui.svc.RecentHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries overall, got %d", len(entries))
	}
}

func TestSidebarFocusShowsProjectHistory(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "Call the bank")
	submit(t, ui, &promptState{kind: promptAddProject}, "Study")

	ui.focus = viewSidebar
	ui.selectedSidebar = len(model.ReservedViews)
	if err := ui.renameProject(nil, nil); err != nil {
		t.Fatalf("rename: %v", err)
	}
	submit(t, ui, ui.prompt, "Learning")

	if err := ui.setFocus(viewSidebar); err != nil {
		t.Fatalf("focus sidebar: %v", err)
	}
	if len(ui.rows) != 1 {
		t.Fatalf("expected the inbox task to stay listed, got %d rows", len(ui.rows))
	}
	if len(ui.history) != 2 {
		t.Fatalf("expected 2 project history entries, got %+v", ui.history)
	}
	project := ui.sidebar[ui.selectedSidebar]
	for _, entry := range ui.history {
		if entry.TaskID != project.ProjectID || entry.EventType != "project" {
			t.Fatalf("expected project history for %d, got %+v", project.ProjectID, entry)
		}
	}

	if err := ui.setFocus(viewTasks); err != nil {
		t.Fatalf("focus tasks: %v", err)
	}
	if len(ui.history) != 1 || ui.history[0].EventType != "created" {
		t.Fatalf("expected task history once tasks are focused, got %+v", ui.history)
	}
}

func TestArchivedProjectCannotBeOpened(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddProject}, "Study")

	ui.focus = viewSidebar
	ui.selectedSidebar = len(model.ReservedViews)
	if err := ui.moveProjectToInbox(nil, nil); err != nil {
		t.Fatalf("move to inbox: %v", err)
	}

	if err := ui.openSelectedView(nil, nil); err != nil {
		t.Fatalf("open view: %v", err)
	}
	if ui.activeView != model.ViewInbox {
		t.Fatalf("expected active view to stay inbox, got %q", ui.activeView)
	}
	if ui.status == "" {
		t.Fatalf("expected a status explaining the archived project")
	}

	if err := ui.restoreProject(nil, nil); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := ui.openSelectedView(nil, nil); err != nil {
		t.Fatalf("open view: %v", err)
	}
	if ui.activeView != "Study" || ui.status != "" {
		t.Fatalf("expected restored project to open, got %q status %q", ui.activeView, ui.status)
	}
}

func TestSearchPromptKeepsInnerSpaces(t *testing.T) {
	ui := newTestUI(t)
	submit(t, ui, &promptState{kind: promptAddTask}, "React 공부하기")
	submit(t, ui, &promptState{kind: promptAddTask}, "React공부")

	submit(t, ui, &promptState{kind: promptSearch}, " 공부")

	if len(ui.rows) != 1 || ui.rows[0].Task.Text != "React 공부하기" {
		t.Fatalf("unexpected search rows: %+v", ui.rows)
	}
}

func TestComputeLayoutBounds(t *testing.T) {
	l := computeLayout(10, 2)
	if l.sidebarWidth < 16 || l.tasksWidth < 20 || l.detailHeight < 4 {
		t.Fatalf("expected minimum sizes, got %+v", l)
	}
}
