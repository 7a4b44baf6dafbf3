package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/taskboard/internal/model"
)

var testNow = time.Date(2025, 9, 8, 9, 30, 0, 0, time.UTC)

func seedBoard(t *testing.T) Board {
	t.Helper()
	var b Board
	var ok bool
	b, _, ok = b.AddProject(testNow, "Study")
	require.True(t, ok)
	b, _, ok = b.AddProject(testNow, "Home")
	require.True(t, ok)
	b, _, ok = b.AddTask(testNow, "React 공부하기", "Study", "2025-09-08")
	require.True(t, ok)
	b, _, ok = b.AddTask(testNow, "TypeScript 복습하기", "Study", "2025-09-09")
	require.True(t, ok)
	b, _, ok = b.AddTask(testNow, "장보기", "Home", "2025-09-08")
	require.True(t, ok)
	b, _, ok = b.AddTask(testNow, "Call the bank", "", "")
	require.True(t, ok)
	return b
}

func TestAddTaskDefaults(t *testing.T) {
	var b Board
	next, task, ok := b.AddTask(testNow, "  Write report  ", "", "")
	require.True(t, ok)

	assert.Equal(t, "Write report", task.Text)
	assert.Equal(t, model.ViewInbox, task.View)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.NotNil(t, task.SubTasks)
	assert.Empty(t, task.SubTasks)
	assert.Equal(t, testNow.UnixMilli(), task.ID)
	assert.Len(t, next.Tasks, 1)
	assert.Empty(t, b.Tasks, "receiver must not change")
}

func TestAddTaskBlankIsNoop(t *testing.T) {
	b := seedBoard(t)
	for _, text := range []string{"", "   ", "\t\n"} {
		next, _, ok := b.AddTask(testNow, text, "Study", "")
		assert.False(t, ok)
		assert.Equal(t, b.Tasks, next.Tasks)
	}
}

func TestAddTaskRejectsUnknownViewAndBadDate(t *testing.T) {
	b := seedBoard(t)

	_, _, ok := b.AddTask(testNow, "Orphan", "Nowhere", "")
	assert.False(t, ok)

	_, _, ok = b.AddTask(testNow, "Bad date", "Study", "09/08/2025")
	assert.False(t, ok)
}

func TestAddTaskStampsTodayForDatedViews(t *testing.T) {
	var b Board
	_, task, ok := b.AddTask(testNow, "Stand-up", "Today", "")
	require.True(t, ok)
	assert.Equal(t, model.ViewToday, task.View)
	assert.Equal(t, "2025-09-08", task.Date)

	_, task, ok = b.AddTask(testNow, "Dentist", model.ViewCalendar, "2025-10-01")
	require.True(t, ok)
	assert.Equal(t, "2025-10-01", task.Date)
}

func TestIDsAreUniqueWithinOneMillisecond(t *testing.T) {
	var b Board
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		var task model.Task
		b, task, _ = b.AddTask(testNow, "same instant", "", "")
		assert.False(t, seen[task.ID], "duplicate id %d", task.ID)
		seen[task.ID] = true
	}
	b, sub, ok := b.AddSubTask(testNow, b.Tasks[0].ID, "child")
	require.True(t, ok)
	assert.False(t, seen[sub.ID])
}

func TestNewResumesAfterLargestID(t *testing.T) {
	b := New([]model.Task{{ID: 500, Text: "old", View: model.ViewInbox, SubTasks: []model.SubTask{{ID: 900, Text: "sub"}}}}, nil)
	_, task, ok := b.AddTask(time.UnixMilli(10), "new", "", "")
	require.True(t, ok)
	assert.Equal(t, int64(901), task.ID)
}

func TestToggleTwiceRestores(t *testing.T) {
	b := seedBoard(t)
	id := b.Tasks[0].ID

	once, ok := b.ToggleTask(id)
	require.True(t, ok)
	assert.True(t, once.Tasks[0].Completed)
	assert.False(t, b.Tasks[0].Completed)

	twice, ok := once.ToggleTask(id)
	require.True(t, ok)
	assert.Equal(t, b.Tasks, twice.Tasks)

	_, ok = b.ToggleTask(42)
	assert.False(t, ok)
}

func TestDeleteTask(t *testing.T) {
	b := seedBoard(t)
	target := b.Tasks[1].ID

	next, ok := b.DeleteTask(target)
	require.True(t, ok)
	assert.Len(t, next.Tasks, len(b.Tasks)-1)
	_, found := next.Task(target)
	assert.False(t, found)
	assert.Len(t, b.Tasks, 4)

	same, ok := b.DeleteTask(12345)
	assert.False(t, ok)
	assert.Equal(t, b.Tasks, same.Tasks)
}

func TestEditTask(t *testing.T) {
	b := seedBoard(t)
	id := b.Tasks[0].ID

	next, ok := b.EditTask(id, "  Vue 공부하기 ")
	require.True(t, ok)
	task, _ := next.Task(id)
	assert.Equal(t, "Vue 공부하기", task.Text)

	_, ok = next.EditTask(id, "   ")
	assert.False(t, ok)
	_, ok = next.EditTask(id, "Vue 공부하기")
	assert.False(t, ok)
}

func TestChangePriority(t *testing.T) {
	b := seedBoard(t)
	id := b.Tasks[0].ID

	next, ok := b.ChangePriority(id, "high")
	require.True(t, ok)
	task, _ := next.Task(id)
	assert.Equal(t, model.PriorityHigh, task.Priority)

	_, ok = next.ChangePriority(id, "Urgent")
	assert.False(t, ok)
	_, ok = next.ChangePriority(99, model.PriorityLow)
	assert.False(t, ok)
}

func TestSetTaskDate(t *testing.T) {
	b := seedBoard(t)
	id := b.Tasks[3].ID

	next, ok := b.SetTaskDate(id, "2025-12-24")
	require.True(t, ok)
	task, _ := next.Task(id)
	assert.Equal(t, "2025-12-24", task.Date)

	_, ok = next.SetTaskDate(id, "tomorrow")
	assert.False(t, ok)

	cleared, ok := next.SetTaskDate(id, "")
	require.True(t, ok)
	task, _ = cleared.Task(id)
	assert.Empty(t, task.Date)
}

func TestSubTasks(t *testing.T) {
	b := seedBoard(t)
	parentID := b.Tasks[0].ID

	b1, sub, ok := b.AddSubTask(testNow, parentID, "Read hooks docs")
	require.True(t, ok)
	assert.Empty(t, b.Tasks[0].SubTasks, "receiver must not change")

	_, _, ok = b1.AddSubTask(testNow, parentID, "  ")
	assert.False(t, ok)
	_, _, ok = b1.AddSubTask(testNow, 1, "no parent")
	assert.False(t, ok)

	b2, ok := b1.ToggleSubTask(parentID, sub.ID)
	require.True(t, ok)
	got, _ := b2.SubTask(parentID, sub.ID)
	assert.True(t, got.Completed)
	before, _ := b1.SubTask(parentID, sub.ID)
	assert.False(t, before.Completed)

	b3, ok := b2.EditSubTask(parentID, sub.ID, "Read effects docs")
	require.True(t, ok)
	got, _ = b3.SubTask(parentID, sub.ID)
	assert.Equal(t, "Read effects docs", got.Text)

	_, ok = b3.EditSubTask(parentID, sub.ID, "")
	assert.False(t, ok)
	_, ok = b3.ToggleSubTask(parentID, 7)
	assert.False(t, ok)
	_, ok = b3.DeleteSubTask(7, sub.ID)
	assert.False(t, ok)

	b4, ok := b3.DeleteSubTask(parentID, sub.ID)
	require.True(t, ok)
	task, _ := b4.Task(parentID)
	assert.Empty(t, task.SubTasks)
	done, total := Progress(task)
	assert.Zero(t, done)
	assert.Zero(t, total)
}

func TestAddProjectValidation(t *testing.T) {
	b := seedBoard(t)

	for _, name := range []string{"", "  ", "study", "Inbox", "TODAY"} {
		_, _, ok := b.AddProject(testNow, name)
		assert.False(t, ok, "name %q", name)
	}

	next, project, ok := b.AddProject(testNow, " Work ")
	require.True(t, ok)
	assert.Equal(t, "Work", project.Name)
	assert.Len(t, next.Projects, 3)
}

func TestRenameProjectCascades(t *testing.T) {
	b := seedBoard(t)
	study, _ := b.ProjectByName("Study")

	next, ok := b.RenameProject(study.ID, "Learning")
	require.True(t, ok)

	for i, task := range next.Tasks {
		switch b.Tasks[i].View {
		case "Study":
			assert.Equal(t, "Learning", task.View)
		default:
			assert.Equal(t, b.Tasks[i].View, task.View)
		}
	}
	renamed, _ := next.Project(study.ID)
	assert.Equal(t, "Learning", renamed.Name)

	_, ok = next.RenameProject(study.ID, "home")
	assert.False(t, ok, "duplicate names are rejected")
	_, ok = next.RenameProject(study.ID, "search")
	assert.False(t, ok)
	_, ok = next.RenameProject(404, "Other")
	assert.False(t, ok)
}

func TestDeleteProjectPolicies(t *testing.T) {
	b := seedBoard(t)
	study, _ := b.ProjectByName("Study")

	cascaded, ok := b.DeleteProject(study.ID, DeleteTasks)
	require.True(t, ok)
	assert.Len(t, cascaded.Projects, 1)
	assert.Len(t, cascaded.Tasks, 2)
	for _, task := range cascaded.Tasks {
		assert.NotEqual(t, "Study", task.View)
	}

	moved, ok := b.DeleteProject(study.ID, MoveToInbox)
	require.True(t, ok)
	assert.Len(t, moved.Tasks, 4)
	assert.Len(t, moved.Filter(Query{View: model.ViewInbox}), 3)

	_, ok = b.DeleteProject(1, DeleteTasks)
	assert.False(t, ok)
}

func TestMoveProjectToInboxAndRestore(t *testing.T) {
	b := seedBoard(t)
	home, _ := b.ProjectByName("Home")

	moved, ok := moveAndCheck(t, b, home.ID)
	require.True(t, ok)
	assert.Len(t, moved.InboxProjects(), 1)
	assert.Len(t, moved.ActiveProjects(), 1)
	assert.Empty(t, moved.Filter(Query{View: "Home"}))
	assert.Len(t, moved.Filter(Query{View: model.ViewInbox}), 2)

	_, _, ok = moved.AddTask(testNow, "Laundry", "Home", "")
	assert.False(t, ok, "archived projects accept no tasks")

	_, ok = moved.MoveProjectToInbox(home.ID)
	assert.False(t, ok)

	restored, ok := moved.RestoreProject(home.ID)
	require.True(t, ok)
	assert.Empty(t, restored.InboxProjects())
	_, ok = restored.RestoreProject(home.ID)
	assert.False(t, ok)
}

func moveAndCheck(t *testing.T, b Board, id int64) (Board, bool) {
	t.Helper()
	next, ok := b.MoveProjectToInbox(id)
	if ok {
		project, _ := next.Project(id)
		assert.True(t, project.Inbox)
	}
	return next, ok
}

func TestParseDeletePolicy(t *testing.T) {
	assert.Equal(t, MoveToInbox, ParseDeletePolicy(" Inbox "))
	assert.Equal(t, DeleteTasks, ParseDeletePolicy("delete"))
	assert.Equal(t, DeleteTasks, ParseDeletePolicy("whatever"))
}
