package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/taskboard/internal/model"
)

// Query selects the tasks visible in one view. Today is the current calendar
// date; Date is the day picked in the calendar view; Text is the search term.
type Query struct {
	View  string
	Date  string
	Text  string
	Today string
}

func (b Board) Filter(q Query) []model.Task {
	view := strings.TrimSpace(q.View)

	var match func(model.Task) bool
	switch strings.ToLower(view) {
	case model.ViewToday:
		today := strings.TrimSpace(q.Today)
		if today == "" {
			return []model.Task{}
		}
		match = func(task model.Task) bool { return task.Date == today }
	case model.ViewCalendar:
		date := strings.TrimSpace(q.Date)
		if date == "" {
			date = strings.TrimSpace(q.Today)
		}
		if date == "" {
			return []model.Task{}
		}
		match = func(task model.Task) bool { return task.Date == date }
	case model.ViewSearch:
		// Blank queries match nothing; the needle itself keeps its spaces.
		if strings.TrimSpace(q.Text) == "" {
			return []model.Task{}
		}
		needle := strings.ToLower(q.Text)
		match = func(task model.Task) bool {
			return strings.Contains(strings.ToLower(task.Text), needle)
		}
	case model.ViewInbox, "":
		match = func(task model.Task) bool { return task.View == model.ViewInbox }
	default:
		if project, ok := b.ProjectByName(view); ok {
			view = project.Name
		}
		match = func(task model.Task) bool { return task.View == view }
	}

	result := make([]model.Task, 0, len(b.Tasks))
	for _, task := range b.Tasks {
		if match(task) {
			result = append(result, task)
		}
	}
	return result
}

func (b Board) Task(id int64) (model.Task, bool) {
	index := b.taskIndex(id)
	if index < 0 {
		return model.Task{}, false
	}
	return b.Tasks[index], true
}

func (b Board) SubTask(parentID, subID int64) (model.SubTask, bool) {
	task, ok := b.Task(parentID)
	if !ok {
		return model.SubTask{}, false
	}
	index := subTaskIndex(task.SubTasks, subID)
	if index < 0 {
		return model.SubTask{}, false
	}
	return task.SubTasks[index], true
}

func (b Board) Project(id int64) (model.Project, bool) {
	index := b.projectIndex(id)
	if index < 0 {
		return model.Project{}, false
	}
	return b.Projects[index], true
}

// ProjectByName matches case-insensitively; names are unique under that rule.
func (b Board) ProjectByName(name string) (model.Project, bool) {
	trimmed := strings.TrimSpace(name)
	for _, project := range b.Projects {
		if strings.EqualFold(project.Name, trimmed) {
			return project, true
		}
	}
	return model.Project{}, false
}

func (b Board) ActiveProjects() []model.Project {
	return b.projectsWhere(false)
}

func (b Board) InboxProjects() []model.Project {
	return b.projectsWhere(true)
}

func (b Board) projectsWhere(inbox bool) []model.Project {
	result := make([]model.Project, 0, len(b.Projects))
	for _, project := range b.Projects {
		if project.Inbox == inbox {
			result = append(result, project)
		}
	}
	return result
}

// CalendarMonth counts dated tasks per day of the given month.
func (b Board) CalendarMonth(year int, month time.Month) map[string]int {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	counts := make(map[string]int)
	for _, task := range b.Tasks {
		if strings.HasPrefix(task.Date, prefix) {
			counts[task.Date]++
		}
	}
	return counts
}

func Progress(task model.Task) (done, total int) {
	for _, sub := range task.SubTasks {
		if sub.Completed {
			done++
		}
	}
	return done, len(task.SubTasks)
}
