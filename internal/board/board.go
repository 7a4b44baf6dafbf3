// Package board holds the in-memory task store. A Board is a value: every
// mutation returns a new Board and leaves the receiver, and any slice it
// shares, untouched. Invalid input never errors; the operation reports
// changed=false and hands back the receiver unchanged.
package board

import (
	"strings"
	"time"

	"github.com/Joseda-hg/taskboard/internal/model"
)

type DeletePolicy string

const (
	DeleteTasks DeletePolicy = "delete"
	MoveToInbox DeletePolicy = "inbox"
)

// ParseDeletePolicy falls back to DeleteTasks for unknown values.
func ParseDeletePolicy(value string) DeletePolicy {
	if strings.EqualFold(strings.TrimSpace(value), string(MoveToInbox)) {
		return MoveToInbox
	}
	return DeleteTasks
}

type Board struct {
	Tasks    []model.Task    `json:"tasks" yaml:"tasks"`
	Projects []model.Project `json:"projects" yaml:"projects"`

	lastID int64
}

// New builds a board from stored collections, resuming id allocation after
// the largest id already in use.
func New(tasks []model.Task, projects []model.Project) Board {
	b := Board{Tasks: tasks, Projects: projects}
	for _, task := range tasks {
		b.lastID = max(b.lastID, task.ID)
		for _, sub := range task.SubTasks {
			b.lastID = max(b.lastID, sub.ID)
		}
	}
	for _, project := range projects {
		b.lastID = max(b.lastID, project.ID)
	}
	return b
}

// nextID derives an id from the creation time, bumping past the last issued
// id when several records land in the same millisecond.
func (b Board) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= b.lastID {
		id = b.lastID + 1
	}
	return id
}

func (b Board) AddTask(now time.Time, text, view, date string) (Board, model.Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return b, model.Task{}, false
	}

	label, ok := b.resolveView(view)
	if !ok {
		return b, model.Task{}, false
	}

	date = strings.TrimSpace(date)
	if date != "" && !validDate(date) {
		return b, model.Task{}, false
	}
	if date == "" && (label == model.ViewToday || label == model.ViewCalendar) {
		date = now.Format(model.DateLayout)
	}

	id := b.nextID(now)
	task := model.Task{
		ID:       id,
		Text:     text,
		Date:     date,
		Priority: model.PriorityMedium,
		View:     label,
		SubTasks: []model.SubTask{},
	}

	tasks := make([]model.Task, len(b.Tasks), len(b.Tasks)+1)
	copy(tasks, b.Tasks)

	next := b
	next.Tasks = append(tasks, task)
	next.lastID = id
	return next, task, true
}

func (b Board) ToggleTask(id int64) (Board, bool) {
	return b.updateTask(id, func(task model.Task) (model.Task, bool) {
		task.Completed = !task.Completed
		return task, true
	})
}

// DeleteTask removes the task together with its sub-tasks.
func (b Board) DeleteTask(id int64) (Board, bool) {
	index := b.taskIndex(id)
	if index < 0 {
		return b, false
	}

	tasks := make([]model.Task, 0, len(b.Tasks)-1)
	tasks = append(tasks, b.Tasks[:index]...)
	tasks = append(tasks, b.Tasks[index+1:]...)

	next := b
	next.Tasks = tasks
	return next, true
}

func (b Board) EditTask(id int64, text string) (Board, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return b, false
	}
	return b.updateTask(id, func(task model.Task) (model.Task, bool) {
		if task.Text == text {
			return task, false
		}
		task.Text = text
		return task, true
	})
}

func (b Board) ChangePriority(id int64, priority model.Priority) (Board, bool) {
	parsed, ok := model.ParsePriority(string(priority))
	if !ok {
		return b, false
	}
	return b.updateTask(id, func(task model.Task) (model.Task, bool) {
		if task.Priority == parsed {
			return task, false
		}
		task.Priority = parsed
		return task, true
	})
}

// SetTaskDate reschedules a task. An empty date clears it.
func (b Board) SetTaskDate(id int64, date string) (Board, bool) {
	date = strings.TrimSpace(date)
	if date != "" && !validDate(date) {
		return b, false
	}
	return b.updateTask(id, func(task model.Task) (model.Task, bool) {
		if task.Date == date {
			return task, false
		}
		task.Date = date
		return task, true
	})
}

func (b Board) AddSubTask(now time.Time, parentID int64, text string) (Board, model.SubTask, bool) {
	text = strings.TrimSpace(text)
	if text == "" || b.taskIndex(parentID) < 0 {
		return b, model.SubTask{}, false
	}

	sub := model.SubTask{ID: b.nextID(now), Text: text}
	next, _ := b.updateTask(parentID, func(task model.Task) (model.Task, bool) {
		subs := make([]model.SubTask, len(task.SubTasks), len(task.SubTasks)+1)
		copy(subs, task.SubTasks)
		task.SubTasks = append(subs, sub)
		return task, true
	})
	next.lastID = sub.ID
	return next, sub, true
}

func (b Board) ToggleSubTask(parentID, subID int64) (Board, bool) {
	return b.updateSubTask(parentID, subID, func(sub model.SubTask) (model.SubTask, bool) {
		sub.Completed = !sub.Completed
		return sub, true
	})
}

func (b Board) EditSubTask(parentID, subID int64, text string) (Board, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return b, false
	}
	return b.updateSubTask(parentID, subID, func(sub model.SubTask) (model.SubTask, bool) {
		if sub.Text == text {
			return sub, false
		}
		sub.Text = text
		return sub, true
	})
}

func (b Board) DeleteSubTask(parentID, subID int64) (Board, bool) {
	return b.updateTask(parentID, func(task model.Task) (model.Task, bool) {
		index := subTaskIndex(task.SubTasks, subID)
		if index < 0 {
			return task, false
		}
		subs := make([]model.SubTask, 0, len(task.SubTasks)-1)
		subs = append(subs, task.SubTasks[:index]...)
		subs = append(subs, task.SubTasks[index+1:]...)
		task.SubTasks = subs
		return task, true
	})
}

func (b Board) AddProject(now time.Time, name string) (Board, model.Project, bool) {
	name, ok := b.validProjectName(name, 0)
	if !ok {
		return b, model.Project{}, false
	}

	project := model.Project{ID: b.nextID(now), Name: name}
	projects := make([]model.Project, len(b.Projects), len(b.Projects)+1)
	copy(projects, b.Projects)

	next := b
	next.Projects = append(projects, project)
	next.lastID = project.ID
	return next, project, true
}

// RenameProject relabels every task that carried the old name.
func (b Board) RenameProject(id int64, name string) (Board, bool) {
	index := b.projectIndex(id)
	if index < 0 {
		return b, false
	}
	name, ok := b.validProjectName(name, id)
	if !ok {
		return b, false
	}

	old := b.Projects[index].Name
	if old == name {
		return b, false
	}

	next := b.withProject(index, func(project model.Project) model.Project {
		project.Name = name
		return project
	})
	next.Tasks = relabel(b.Tasks, old, name)
	return next, true
}

func (b Board) DeleteProject(id int64, policy DeletePolicy) (Board, bool) {
	index := b.projectIndex(id)
	if index < 0 {
		return b, false
	}
	name := b.Projects[index].Name

	projects := make([]model.Project, 0, len(b.Projects)-1)
	projects = append(projects, b.Projects[:index]...)
	projects = append(projects, b.Projects[index+1:]...)

	next := b
	next.Projects = projects
	if policy == MoveToInbox {
		next.Tasks = relabel(b.Tasks, name, model.ViewInbox)
		return next, true
	}

	tasks := make([]model.Task, 0, len(b.Tasks))
	for _, task := range b.Tasks {
		if task.View == name {
			continue
		}
		tasks = append(tasks, task)
	}
	next.Tasks = tasks
	return next, true
}

// MoveProjectToInbox archives the project and moves its tasks into the inbox view.
func (b Board) MoveProjectToInbox(id int64) (Board, bool) {
	index := b.projectIndex(id)
	if index < 0 || b.Projects[index].Inbox {
		return b, false
	}
	name := b.Projects[index].Name

	next := b.withProject(index, func(project model.Project) model.Project {
		project.Inbox = true
		return project
	})
	next.Tasks = relabel(b.Tasks, name, model.ViewInbox)
	return next, true
}

// RestoreProject un-archives a project. Its former tasks stay in the inbox.
func (b Board) RestoreProject(id int64) (Board, bool) {
	index := b.projectIndex(id)
	if index < 0 || !b.Projects[index].Inbox {
		return b, false
	}
	return b.withProject(index, func(project model.Project) model.Project {
		project.Inbox = false
		return project
	}), true
}

func (b Board) updateTask(id int64, fn func(model.Task) (model.Task, bool)) (Board, bool) {
	index := b.taskIndex(id)
	if index < 0 {
		return b, false
	}

	updated, changed := fn(b.Tasks[index])
	if !changed {
		return b, false
	}

	tasks := make([]model.Task, len(b.Tasks))
	copy(tasks, b.Tasks)
	tasks[index] = updated

	next := b
	next.Tasks = tasks
	return next, true
}

func (b Board) updateSubTask(parentID, subID int64, fn func(model.SubTask) (model.SubTask, bool)) (Board, bool) {
	return b.updateTask(parentID, func(task model.Task) (model.Task, bool) {
		index := subTaskIndex(task.SubTasks, subID)
		if index < 0 {
			return task, false
		}
		updated, changed := fn(task.SubTasks[index])
		if !changed {
			return task, false
		}
		subs := make([]model.SubTask, len(task.SubTasks))
		copy(subs, task.SubTasks)
		subs[index] = updated
		task.SubTasks = subs
		return task, true
	})
}

func (b Board) withProject(index int, fn func(model.Project) model.Project) Board {
	projects := make([]model.Project, len(b.Projects))
	copy(projects, b.Projects)
	projects[index] = fn(projects[index])

	next := b
	next.Projects = projects
	return next
}

// resolveView maps a requested label onto its canonical form. Empty means
// inbox; archived projects no longer accept tasks.
func (b Board) resolveView(view string) (string, bool) {
	trimmed := strings.TrimSpace(view)
	if trimmed == "" {
		return model.ViewInbox, true
	}
	if model.IsReservedView(trimmed) {
		return strings.ToLower(trimmed), true
	}
	project, ok := b.ProjectByName(trimmed)
	if !ok || project.Inbox {
		return "", false
	}
	return project.Name, true
}

func (b Board) validProjectName(name string, selfID int64) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || model.IsReservedView(trimmed) {
		return "", false
	}
	for _, project := range b.Projects {
		if project.ID != selfID && strings.EqualFold(project.Name, trimmed) {
			return "", false
		}
	}
	return trimmed, true
}

func (b Board) taskIndex(id int64) int {
	for i, task := range b.Tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func (b Board) projectIndex(id int64) int {
	for i, project := range b.Projects {
		if project.ID == id {
			return i
		}
	}
	return -1
}

func subTaskIndex(subs []model.SubTask, id int64) int {
	for i, sub := range subs {
		if sub.ID == id {
			return i
		}
	}
	return -1
}

func relabel(tasks []model.Task, from, to string) []model.Task {
	result := make([]model.Task, len(tasks))
	for i, task := range tasks {
		if task.View == from {
			task.View = to
		}
		result[i] = task
	}
	return result
}

func validDate(value string) bool {
	_, err := time.Parse(model.DateLayout, value)
	return err == nil
}
