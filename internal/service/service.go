// Package service owns the single board instance shared by the TUI and the
// web server. Every operation runs the pure board transformation, and only
// when it changed something persists the new board, records history and logs.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/model"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskboard_store_operations_total",
		Help: "Task store operations by name and outcome",
	},
	[]string{"operation", "result"},
)

// Persister stores board snapshots and the history log. *db.Store satisfies it.
type Persister interface {
	SaveBoard(ctx context.Context, b board.Board) error
	AddHistory(ctx context.Context, entry model.HistoryEntry) (model.HistoryEntry, error)
	ListHistory(ctx context.Context, taskID int64) ([]model.HistoryEntry, error)
	ListRecentHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

type Clock func() time.Time

type Service struct {
	mu     sync.Mutex
	board  board.Board
	store  Persister
	log    logrus.FieldLogger
	clock  Clock
	policy board.DeletePolicy
}

type Option func(*Service)

func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

func WithDeletePolicy(policy board.DeletePolicy) Option {
	return func(s *Service) { s.policy = policy }
}

// New starts a session on b. store may be nil, in which case nothing outlives
// the process and history is not kept.
func New(b board.Board, store Persister, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		board:  b,
		store:  store,
		log:    log.WithField("component", "store"),
		clock:  time.Now,
		policy: board.DeleteTasks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Today() string {
	return s.clock().Format(model.DateLayout)
}

func (s *Service) DeletePolicy() board.DeletePolicy {
	return s.policy
}

// Snapshot returns the current board. Boards are values, so callers may keep it.
func (s *Service) Snapshot() board.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Filter fills in today's date when the query does not carry one.
func (s *Service) Filter(q board.Query) []model.Task {
	if q.Today == "" {
		q.Today = s.Today()
	}
	return s.Snapshot().Filter(q)
}

func (s *Service) History(ctx context.Context, id int64) ([]model.HistoryEntry, error) {
	if s.store == nil {
		return []model.HistoryEntry{}, nil
	}
	return s.store.ListHistory(ctx, id)
}

func (s *Service) RecentHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if s.store == nil {
		return []model.HistoryEntry{}, nil
	}
	return s.store.ListRecentHistory(ctx, limit)
}

func (s *Service) AddTask(ctx context.Context, text, view, date string) (model.Task, bool, error) {
	var created model.Task
	now := s.clock()
	after, changed, err := s.apply(ctx, "add_task", func(b board.Board) (board.Board, bool) {
		next, task, ok := b.AddTask(now, text, view, date)
		created = task
		return next, ok
	}, func(before, after board.Board) []model.HistoryEntry {
		return taskEvent(before, after, created.ID)
	})
	if err != nil || !changed {
		return model.Task{}, false, err
	}
	task, _ := after.Task(created.ID)
	return task, true, nil
}

func (s *Service) ToggleTask(ctx context.Context, id int64) (model.Task, bool, error) {
	return s.taskOp(ctx, "toggle_task", id, func(b board.Board) (board.Board, bool) {
		return b.ToggleTask(id)
	})
}

func (s *Service) EditTask(ctx context.Context, id int64, text string) (model.Task, bool, error) {
	return s.taskOp(ctx, "edit_task", id, func(b board.Board) (board.Board, bool) {
		return b.EditTask(id, text)
	})
}

func (s *Service) ChangePriority(ctx context.Context, id int64, priority model.Priority) (model.Task, bool, error) {
	return s.taskOp(ctx, "change_priority", id, func(b board.Board) (board.Board, bool) {
		return b.ChangePriority(id, priority)
	})
}

func (s *Service) SetTaskDate(ctx context.Context, id int64, date string) (model.Task, bool, error) {
	return s.taskOp(ctx, "set_task_date", id, func(b board.Board) (board.Board, bool) {
		return b.SetTaskDate(id, date)
	})
}

func (s *Service) DeleteTask(ctx context.Context, id int64) (bool, error) {
	_, changed, err := s.taskOp(ctx, "delete_task", id, func(b board.Board) (board.Board, bool) {
		return b.DeleteTask(id)
	})
	return changed, err
}

func (s *Service) AddSubTask(ctx context.Context, parentID int64, text string) (model.SubTask, bool, error) {
	var created model.SubTask
	now := s.clock()
	after, changed, err := s.apply(ctx, "add_subtask", func(b board.Board) (board.Board, bool) {
		next, sub, ok := b.AddSubTask(now, parentID, text)
		created = sub
		return next, ok
	}, func(before, after board.Board) []model.HistoryEntry {
		return taskEvent(before, after, parentID)
	})
	if err != nil || !changed {
		return model.SubTask{}, false, err
	}
	sub, _ := after.SubTask(parentID, created.ID)
	return sub, true, nil
}

func (s *Service) ToggleSubTask(ctx context.Context, parentID, subID int64) (model.SubTask, bool, error) {
	return s.subTaskOp(ctx, "toggle_subtask", parentID, subID, func(b board.Board) (board.Board, bool) {
		return b.ToggleSubTask(parentID, subID)
	})
}

func (s *Service) EditSubTask(ctx context.Context, parentID, subID int64, text string) (model.SubTask, bool, error) {
	return s.subTaskOp(ctx, "edit_subtask", parentID, subID, func(b board.Board) (board.Board, bool) {
		return b.EditSubTask(parentID, subID, text)
	})
}

func (s *Service) DeleteSubTask(ctx context.Context, parentID, subID int64) (bool, error) {
	_, changed, err := s.subTaskOp(ctx, "delete_subtask", parentID, subID, func(b board.Board) (board.Board, bool) {
		return b.DeleteSubTask(parentID, subID)
	})
	return changed, err
}

func (s *Service) AddProject(ctx context.Context, name string) (model.Project, bool, error) {
	var created model.Project
	now := s.clock()
	after, changed, err := s.apply(ctx, "add_project", func(b board.Board) (board.Board, bool) {
		next, project, ok := b.AddProject(now, name)
		created = project
		return next, ok
	}, func(before, after board.Board) []model.HistoryEntry {
		return projectEvent(before, after, created.ID, "")
	})
	if err != nil || !changed {
		return model.Project{}, false, err
	}
	project, _ := after.Project(created.ID)
	return project, true, nil
}

func (s *Service) RenameProject(ctx context.Context, id int64, name string) (model.Project, bool, error) {
	return s.projectOp(ctx, "rename_project", id, func(b board.Board) (board.Board, bool) {
		return b.RenameProject(id, name)
	})
}

func (s *Service) MoveProjectToInbox(ctx context.Context, id int64) (model.Project, bool, error) {
	return s.projectOp(ctx, "move_project_to_inbox", id, func(b board.Board) (board.Board, bool) {
		return b.MoveProjectToInbox(id)
	})
}

func (s *Service) RestoreProject(ctx context.Context, id int64) (model.Project, bool, error) {
	return s.projectOp(ctx, "restore_project", id, func(b board.Board) (board.Board, bool) {
		return b.RestoreProject(id)
	})
}

// DeleteProject removes the project and deletes or re-homes its tasks
// according to the configured policy.
func (s *Service) DeleteProject(ctx context.Context, id int64) (bool, error) {
	_, changed, err := s.projectOp(ctx, "delete_project", id, func(b board.Board) (board.Board, bool) {
		return b.DeleteProject(id, s.policy)
	})
	return changed, err
}

func (s *Service) taskOp(ctx context.Context, op string, id int64, fn func(board.Board) (board.Board, bool)) (model.Task, bool, error) {
	after, changed, err := s.apply(ctx, op, fn, func(before, after board.Board) []model.HistoryEntry {
		return taskEvent(before, after, id)
	})
	if err != nil || !changed {
		return model.Task{}, false, err
	}
	task, _ := after.Task(id)
	return task, true, nil
}

func (s *Service) subTaskOp(ctx context.Context, op string, parentID, subID int64, fn func(board.Board) (board.Board, bool)) (model.SubTask, bool, error) {
	after, changed, err := s.apply(ctx, op, fn, func(before, after board.Board) []model.HistoryEntry {
		return taskEvent(before, after, parentID)
	})
	if err != nil || !changed {
		return model.SubTask{}, false, err
	}
	sub, _ := after.SubTask(parentID, subID)
	return sub, true, nil
}

func (s *Service) projectOp(ctx context.Context, op string, id int64, fn func(board.Board) (board.Board, bool)) (model.Project, bool, error) {
	after, changed, err := s.apply(ctx, op, fn, func(before, after board.Board) []model.HistoryEntry {
		return projectEvent(before, after, id, s.policy)
	})
	if err != nil || !changed {
		return model.Project{}, false, err
	}
	project, _ := after.Project(id)
	return project, true, nil
}

// apply runs fn under the lock. The new board replaces the current one only
// after it has been persisted.
func (s *Service) apply(ctx context.Context, op string, fn func(board.Board) (board.Board, bool), events func(before, after board.Board) []model.HistoryEntry) (board.Board, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.board
	after, changed := fn(before)
	if !changed {
		operationsTotal.WithLabelValues(op, "noop").Inc()
		s.log.WithField("operation", op).Debug("ignored")
		return before, false, nil
	}

	if s.store != nil {
		if err := s.store.SaveBoard(ctx, after); err != nil {
			operationsTotal.WithLabelValues(op, "error").Inc()
			s.log.WithError(err).WithField("operation", op).Error("persist board")
			return before, false, err
		}
	}
	s.board = after
	operationsTotal.WithLabelValues(op, "changed").Inc()

	entries := events(before, after)
	for _, entry := range entries {
		s.log.WithFields(logrus.Fields{
			"operation": op,
			"id":        entry.TaskID,
			"event":     entry.EventType,
		}).Info(entry.Details)

		if s.store == nil {
			continue
		}
		entry.CreatedAt = s.clock()
		if _, err := s.store.AddHistory(ctx, entry); err != nil {
			s.log.WithError(err).WithField("operation", op).Warn("record history")
		}
	}

	return after, true, nil
}
