package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/model"
)

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) LoadBoard(ctx context.Context) (board.Board, error) {
	projects, err := s.listProjects(ctx)
	if err != nil {
		return board.Board{}, err
	}

	tasks, err := s.listTasks(ctx)
	if err != nil {
		return board.Board{}, err
	}

	subs, err := s.listSubTasks(ctx)
	if err != nil {
		return board.Board{}, err
	}
	for i := range tasks {
		if children, ok := subs[tasks[i].ID]; ok {
			tasks[i].SubTasks = children
		}
	}

	return board.New(tasks, projects), nil
}

// SaveBoard replaces every stored row with the given board in one transaction.
func (s *Store) SaveBoard(ctx context.Context, b board.Board) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"sub_tasks", "tasks", "projects"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for position, project := range b.Projects {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO projects (id, name, inbox, position) VALUES (?, ?, ?, ?)",
			project.ID, project.Name, project.Inbox, position,
		); err != nil {
			return fmt.Errorf("insert project %d: %w", project.ID, err)
		}
	}

	for position, task := range b.Tasks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (id, text, completed, date, priority, view, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			task.ID, task.Text, task.Completed, task.Date, string(task.Priority), task.View, position,
		); err != nil {
			return fmt.Errorf("insert task %d: %w", task.ID, err)
		}
		for subPosition, sub := range task.SubTasks {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO sub_tasks (id, task_id, text, completed, position) VALUES (?, ?, ?, ?, ?)",
				sub.ID, task.ID, sub.Text, sub.Completed, subPosition,
			); err != nil {
				return fmt.Errorf("insert sub-task %d: %w", sub.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (s *Store) AddHistory(ctx context.Context, entry model.HistoryEntry) (model.HistoryEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	result, err := s.DB.ExecContext(ctx,
		"INSERT INTO history (task_id, event_type, details, created_at) VALUES (?, ?, ?, ?)",
		entry.TaskID, entry.EventType, entry.Details, entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.HistoryEntry{}, err
	}
	entry.ID = id
	return entry, nil
}

func (s *Store) ListHistory(ctx context.Context, taskID int64) ([]model.HistoryEntry, error) {
	return s.queryHistory(ctx,
		"SELECT id, task_id, event_type, details, created_at FROM history WHERE task_id = ? ORDER BY id DESC",
		taskID,
	)
}

func (s *Store) ListRecentHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryHistory(ctx,
		"SELECT id, task_id, event_type, details, created_at FROM history ORDER BY id DESC LIMIT ?",
		limit,
	)
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]model.HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.EventType, &entry.Details, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = time.UnixMilli(createdAt)
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (s *Store) listProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, name, inbox FROM projects ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var project model.Project
		if err := rows.Scan(&project.ID, &project.Name, &project.Inbox); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) listTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, text, completed, date, priority, view FROM tasks ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var task model.Task
		var priority string
		if err := rows.Scan(&task.ID, &task.Text, &task.Completed, &task.Date, &priority, &task.View); err != nil {
			return nil, err
		}
		task.Priority = model.Priority(priority)
		task.SubTasks = []model.SubTask{}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) listSubTasks(ctx context.Context) (map[int64][]model.SubTask, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, task_id, text, completed FROM sub_tasks ORDER BY task_id, position, id")
	if err != nil {
		return nil, fmt.Errorf("list sub-tasks: %w", err)
	}
	defer rows.Close()

	byTask := make(map[int64][]model.SubTask)
	for rows.Next() {
		var sub model.SubTask
		var taskID int64
		if err := rows.Scan(&sub.ID, &taskID, &sub.Text, &sub.Completed); err != nil {
			return nil, err
		}
		byTask[taskID] = append(byTask[taskID], sub)
	}
	return byTask, rows.Err()
}
