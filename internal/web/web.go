package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.tmpl").Funcs(template.FuncMap{
	"progress": func(task model.Task) string {
		done, total := board.Progress(task)
		if total == 0 {
			return ""
		}
		return fmt.Sprintf("%d/%d", done, total)
	},
}).ParseFS(templateFS, "templates/index.tmpl"))

type Server struct {
	svc *service.Service
	log logrus.FieldLogger
}

func NewServer(svc *service.Service, log logrus.FieldLogger) *Server {
	return &Server{svc: svc, log: log.WithField("component", "web")}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)

	mux.HandleFunc("GET /api/tasks", s.listTasks)
	mux.HandleFunc("POST /api/tasks", s.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.editTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.deleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.toggleTask)
	mux.HandleFunc("PUT /api/tasks/{id}/priority", s.changePriority)
	mux.HandleFunc("PUT /api/tasks/{id}/date", s.setTaskDate)
	mux.HandleFunc("GET /api/tasks/{id}/history", s.taskHistory)

	mux.HandleFunc("POST /api/tasks/{id}/subtasks", s.createSubTask)
	mux.HandleFunc("POST /api/tasks/{id}/subtasks/{sub}/toggle", s.toggleSubTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/subtasks/{sub}", s.editSubTask)
	mux.HandleFunc("DELETE /api/tasks/{id}/subtasks/{sub}", s.deleteSubTask)

	mux.HandleFunc("GET /api/projects", s.listProjects)
	mux.HandleFunc("POST /api/projects", s.createProject)
	mux.HandleFunc("PATCH /api/projects/{id}", s.renameProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.deleteProject)
	mux.HandleFunc("POST /api/projects/{id}/inbox", s.moveProjectToInbox)
	mux.HandleFunc("POST /api/projects/{id}/restore", s.restoreProject)

	mux.HandleFunc("GET /api/calendar/{year}/{month}", s.calendarMonth)
	mux.HandleFunc("GET /api/history", s.recentHistory)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = metricsMiddleware(handler)
	handler = loggingMiddleware(s.log, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

type sidebarEntry struct {
	Label  string
	Href   string
	Active bool
	Inbox  bool
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	if q.View == "" {
		q.View = model.ViewInbox
	}
	q.Today = s.svc.Today()

	snapshot := s.svc.Snapshot()
	tasks := snapshot.Filter(q)

	entries := make([]sidebarEntry, 0, len(model.ReservedViews)+len(snapshot.Projects))
	for _, view := range model.ReservedViews {
		entries = append(entries, sidebarEntry{Label: view, Href: "/?view=" + view, Active: strings.EqualFold(q.View, view)})
	}
	for _, project := range snapshot.Projects {
		entries = append(entries, sidebarEntry{
			Label:  project.Name,
			Href:   "/?view=" + template.URLQueryEscaper(project.Name),
			Active: strings.EqualFold(strings.TrimSpace(q.View), project.Name),
			Inbox:  project.Inbox,
		})
	}

	data := struct {
		Query   board.Query
		Total   int
		Tasks   []model.Task
		Sidebar []sidebarEntry
	}{Query: q, Total: len(tasks), Tasks: tasks, Sidebar: entries}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Filter(queryFromRequest(r)))
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, found := s.svc.Snapshot().Task(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("task %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type taskRequest struct {
	Text     string `json:"text"`
	View     string `json:"view"`
	Date     string `json:"date"`
	Priority string `json:"priority"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	task, changed, err := s.svc.AddTask(r.Context(), req.Text, req.View, req.Date)
	respond(w, http.StatusCreated, task, changed, err)
}

func (s *Server) editTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	task, changed, err := s.svc.EditTask(r.Context(), id, req.Text)
	respond(w, http.StatusOK, task, changed, err)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	changed, err := s.svc.DeleteTask(r.Context(), id)
	respond(w, http.StatusOK, map[string]int64{"deleted": id}, changed, err)
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, changed, err := s.svc.ToggleTask(r.Context(), id)
	respond(w, http.StatusOK, task, changed, err)
}

func (s *Server) changePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	task, changed, err := s.svc.ChangePriority(r.Context(), id, model.Priority(req.Priority))
	respond(w, http.StatusOK, task, changed, err)
}

func (s *Server) setTaskDate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	task, changed, err := s.svc.SetTaskDate(r.Context(), id, req.Date)
	respond(w, http.StatusOK, task, changed, err)
}

func (s *Server) taskHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	history, err := s.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) recentHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := s.svc.RecentHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) createSubTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	sub, changed, err := s.svc.AddSubTask(r.Context(), id, req.Text)
	respond(w, http.StatusCreated, sub, changed, err)
}

func (s *Server) toggleSubTask(w http.ResponseWriter, r *http.Request) {
	id, subID, ok := pathSubIDs(w, r)
	if !ok {
		return
	}
	sub, changed, err := s.svc.ToggleSubTask(r.Context(), id, subID)
	respond(w, http.StatusOK, sub, changed, err)
}

func (s *Server) editSubTask(w http.ResponseWriter, r *http.Request) {
	id, subID, ok := pathSubIDs(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	sub, changed, err := s.svc.EditSubTask(r.Context(), id, subID, req.Text)
	respond(w, http.StatusOK, sub, changed, err)
}

func (s *Server) deleteSubTask(w http.ResponseWriter, r *http.Request) {
	id, subID, ok := pathSubIDs(w, r)
	if !ok {
		return
	}
	changed, err := s.svc.DeleteSubTask(r.Context(), id, subID)
	respond(w, http.StatusOK, map[string]int64{"deleted": subID}, changed, err)
}

type projectRequest struct {
	Name string `json:"name"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().Projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decode(w, r, &req) {
		return
	}
	project, changed, err := s.svc.AddProject(r.Context(), req.Name)
	respond(w, http.StatusCreated, project, changed, err)
}

func (s *Server) renameProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req projectRequest
	if !decode(w, r, &req) {
		return
	}
	project, changed, err := s.svc.RenameProject(r.Context(), id, req.Name)
	respond(w, http.StatusOK, project, changed, err)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	changed, err := s.svc.DeleteProject(r.Context(), id)
	respond(w, http.StatusOK, map[string]any{"deleted": id, "policy": s.svc.DeletePolicy()}, changed, err)
}

func (s *Server) moveProjectToInbox(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	project, changed, err := s.svc.MoveProjectToInbox(r.Context(), id)
	respond(w, http.StatusOK, project, changed, err)
}

func (s *Server) restoreProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	project, changed, err := s.svc.RestoreProject(r.Context(), id)
	respond(w, http.StatusOK, project, changed, err)
}

func (s *Server) calendarMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("invalid year"))
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusNotFound, fmt.Errorf("invalid month"))
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Snapshot().CalendarMonth(year, time.Month(month)))
}

func queryFromRequest(r *http.Request) board.Query {
	values := r.URL.Query()
	return board.Query{
		View: strings.TrimSpace(values.Get("view")),
		Date: strings.TrimSpace(values.Get("date")),
		Text: values.Get("q"),
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func pathSubIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return 0, 0, false
	}
	subID, ok := pathID(w, r, "sub")
	if !ok {
		return 0, 0, false
	}
	return id, subID, true
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

// respond maps a store result onto HTTP: unchanged calls are 204.
func respond(w http.ResponseWriter, status int, payload any, changed bool, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
