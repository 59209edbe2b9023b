// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelmatch/internal/audit"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/middleware"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/tasks"
	"github.com/tomtom215/reelmatch/internal/validation"
)

// taskHistoryLimit is the number of runs listed by the task console.
const taskHistoryLimit = 20

// TaskInfo describes one registered task.
type TaskInfo struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
}

// TaskList is the task console payload.
type TaskList struct {
	Tasks      []TaskInfo  `json:"tasks"`
	RecentRuns []tasks.Run `json:"recent_runs"`
}

// TaskStarted acknowledges a manual run.
type TaskStarted struct {
	RunID string `json:"run_id"`
	Task  string `json:"task"`
}

// handleListTasks lists registered tasks and recent runs.
//
// @Summary List background tasks
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=TaskList}
// @Failure 403 {object} APIResponse
// @Router /admin/tasks/ [get]
func (rt *Router) handleListTasks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	names := rt.deps.Tasks.Names()
	list := TaskList{Tasks: make([]TaskInfo, 0, len(names))}
	for _, name := range names {
		list.Tasks = append(list.Tasks, TaskInfo{Name: name, Running: rt.deps.Tasks.IsRunning(name)})
	}
	list.RecentRuns = rt.deps.Tasks.History(taskHistoryLimit)
	if list.RecentRuns == nil {
		list.RecentRuns = []tasks.Run{}
	}
	rw.Success(list)
}

// handleRunTask starts a task in the background. The run outlives the
// request.
//
// @Summary Run a background task
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param name path string true "Task name"
// @Success 202 {object} APIResponse{data=TaskStarted}
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /admin/tasks/{name}/run [post]
func (rt *Router) handleRunTask(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	id, err := rt.deps.Tasks.Start(r.Context(), name, "api")
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("task", name).Str("run_id", id).Msg("Task started from API")
	if rt.deps.Audit != nil {
		var uid int64
		if v := optionalUserID(r); v != nil {
			uid = *v
		}
		rt.deps.Audit.TaskRun(r.Context(), uid, name, id, clientIP(r))
	}
	rw.Status(http.StatusAccepted, TaskStarted{RunID: id, Task: name})
}

// handleGetTaskRun returns one recorded run.
//
// @Summary Get a task run
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run id"
// @Success 200 {object} APIResponse{data=tasks.Run}
// @Failure 404 {object} APIResponse
// @Router /admin/tasks/runs/{id} [get]
func (rt *Router) handleGetTaskRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	run, ok := rt.deps.Tasks.Get(chi.URLParam(r, "id"))
	if !ok {
		rw.NotFound("Task run not found")
		return
	}
	rw.Success(run)
}

// handlePerformance returns per-route latency percentiles.
//
// @Summary Request performance statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=[]middleware.EndpointStats}
// @Router /admin/performance/ [get]
func (rt *Router) handlePerformance(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if rt.deps.Performance == nil {
		rw.Success([]middleware.EndpointStats{})
		return
	}
	rw.Success(rt.deps.Performance.Stats())
}

// handleListAudit lists audit events, newest first.
//
// @Summary List audit events
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param type query string false "Event type, e.g. auth.login_failure"
// @Param outcome query string false "success or failure"
// @Param user_id query int false "Actor user id"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} APIResponse{data=[]audit.Event}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Router /admin/audit/ [get]
func (rt *Router) handleListAudit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p := newQueryParser(r)
	q := validation.AuditQuery{
		Type:      p.String("type", ""),
		Outcome:   p.String("outcome", ""),
		UserID:    p.OptionalInt("user_id"),
		PageQuery: parsePage(p),
	}
	if !p.ok(rw) || !validateQuery(rw, &q) {
		return
	}

	filter := audit.QueryFilter{
		Outcome: audit.Outcome(q.Outcome),
		Limit:   q.PageSize,
		Offset:  (q.Page - 1) * q.PageSize,
	}
	if q.Type != "" {
		filter.Types = []audit.EventType{audit.EventType(q.Type)}
	}
	if q.UserID != nil {
		filter.UserID = int64(*q.UserID)
	}

	total, err := rt.deps.Audit.Count(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	events, err := rt.deps.Audit.Query(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	rw.SuccessWithPagination(events, models.NewPagination(q.Page, q.PageSize, int(total)))
}

// handleAuditStats summarizes the audit trail.
//
// @Summary Audit trail statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=audit.Stats}
// @Failure 403 {object} APIResponse
// @Router /admin/audit/stats [get]
func (rt *Router) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	stats, err := rt.deps.Audit.Stats(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}
