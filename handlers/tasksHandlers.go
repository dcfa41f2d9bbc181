package handlers

import (
	"fmt"
	"net/http"

	"task-manager-web/models"
	"task-manager-web/utilities"
)

// filterFromQuery reads ?status=&priority=&q= and rejects unknown values.
func filterFromQuery(r *http.Request) (models.TaskFilter, error) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:   models.Status(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		Search:   q.Get("q"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, fmt.Errorf("%w: invalid status %q", errBadRequest, filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return filter, fmt.Errorf("%w: invalid priority %q", errBadRequest, filter.Priority)
	}
	return filter, nil
}

// ListTasksHandler serves GET /api/tasks.
func (h *Handlers) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, r, err, "ListTasksHandler: invalid filter")
		return
	}

	utilities.LogDebug("ListTasksHandler: status=%q priority=%q q=%q", filter.Status, filter.Priority, filter.Search)
	tasks, err := h.store.Query(filter)
	if err != nil {
		writeError(w, r, err, "ListTasksHandler: loading tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTaskHandler serves POST /api/tasks.
func (h *Handlers) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in models.NewTask
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "CreateTaskHandler: decoding body")
		return
	}

	task, err := h.store.Create(in)
	if err != nil {
		writeError(w, r, err, "CreateTaskHandler: creating task")
		return
	}

	utilities.LogInfo("task created: %q (id %d)", task.Title, task.ID)
	writeJSON(w, http.StatusCreated, task)
}

// GetTaskHandler serves GET /api/tasks/{id}.
func (h *Handlers) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, err, "GetTaskHandler")
		return
	}

	task, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, err, "GetTaskHandler: loading task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTaskHandler serves PUT /api/tasks/{id}. Only fields present in the
// body change.
func (h *Handlers) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, err, "UpdateTaskHandler")
		return
	}

	var patch models.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "UpdateTaskHandler: decoding body")
		return
	}

	task, err := h.store.Update(id, patch)
	if err != nil {
		writeError(w, r, err, "UpdateTaskHandler: updating task")
		return
	}

	utilities.LogInfo("task updated: id %d", task.ID)
	writeJSON(w, http.StatusOK, task)
}

// ToggleTaskHandler serves POST /api/tasks/{id}/toggle.
func (h *Handlers) ToggleTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, err, "ToggleTaskHandler")
		return
	}

	task, err := h.store.Toggle(id)
	if err != nil {
		writeError(w, r, err, "ToggleTaskHandler: toggling task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTaskHandler serves DELETE /api/tasks/{id} and returns the removed task.
func (h *Handlers) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, err, "DeleteTaskHandler")
		return
	}

	task, err := h.store.Delete(id)
	if err != nil {
		writeError(w, r, err, "DeleteTaskHandler: deleting task")
		return
	}

	utilities.LogInfo("task deleted: id %d", task.ID)
	writeJSON(w, http.StatusOK, task)
}

// StatsHandler serves GET /api/stats.
func (h *Handlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		writeError(w, r, err, "StatsHandler: loading tasks")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HealthHandler reports whether the tasks file can be loaded.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.List()
	if err != nil {
		writeError(w, r, err, "HealthHandler")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tasks": len(tasks)})
}
