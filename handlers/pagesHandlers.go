package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"task-manager-web/database"
	"task-manager-web/models"
	"task-manager-web/utilities"
)

type pageData struct {
	AppName  string
	Flash    *flash
	Tasks    []models.Task
	Stats    models.TaskStats
	Status   models.Status
	Priority models.Priority
	Query    string
	Error    string
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data pageData) {
	data.AppName = h.appName

	var buf bytes.Buffer
	if err := h.pages[name].Execute(&buf, data); err != nil {
		utilities.LogError(err, "rendering "+name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error, context string) {
	status := statusFor(err)
	utilities.LogError(err, context)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	h.render(w, status, "error.html", pageData{Flash: popFlash(w, r), Error: msg})
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// IndexPage serves GET /. Unknown filter values are ignored.
func (h *Handlers) IndexPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:   models.Status(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
	if !filter.Status.Valid() {
		filter.Status = ""
	}
	if !filter.Priority.Valid() {
		filter.Priority = ""
	}

	tasks, err := h.store.Query(filter)
	if err != nil {
		h.renderError(w, r, err, "IndexPage: loading tasks")
		return
	}
	stats, err := h.store.Stats()
	if err != nil {
		h.renderError(w, r, err, "IndexPage: loading stats")
		return
	}

	h.render(w, http.StatusOK, "index.html", pageData{
		Flash:    popFlash(w, r),
		Tasks:    tasks,
		Stats:    stats,
		Status:   filter.Status,
		Priority: filter.Priority,
		Query:    filter.Search,
	})
}

// StatsPage serves GET /stats.
func (h *Handlers) StatsPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		h.renderError(w, r, err, "StatsPage: loading stats")
		return
	}
	h.render(w, http.StatusOK, "stats.html", pageData{Flash: popFlash(w, r), Stats: stats})
}

// formPriority returns the submitted priority, or fallback when it is
// missing or unknown.
func formPriority(r *http.Request, fallback models.Priority) models.Priority {
	p := models.Priority(strings.ToLower(strings.TrimSpace(r.PostFormValue("priority"))))
	if !p.Valid() {
		return fallback
	}
	return p
}

// CreateTaskForm serves POST /tasks.
func (h *Handlers) CreateTaskForm(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		setFlash(w, "danger", "Title is required")
		redirectHome(w, r)
		return
	}

	task, err := h.store.Create(models.NewTask{
		Title:       title,
		Description: r.PostFormValue("description"),
		Priority:    formPriority(r, models.PriorityMedium),
	})
	if err != nil {
		if errors.Is(err, database.ErrValidation) {
			setFlash(w, "danger", err.Error())
			redirectHome(w, r)
			return
		}
		h.renderError(w, r, err, "CreateTaskForm: creating task")
		return
	}

	utilities.LogInfo("task created: %q (id %d)", task.Title, task.ID)
	setFlash(w, "success", "Task created")
	redirectHome(w, r)
}

// UpdateTaskForm serves POST /tasks/{id}/update. Blank or unknown values
// keep the current ones.
func (h *Handlers) UpdateTaskForm(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.renderError(w, r, err, "UpdateTaskForm")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	description := strings.TrimSpace(r.PostFormValue("description"))
	priority := models.Priority(strings.ToLower(strings.TrimSpace(r.PostFormValue("priority"))))
	status := models.Status(strings.ToLower(strings.TrimSpace(r.PostFormValue("status"))))

	_, err = h.store.Edit(id, func(current models.Task) models.TaskPatch {
		patch := models.TaskPatch{Title: &current.Title}
		if title != "" {
			patch.Title = &title
		}
		if description != "" {
			patch.Description = &description
		}
		if priority.Valid() {
			patch.Priority = &priority
		}
		if status.Valid() {
			patch.Status = &status
		}
		return patch
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			setFlash(w, "danger", "Task not found")
		case errors.Is(err, database.ErrValidation):
			setFlash(w, "danger", err.Error())
		default:
			h.renderError(w, r, err, "UpdateTaskForm: updating task")
			return
		}
		redirectHome(w, r)
		return
	}

	setFlash(w, "success", "Task updated")
	redirectHome(w, r)
}

// ToggleTaskForm serves POST /tasks/{id}/toggle.
func (h *Handlers) ToggleTaskForm(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.renderError(w, r, err, "ToggleTaskForm")
		return
	}

	if _, err := h.store.Toggle(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			setFlash(w, "danger", "Task not found")
			redirectHome(w, r)
			return
		}
		h.renderError(w, r, err, "ToggleTaskForm: toggling task")
		return
	}

	setFlash(w, "info", "Task status toggled")
	redirectHome(w, r)
}

// DeleteTaskForm serves POST /tasks/{id}/delete.
func (h *Handlers) DeleteTaskForm(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.renderError(w, r, err, "DeleteTaskForm")
		return
	}

	if _, err := h.store.Delete(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			setFlash(w, "danger", "Task not found")
			redirectHome(w, r)
			return
		}
		h.renderError(w, r, err, "DeleteTaskForm: deleting task")
		return
	}

	setFlash(w, "warning", "Task deleted")
	redirectHome(w, r)
}
