package handlers

import "github.com/gorilla/mux"

// Register adds the page and API routes to r.
func (h *Handlers) Register(r *mux.Router) {
	// --- Pages ---
	r.HandleFunc("/", h.IndexPage).Methods("GET")
	r.HandleFunc("/stats", h.StatsPage).Methods("GET")
	r.HandleFunc("/tasks", h.CreateTaskForm).Methods("POST")
	r.HandleFunc("/tasks/{id:[0-9]+}/update", h.UpdateTaskForm).Methods("POST")
	r.HandleFunc("/tasks/{id:[0-9]+}/toggle", h.ToggleTaskForm).Methods("POST")
	r.HandleFunc("/tasks/{id:[0-9]+}/delete", h.DeleteTaskForm).Methods("POST")

	// --- JSON API ---
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tasks", h.ListTasksHandler).Methods("GET")
	api.HandleFunc("/tasks", h.CreateTaskHandler).Methods("POST")
	api.HandleFunc("/tasks/{id:[0-9]+}", h.GetTaskHandler).Methods("GET")
	api.HandleFunc("/tasks/{id:[0-9]+}", h.UpdateTaskHandler).Methods("PUT")
	api.HandleFunc("/tasks/{id:[0-9]+}", h.DeleteTaskHandler).Methods("DELETE")
	api.HandleFunc("/tasks/{id:[0-9]+}/toggle", h.ToggleTaskHandler).Methods("POST")
	api.HandleFunc("/stats", h.StatsHandler).Methods("GET")

	r.HandleFunc("/healthz", h.HealthHandler).Methods("GET")
}
