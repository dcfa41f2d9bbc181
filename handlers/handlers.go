// Package handlers is the HTTP layer: HTML pages and a JSON API over an
// injected task repository.
package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"task-manager-web/models"
	"task-manager-web/utilities"
)

// TaskRepository is the task store as seen by the handlers.
type TaskRepository interface {
	List() ([]models.Task, error)
	Query(filter models.TaskFilter) ([]models.Task, error)
	Get(id int) (models.Task, error)
	Create(in models.NewTask) (models.Task, error)
	Update(id int, patch models.TaskPatch) (models.Task, error)
	Edit(id int, edit func(current models.Task) models.TaskPatch) (models.Task, error)
	Toggle(id int) (models.Task, error)
	Delete(id int) (models.Task, error)
	Stats() (models.TaskStats, error)
}

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index.html", "stats.html", "error.html"}

// Handlers serves the task pages and API from one store.
type Handlers struct {
	store   TaskRepository
	appName string
	pages   map[string]*template.Template
}

func New(store TaskRepository, appName string) (*Handlers, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handlers{
		store:   store,
		appName: appName,
		pages:   pages,
	}, nil
}

var templateFuncs = template.FuncMap{
	"markdown":   utilities.RenderMarkdown,
	"capitalize": capitalize,
	"shortTime":  shortTime,
	"priorities": func() []models.Priority { return models.Priorities },
	"statuses":   func() []models.Status { return models.Statuses },
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func capitalize(v any) string {
	str := fmt.Sprint(v)
	r, size := utf8.DecodeRuneInString(str)
	if r == utf8.RuneError {
		return str
	}
	return string(unicode.ToUpper(r)) + str[size:]
}

// shortTime drops the fractional seconds of a stored timestamp.
func shortTime(ts string) string {
	ts = strings.Replace(ts, "T", " ", 1)
	if len(ts) > 19 {
		return ts[:19]
	}
	return ts
}
