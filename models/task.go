package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the format the command line task manager writes for
// created_at and updated_at (local time, microseconds, no zone).
const TimestampLayout = "2006-01-02T15:04:05.000000"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusPending, StatusCompleted}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is one record of the tasks file. Fields the web app does not know
// about are kept in Extra so they survive a rewrite of the file. A "done"
// flag written by other tools is one of those: completion is read from
// Status only.
type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`

	Extra map[string]json.RawMessage `json:"-"`

	// Absent lists the optional known fields the record was read without.
	// They stay out of the file until they hold a value.
	Absent map[string]bool `json:"-"`
}

var knownTaskFields = []string{"id", "title", "description", "priority", "status", "created_at", "updated_at"}

// optionalTaskFields may be missing from records written by other tools.
var optionalTaskFields = []string{"description", "priority", "status", "created_at", "updated_at"}

func isKnownTaskField(name string) bool {
	for _, f := range knownTaskFields {
		if f == name {
			return true
		}
	}
	return false
}

// taskFields is Task without its JSON methods.
type taskFields Task

func (t *Task) UnmarshalJSON(data []byte) error {
	var fields taskFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields.Absent = nil
	for _, k := range optionalTaskFields {
		if _, ok := raw[k]; ok {
			continue
		}
		if fields.Absent == nil {
			fields.Absent = make(map[string]bool)
		}
		fields.Absent[k] = true
	}

	fields.Extra = nil
	for k, v := range raw {
		if isKnownTaskField(k) {
			continue
		}
		if fields.Extra == nil {
			fields.Extra = make(map[string]json.RawMessage)
		}
		// Compact so a value reads back the same after an indented rewrite.
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return err
		}
		fields.Extra[k] = buf.Bytes()
	}

	*t = Task(fields)
	return nil
}

// RefreshAbsent forgets absent fields that have since been given a value.
func (t *Task) RefreshAbsent() {
	for k := range t.Absent {
		if t.optionalValue(k) != "" {
			delete(t.Absent, k)
		}
	}
	if len(t.Absent) == 0 {
		t.Absent = nil
	}
}

func (t Task) optionalValue(key string) string {
	switch key {
	case "description":
		return t.Description
	case "priority":
		return string(t.Priority)
	case "status":
		return string(t.Status)
	case "created_at":
		return t.CreatedAt
	case "updated_at":
		return t.UpdatedAt
	}
	return ""
}

// MarshalJSON writes the known fields first, in file order, then any extra
// fields sorted by key. Fields listed in Absent are skipped while empty.
func (t Task) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "id", t.ID); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeMember(&buf, "title", t.Title); err != nil {
		return nil, err
	}
	for _, k := range optionalTaskFields {
		v := t.optionalValue(k)
		if v == "" && t.Absent[k] {
			continue
		}
		buf.WriteByte(',')
		if err := writeMember(&buf, k, v); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		if !isKnownTaskField(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeMember(&buf, k, t.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// NewTask holds the input for creating a task.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// TaskPatch holds an update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *Priority `json:"priority"`
	Status      *Status   `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil
}

// TaskFilter narrows a task query. Zero values match everything.
type TaskFilter struct {
	Status   Status
	Priority Priority
	Search   string
}

// Match reports whether t passes every set filter.
func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

type TaskStats struct {
	Total      int              `json:"total"`
	Pending    int              `json:"pending"`
	Completed  int              `json:"completed"`
	ByPriority map[Priority]int `json:"by_priority"`
}

// ComputeStats counts tasks by status and priority.
func ComputeStats(tasks []Task) TaskStats {
	stats := TaskStats{
		Total:      len(tasks),
		ByPriority: make(map[Priority]int),
	}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			stats.Pending++
		case StatusCompleted:
			stats.Completed++
		}
		stats.ByPriority[t.Priority]++
	}
	return stats
}

// FormatTimestamp renders ts in TimestampLayout.
func FormatTimestamp(ts time.Time) string {
	return ts.Format(TimestampLayout)
}
