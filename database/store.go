// Package database persists the task list as a single JSON array on disk.
//
// The tasks file is shared with the command line task manager, so the store
// never caches it: every call reads the whole file and every mutation
// rewrites it atomically.
package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"task-manager-web/models"
	"task-manager-web/utilities"

	"github.com/natefinch/atomic"
)

const filePerm = 0o644

// TaskStore reads and writes one tasks file. It is safe for concurrent use
// within a single process.
type TaskStore struct {
	path string
	seq  *sequence
	now  func() time.Time

	// mu serializes read-modify-write cycles.
	mu sync.Mutex
}

type Option func(*TaskStore)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		s.now = now
	}
}

// NewTaskStore returns a store backed by path. The file does not need to
// exist; it is created on the first write.
func NewTaskStore(path string, opts ...Option) *TaskStore {
	s := &TaskStore{
		path: path,
		seq:  newSequence(path),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the tasks file location.
func (s *TaskStore) Path() string {
	return s.path
}

// List returns every task in file order. A missing file is an empty list.
func (s *TaskStore) List() ([]models.Task, error) {
	return s.load()
}

// Query returns the tasks matching filter, sorted by id.
func (s *TaskStore) Query(filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id int) (models.Task, error) {
	tasks, err := s.load()
	if err != nil {
		return models.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return tasks[i], nil
}

// Stats summarizes the task list.
func (s *TaskStore) Stats() (models.TaskStats, error) {
	tasks, err := s.load()
	if err != nil {
		return models.TaskStats{}, err
	}
	return models.ComputeStats(tasks), nil
}

// Create appends a new pending task and returns it.
func (s *TaskStore) Create(in models.NewTask) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Task{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return models.Task{}, err
	}

	highWater, err := s.seq.read()
	if err != nil {
		return models.Task{}, err
	}

	ts := models.FormatTimestamp(s.now())
	task := models.Task{
		ID:          max(highWater, maxID(tasks)) + 1,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      models.StatusPending,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if err := s.seq.write(task.ID); err != nil {
		return models.Task{}, err
	}
	if err := s.save(append(tasks, task)); err != nil {
		return models.Task{}, err
	}

	utilities.LogDebug("task %d created in %s", task.ID, s.path)
	return task, nil
}

// Update applies patch to the task with the given id and returns the result.
func (s *TaskStore) Update(id int, patch models.TaskPatch) (models.Task, error) {
	if err := validatePatch(patch); err != nil {
		return models.Task{}, err
	}

	return s.mutate(id, func(t *models.Task) error {
		applyPatch(t, patch)
		return nil
	})
}

// Edit builds a patch from the current task and applies it, both under the
// store lock, so the patch never works from a stale copy.
func (s *TaskStore) Edit(id int, edit func(current models.Task) models.TaskPatch) (models.Task, error) {
	return s.mutate(id, func(t *models.Task) error {
		patch := edit(*t)
		if err := validatePatch(patch); err != nil {
			return err
		}
		applyPatch(t, patch)
		return nil
	})
}

// Toggle flips a task between pending and completed.
func (s *TaskStore) Toggle(id int) (models.Task, error) {
	return s.mutate(id, func(t *models.Task) error {
		if t.Status == models.StatusCompleted {
			t.Status = models.StatusPending
		} else {
			t.Status = models.StatusCompleted
		}
		return nil
	})
}

// Delete removes the task with the given id and returns the removed record.
func (s *TaskStore) Delete(id int) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return models.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	removed := tasks[i]

	// Record the largest id before it can disappear from the file.
	if err := s.seq.raise(maxID(tasks)); err != nil {
		return models.Task{}, err
	}

	tasks = append(tasks[:i], tasks[i+1:]...)
	if err := s.save(tasks); err != nil {
		return models.Task{}, err
	}

	utilities.LogDebug("task %d deleted from %s", id, s.path)
	return removed, nil
}

func (s *TaskStore) mutate(id int, apply func(*models.Task) error) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return models.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if err := apply(&tasks[i]); err != nil {
		return models.Task{}, err
	}
	tasks[i].UpdatedAt = models.FormatTimestamp(s.now())
	tasks[i].RefreshAbsent()

	if err := s.save(tasks); err != nil {
		return models.Task{}, err
	}
	return tasks[i], nil
}

func applyPatch(t *models.Task, patch models.TaskPatch) {
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
}

func validatePatch(p models.TaskPatch) error {
	if p.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, *p.Status)
	}
	return nil
}

func (s *TaskStore) load() ([]models.Task, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrStoreUnavailable, s.path, err)
	}

	return decodeTasks(s.path, data)
}

func decodeTasks(path string, data []byte) ([]models.Task, error) {
	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, path, err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrStoreUnavailable, path, err)
	}

	seen := make(map[int]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate task id %d", ErrStoreUnavailable, path, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// encodeTasks renders the list the way the command line tool does: a
// two-space indented array.
func encodeTasks(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return json.MarshalIndent(tasks, "", "  ")
}

func (s *TaskStore) save(tasks []models.Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return fmt.Errorf("%w: encoding tasks: %w", ErrStoreUnavailable, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrStoreUnavailable, s.path, err)
	}
	return nil
}

// writeFileAtomic replaces path with data via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}

	// atomic.WriteFile keeps the mode of an existing file but leaves new
	// files with the temp file's 0600.
	if isNew {
		if err := os.Chmod(path, filePerm); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(tasks []models.Task, id int) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func maxID(tasks []models.Task) int {
	m := 0
	for _, t := range tasks {
		if t.ID > m {
			m = t.ID
		}
	}
	return m
}
