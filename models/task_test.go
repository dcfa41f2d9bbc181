package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_MarshalOrdersKnownFieldsFirst(t *testing.T) {
	t.Parallel()

	task := Task{
		ID:        2,
		Title:     "Plan trip",
		Priority:  PriorityLow,
		Status:    StatusPending,
		CreatedAt: "2024-01-01T00:00:00.000000",
		UpdatedAt: "2024-01-01T00:00:00.000000",
		Extra: map[string]json.RawMessage{
			"tags":     json.RawMessage(`["x"]`),
			"due_date": json.RawMessage(`"2024-05-01"`),
			"title":    json.RawMessage(`"shadowed"`),
		},
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	want := `{"id":2,"title":"Plan trip","description":"","priority":"low","status":"pending",` +
		`"created_at":"2024-01-01T00:00:00.000000","updated_at":"2024-01-01T00:00:00.000000",` +
		`"due_date":"2024-05-01","tags":["x"]}`
	assert.Equal(t, want, string(data))
}

func TestTask_UnmarshalKeepsUnknownFields(t *testing.T) {
	t.Parallel()

	var task Task
	err := json.Unmarshal([]byte(`{"id": 1, "title": "a", "status": "completed", "due_date": "2024-05-01", "meta": {"a": [1, 2]}}`), &task)
	require.NoError(t, err)

	want := Task{
		ID:     1,
		Title:  "a",
		Status: StatusCompleted,
		Extra: map[string]json.RawMessage{
			"due_date": json.RawMessage(`"2024-05-01"`),
			"meta":     json.RawMessage(`{"a":[1,2]}`),
		},
		Absent: map[string]bool{"description": true, "priority": true, "created_at": true, "updated_at": true},
	}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Fatalf("task mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, task.Completed())
}

func TestTask_MissingFieldsStayMissing(t *testing.T) {
	t.Parallel()

	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "title": "legacy", "done": true}`), &task))

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"title":"legacy","done":true}`, string(data))

	task.Status = StatusCompleted
	task.RefreshAbsent()
	assert.NotContains(t, task.Absent, "status")
	assert.True(t, task.Absent["priority"])

	data, err = json.Marshal(task)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"title":"legacy","status":"completed","done":true}`, string(data))
}

func TestTask_EmptyPresentFieldIsKept(t *testing.T) {
	t.Parallel()

	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id": 2, "title": "b", "description": ""}`), &task))
	assert.NotContains(t, task.Absent, "description")

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Equal(t, `{"id":2,"title":"b","description":""}`, string(data))
}

func TestTask_UnmarshalWithoutExtrasLeavesMapNil(t *testing.T) {
	t.Parallel()

	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "title": "a"}`), &task))
	assert.Nil(t, task.Extra)
}

func TestPriorityAndStatusValid(t *testing.T) {
	t.Parallel()

	for _, p := range Priorities {
		assert.True(t, p.Valid(), p)
	}
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Priority("urgent").Valid())
	assert.False(t, Priority("").Valid())
	assert.False(t, Status("in_progress").Valid())
}

func TestTaskFilter_Match(t *testing.T) {
	t.Parallel()

	task := Task{Title: "Pay Rent", Description: "before the 5th", Priority: PriorityHigh, Status: StatusPending}

	tests := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"empty", TaskFilter{}, true},
		{"status match", TaskFilter{Status: StatusPending}, true},
		{"status mismatch", TaskFilter{Status: StatusCompleted}, false},
		{"priority mismatch", TaskFilter{Priority: PriorityLow}, false},
		{"search title case-insensitive", TaskFilter{Search: "rENT"}, true},
		{"search description", TaskFilter{Search: "5th"}, true},
		{"search miss", TaskFilter{Search: "groceries"}, false},
		{"blank search", TaskFilter{Search: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(task))
		})
	}
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	stats := ComputeStats([]Task{
		{Priority: PriorityHigh, Status: StatusPending},
		{Priority: PriorityHigh, Status: StatusCompleted},
		{Priority: PriorityMedium, Status: StatusPending},
	})

	want := TaskStats{
		Total:      3,
		Pending:    2,
		Completed:  1,
		ByPriority: map[Priority]int{PriorityHigh: 2, PriorityMedium: 1},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	empty := ComputeStats(nil)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.ByPriority)
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 7, 9, 8, 5, 3, 42000, time.UTC)
	assert.Equal(t, "2024-07-09T08:05:03.000042", FormatTimestamp(ts))
}
