package database

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"task-manager-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsRewrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	var calls atomic.Int32
	w, err := NewWatcher(s.Path(), func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	_, err = s.Create(models.NewTask{Title: "a"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	var calls atomic.Int32
	w, err := NewWatcher(s.Path(), func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	other := filepath.Join(filepath.Dir(s.Path()), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0o644))

	time.Sleep(3 * watchDebounce)
	assert.Zero(t, calls.Load())
}
