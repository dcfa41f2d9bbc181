package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"task-manager-web/config"
	"task-manager-web/database"
	"task-manager-web/handlers"
	"task-manager-web/models"
	"task-manager-web/utilities"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, origins ...string) (http.Handler, *database.TaskStore) {
	t.Helper()

	store := database.NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"))
	h, err := handlers.New(store, config.DefaultAppName)
	require.NoError(t, err)

	cfg := config.Default()
	if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	return NewRouter(h, cfg), store
}

func TestRouter_ServesPagesAndAPI(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t)
	_, err := store.Create(models.NewTask{Title: "routed"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "routed")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/tasks/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "https://allowed.example")

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Origin", "https://allowed.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Compresses(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, router) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "title": "a", "status": "pending"}, {"id": 2, "title": "b", "status": "completed"}]`), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "--tasks-file", path, "--env-file", ""})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, path+": 2 tasks (1 pending, 1 completed)\n", out.String())

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1}]`), 0o644))
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "--tasks-file", path, "--env-file", ""})
	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
}

func TestOptionsResolve_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv(config.EnvTasksPath, "from-env.json")
	t.Setenv(config.EnvPort, "9001")
	t.Setenv(config.EnvConfigFile, "")

	opts := &options{}
	fs := pflag.NewFlagSet("taskweb", pflag.ContinueOnError)
	opts.register(fs)
	require.NoError(t, fs.Parse([]string{"--port", "9002", "--env-file", ""}))

	cfg, err := opts.resolve(fs)
	require.NoError(t, err)
	wantPath, err := filepath.Abs("from-env.json")
	require.NoError(t, err)
	assert.Equal(t, wantPath, cfg.TasksPath)
	assert.True(t, filepath.IsAbs(cfg.TasksPath))
	assert.Equal(t, "9002", cfg.Port)
	assert.False(t, cfg.Watch)
}

func TestOptionsResolve_InvalidPortFlag(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")

	opts := &options{}
	fs := pflag.NewFlagSet("taskweb", pflag.ContinueOnError)
	opts.register(fs)
	require.NoError(t, fs.Parse([]string{"-p", "70000", "--env-file", ""}))

	_, err := opts.resolve(fs)
	assert.Error(t, err)
}

func TestOptionsResolve_DefaultTasksFileIsAbsolute(t *testing.T) {
	t.Setenv(config.EnvTasksPath, "")
	t.Setenv(config.EnvConfigFile, "")

	opts := &options{}
	fs := pflag.NewFlagSet("taskweb", pflag.ContinueOnError)
	opts.register(fs)
	require.NoError(t, fs.Parse([]string{"--env-file", ""}))

	cfg, err := opts.resolve(fs)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, config.DefaultTasksPath), cfg.TasksPath)
}

func TestRouter_UnmatchedRoutesAreTaggedAndLogged(t *testing.T) {
	require.NoError(t, utilities.InitLogger("info", "text"))
	var logs bytes.Buffer
	utilities.SetLogOutput(&logs)
	t.Cleanup(func() { utilities.SetLogOutput(os.Stdout) })

	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"unknown path", "GET", "/no-such-page", http.StatusNotFound},
		{"wrong method", "DELETE", "/stats", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)

			id := rec.Header().Get("X-Request-ID")
			require.NotEmpty(t, id)
			assert.Contains(t, logs.String(), "request_id="+id)
			assert.Contains(t, logs.String(), fmt.Sprintf("status=%d", tt.want))
		})
	}
}
