package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/kalpovskii/todos/internal/app/models"
	"github.com/kalpovskii/todos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		APIPort:   "0",
		DataFile:  filepath.Join(dir, "todos.json"),
		StaticDir: dir,
	}
}

func TestNewAppInitializesDataFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	_, cleanup, err := newApp(context.Background(), cfg, log.New(io.Discard))
	require.NoError(t, err)
	defer cleanup()

	b, err := os.ReadFile(cfg.DataFile)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestNewAppPersistsToFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	handler, cleanup, err := newApp(context.Background(), cfg, log.New(io.Discard))
	require.NoError(t, err)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{"title":"Buy milk"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	b, err := os.ReadFile(cfg.DataFile)
	require.NoError(t, err)
	var onDisk []models.Todo
	require.NoError(t, json.Unmarshal(b, &onDisk))
	require.Len(t, onDisk, 1)
	assert.Equal(t, "Buy milk", onDisk[0].Title)
}

func TestNewAppWithRedisCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	handler, cleanup, err := newApp(context.Background(), cfg, log.New(io.Discard))
	require.NoError(t, err)
	defer cleanup()

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/todos", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, mr.Exists("todos:list"))

	req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.False(t, mr.Exists("todos:list"))
}

func TestRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, log.New(io.Discard)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("run did not return after cancel")
	}
}
