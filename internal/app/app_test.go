package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/config"
	"Herald/internal/logging"
)

func TestNewWithMemoryStoreServesGeneration(t *testing.T) {
	t.Parallel()

	cfg := config.Merge(config.Config{Database: config.DatabaseConfig{DSN: config.MemoryDSN}})
	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, application.scheduler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/herald", strings.NewReader(`{"edition_type":"monthly"}`))
	application.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"edition_type":"monthly"`)
}

func TestNewWithoutDatabaseReportsUnavailable(t *testing.T) {
	t.Parallel()

	cfg := config.Merge(config.Config{Scheduler: config.SchedulerConfig{Enabled: true}})
	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, application.scheduler)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/herald?action=preview&id=abc", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "store not configured")
}
