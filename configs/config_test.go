package config

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "")
	assert.Equal(t, []string{"http://localhost:5173"}, allowedOrigins())

	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, allowedOrigins())
}

func TestCustomLoggerMiddlewareTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	InstanceId = "instance-under-test"

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(CustomLoggerMiddleware())
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	out := buf.String()
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, out, "GET /ping")
	assert.Contains(t, out, "instance=instance-under-test")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "request_id=")
}
