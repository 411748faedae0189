package config

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

var InstanceId string

func LoadEnv(service string) {
	log.Info("service configuration and env variables loading started ...")
	err := godotenv.Load("./.env")
	if err != nil {
		// plain environment variables are enough in containers
		log.Warnf("no .env file for %s service: %s", service, err)
		return
	}

	log.Info(".env file loaded.")
}

func CreateUniqueInstance(service string) string {
	id, err := uuid.NewV4() // instance identifier
	if err != nil {
		log.Errorf("error generating instanceId: %s", err)
		os.Exit(0)
	}
	InstanceId = id.String()
	log.Infof(service+" service with Instance ID: %s is ready", id)
	return id.String()
}

func GetInstanceId() string {
	return InstanceId
}

// allowedOrigins reads CORS_ORIGINS as a comma separated list.
func allowedOrigins() []string {
	v := os.Getenv("CORS_ORIGINS")
	if v == "" {
		return []string{"http://localhost:5173"}
	}
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func CORS() *cors.Cors {
	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return corsOptions
}

// Logging writes the service log to .l_g/<service>.log. LOG_LEVEL overrides
// the info default.
func Logging(service string) {
	logDir := ".l_g"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warnf("unable to create log folder for %s: %s", service, err)
		return
	}

	file, err := os.OpenFile(filepath.Join(logDir, service+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("failed to open log file for %s: %s", service, err)
	}
	log.SetOutput(file)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level := log.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if level, err = log.ParseLevel(v); err != nil {
			log.Warnf("unknown LOG_LEVEL %q, using info", v)
			level = log.InfoLevel
		}
	}
	log.SetLevel(level)

	log.Infof("logging %s at %s level", service, level)
}

// CustomLoggerMiddleware logs one line per request, tagged with the request
// id and the instance that served it.
func CustomLoggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				entry := log.WithFields(log.Fields{
					"instance":   InstanceId,
					"request_id": middleware.GetReqID(r.Context()),
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				})
				msg := r.Method + " " + r.RequestURI + " " + r.RemoteAddr
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn(msg)
					return
				}
				entry.Info(msg)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
