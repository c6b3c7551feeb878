package logging

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger.
func Setup(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Logger tags events with a component name. It reads the global logger on
// every event, so package-level loggers pick up Setup even when they are
// created before it runs.
type Logger struct {
	component string
}

// New returns a logger tagged with the given component name.
func New(component string) Logger {
	return Logger{component: component}
}

func (l Logger) current() zerolog.Logger {
	return log.Logger.With().Str("component", l.component).Logger()
}

func (l Logger) Debug() *zerolog.Event { c := l.current(); return c.Debug() }
func (l Logger) Info() *zerolog.Event  { c := l.current(); return c.Info() }
func (l Logger) Warn() *zerolog.Event  { c := l.current(); return c.Warn() }
func (l Logger) Error() *zerolog.Event { c := l.current(); return c.Error() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func Middleware(next http.Handler) http.Handler {
	logger := New("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}
