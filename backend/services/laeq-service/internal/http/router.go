package httpserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"noisemap/backend/services/laeq-service/internal/http/middleware"
	"noisemap/backend/services/laeq-service/internal/observability"
)

// Routes defines HTTP endpoints. Nil handlers are not mounted.
type Routes struct {
	LAeq    http.Handler
	Chart   http.Handler
	Ask     http.Handler
	Live    http.Handler
	Health  http.Handler
	Metrics *observability.Metrics
	AskAuth func(http.Handler) http.Handler
}

// NewRouter sets up HTTP routing, CORS and panic recovery.
func NewRouter(routes Routes, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	m := routes.Metrics

	if routes.LAeq != nil {
		r.Handle("/api/laeq", m.WrapHandler("laeq", routes.LAeq)).Methods(http.MethodGet, http.MethodPost)
	}
	if routes.Chart != nil {
		r.Handle("/api/chart", m.WrapHandler("chart", routes.Chart)).Methods(http.MethodGet)
	}
	if routes.Ask != nil {
		ask := routes.Ask
		if routes.AskAuth != nil {
			ask = routes.AskAuth(ask)
		}
		r.Handle("/api/ask", m.WrapHandler("ask", ask)).Methods(http.MethodPost)
	}
	if routes.Live != nil {
		r.Handle("/ws/live", routes.Live).Methods(http.MethodGet)
	}
	if routes.Health != nil {
		r.Handle("/health", routes.Health).Methods(http.MethodGet)
	}
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(zapRecoveryLogger{logger}), handlers.PrintRecoveryStack(false))

	return recovery(middleware.AccessLog(logger)(cors(r)))
}

type zapRecoveryLogger struct {
	logger *zap.Logger
}

func (l zapRecoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic recovered", zap.Any("panic", v))
}
