// Package server wires the HTTP API together.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mager/harmonyhub/cache"
	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/database"
	"github.com/mager/harmonyhub/fetcher"
	"github.com/mager/harmonyhub/genres"
	dashHandler "github.com/mager/harmonyhub/handler/dashboard"
	"github.com/mager/harmonyhub/handler/discover"
	"github.com/mager/harmonyhub/handler/health"
	"github.com/mager/harmonyhub/handler/profile"
	spotHandler "github.com/mager/harmonyhub/handler/spotify"
	"github.com/mager/harmonyhub/logger"
	"github.com/mager/harmonyhub/musicbrainz"
	"github.com/mager/harmonyhub/retry"
	"github.com/mager/harmonyhub/spotify"
	"github.com/mager/harmonyhub/token"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
}

// Core provides everything a dashboard render needs, without the HTTP
// server.
var Core = fx.Options(
	fx.Provide(
		config.Options,
		logger.Options,
		database.Options,
		cache.Options,
		token.Options,
		spotify.ProvideClassifier,
		retry.Options,
		spotify.Options,
		fetcher.Options,
		genres.Options,
		musicbrainz.Options,
		dashboard.Options,
	),
)

// Module is Core plus the HTTP server and its routes.
var Module = fx.Options(
	Core,
	fx.Provide(
		fx.Annotate(NewHTTPServer, fx.ParamTags(``, ``, ``, `group:"routes"`)),

		AsRoute(health.NewHealthHandler),
		AsRoute(spotHandler.NewAuthLoginHandler),
		AsRoute(spotHandler.NewAuthCallbackHandler),
		AsRoute(spotHandler.NewPlaybackHandler),
		AsRoute(profile.NewProfileHandler),
		AsRoute(dashHandler.NewDashboardHandler),
		AsRoute(discover.NewDiscoverHandler),
	),
	fx.Invoke(func(*http.Server) {}),
)

func NewHTTPServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg config.Config, routes []Route) *http.Server {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(log, routes),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infow("Starting HTTP server", "addr", srv.Addr)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// NewRouter registers every route for GET.
func NewRouter(log *zap.SugaredLogger, routes []Route) *mux.Router {
	r := mux.NewRouter()
	r.Use(logMiddleware(log))
	for _, route := range routes {
		r.Handle(route.Pattern(), route).Methods(http.MethodGet)
	}
	return r
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func logMiddleware(log *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
