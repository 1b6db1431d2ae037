package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sngm3741/riskboard/api/internal/config"
	"github.com/sngm3741/riskboard/api/internal/infrastructure/observability"
	adminhttp "github.com/sngm3741/riskboard/api/internal/interfaces/http/admin"
	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/riskboard/api/internal/interfaces/http/public"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
)

// availableRoutes は案内用の固定リスト。実際にマウントされているかとは無関係に返す。
var availableRoutes = []string{"/health", "/upload", "/risk-data", "/points"}

func (s *Server) buildRouter() (chi.Router, error) {
	router := chi.NewRouter()
	for _, name := range s.cfg.MiddlewareSet {
		mw, err := s.middlewareFor(name)
		if err != nil {
			return nil, err
		}
		if mw != nil {
			router.Use(mw)
		}
	}

	router.Get("/", s.rootHandler())
	router.Get("/health", s.healthHandler())
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:   s.logger,
		Commands: surveyapp.NewResponseCommandService(s.repo),
	})
	adminHandler := adminhttp.NewHandler(adminhttp.Config{
		Logger:  s.logger,
		Queries: surveyapp.NewResponseQueryService(s.repo),
	})

	mount := func(r chi.Router) {
		publicHandler.Register(r)
		if s.cfg.Auth.Enabled() {
			r.Route("/admin", func(ar chi.Router) {
				ar.Use(s.authMiddleware)
				adminHandler.Register(ar)
			})
		}
	}
	if s.cfg.RoutePrefix == "" {
		mount(router)
	} else {
		router.Route(s.cfg.RoutePrefix, mount)
	}

	mounted, err := collectRoutes(router)
	if err != nil {
		return nil, err
	}
	s.mountedRoutes = mounted
	return router, nil
}

func (s *Server) middlewareFor(name string) (func(http.Handler) http.Handler, error) {
	switch name {
	case config.MiddlewareRequestID:
		return middleware.RequestID, nil
	case config.MiddlewareRealIP:
		return middleware.RealIP, nil
	case config.MiddlewareLogger:
		return observability.RequestLogger(s.logger), nil
	case config.MiddlewareRecoverer:
		return middleware.Recoverer, nil
	case config.MiddlewareCORS:
		return cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}), nil
	case config.MiddlewareMetrics:
		if s.metrics == nil {
			return nil, nil
		}
		return observability.HTTPMetrics(s.metrics), nil
	default:
		return nil, fmt.Errorf("unknown middleware %q", name)
	}
}

func collectRoutes(router chi.Routes) ([]string, error) {
	var routes []string
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk routes: %w", err)
	}
	sort.Strings(routes)
	return routes, nil
}

func (s *Server) rootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(s.logger, w, http.StatusOK, map[string]any{
			"status":          "ok",
			"message":         "Risk survey API is running",
			"availableRoutes": availableRoutes,
			"mountedRoutes":   s.mountedRoutes,
		})
	}
}

// healthHandler はストアへの疎通確認を行い、監視系からのヘルスチェック要求に応える。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.repo.Ping(ctx); err != nil {
			common.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		common.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
