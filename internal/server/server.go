package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/config"
	"github.com/sngm3741/riskboard/api/internal/infrastructure/observability"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
)

const metricsNamespace = "riskboard"

// Dependencies は Server に外から渡す協調オブジェクト。
// Metrics が nil で設定上メトリクスが有効なら New が生成する。
type Dependencies struct {
	Repository surveyapp.ResponseRepository
	Logger     *zap.Logger
	Metrics    *observability.Collector
	CloseStore func(context.Context) error
}

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
// ルータは New の時点で組み上がっており、Run はリッスンと停止だけを担う。
type Server struct {
	cfg           config.Config
	logger        *zap.Logger
	repo          surveyapp.ResponseRepository
	metrics       *observability.Collector
	closeStore    func(context.Context) error
	router        http.Handler
	httpServer    *http.Server
	mountedRoutes []string
}

// New は設定を検証してからルータ全体を構築する。ここで失敗した場合は起動しない。
func New(cfg config.Config, deps Dependencies) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Repository == nil {
		return nil, errors.New("response repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := deps.Metrics
	if metrics == nil && cfg.MetricsEnabled {
		metrics = observability.NewCollector(metricsNamespace)
	}
	if !cfg.MetricsEnabled {
		metrics = nil
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger.Named("server"),
		repo:       observability.NewInstrumentedRepository(deps.Repository, logger, metrics),
		metrics:    metrics,
		closeStore: deps.CloseStore,
	}

	router, err := s.buildRouter()
	if err != nil {
		return nil, err
	}
	s.router = router
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the assembled router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MountedRoutes lists "METHOD /path" entries registered on the router.
func (s *Server) MountedRoutes() []string {
	return append([]string(nil), s.mountedRoutes...)
}

// Run binds the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.shutdownStore()
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve は渡されたリスナーで待ち受け、ctx のキャンセルで graceful shutdown してからストアを閉じる。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP サーバー起動",
			zap.String("addr", ln.Addr().String()),
			zap.String("route_prefix", s.cfg.RoutePrefix),
			zap.Strings("middleware", s.cfg.MiddlewareSet),
		)
		errChan <- s.httpServer.Serve(ln)
	}()

	err := s.waitForShutdown(ctx, errChan)
	s.shutdownStore()
	return err
}

// waitForShutdown は Serve の終了と ctx のキャンセルを監視する。
func (s *Server) waitForShutdown(ctx context.Context, errChan <-chan error) error {
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーが異常終了: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("停止要求を受信。サーバー停止処理を開始します。")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバー停止時にエラー: %w", err)
	}
	if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("HTTP サーバー停止")
	return nil
}

func (s *Server) shutdownStore() {
	if s.closeStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.closeStore(ctx); err != nil {
		s.logger.Warn("ストア切断時にエラー", zap.Error(err))
	}
}
