// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/pkg/tracing"
)

type AppCtx struct {
	Router *mux.Router
	Config Config
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务通过该回调注册自己的 HTTP 路由
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	cfg := GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	router := mux.NewRouter()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Router: router, Config: cfg})
	}

	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: router}

	// 监听退出信号；收到信号后 ctx 被取消，进入关停流程
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Ctx(gCtx).Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Ctx(context.Background()).Info().Msgf("shutting down %s", info.ServiceName)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// 先停 HTTP 服务器，再关 Tracer，保证缓冲中的 Span 都被发出
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Ctx(context.Background()).Error().Err(err).Msg("error shutting down http server")
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Ctx(context.Background()).Error().Err(err).Msg("error shutting down tracer provider")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msgf("%s exited abnormally", info.ServiceName)
	}
	logger.Ctx(context.Background()).Info().Msgf("%s gracefully shut down", info.ServiceName)
}
