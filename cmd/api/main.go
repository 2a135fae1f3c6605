package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-advisor/backend/internal/config"
	"github.com/zhouzirui/z-advisor/backend/internal/handler"
	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/middleware"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	"github.com/zhouzirui/z-advisor/backend/internal/service/ai"
	"github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/service/recommend"
	"github.com/zhouzirui/z-advisor/backend/internal/telegram"
)

func main() {
	// Runs after every other deferred cleanup.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := logging.New(cfg.Log)
	if envErr != nil {
		logger.WithError(envErr).Debug("no .env file, using system environment variables only")
	}

	profileStore := profile.NewMemoryStore(profile.Seed())

	catalog, err := recommend.LoadFile(cfg.Catalog.CSVPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load investment catalog")
	}
	logger.WithField("investments", catalog.Len()).Info("investment catalog loaded")

	opts := []chat.Option{
		chat.WithDelay(cfg.Chat.ReplyDelay),
		chat.WithProfiles(profileStore),
		chat.WithRecommender(catalog),
		chat.WithLogger(logger),
	}

	// Initialize AI service
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI, logger)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize AI service, fallback replies stay canned - 请检查 Ark 模型相关环境变量")
		} else {
			opts = append(opts, chat.WithResponder(aiService, cfg.Chat.LLMTimeout))
			logger.Info("AI service initialized successfully")
		}
	} else {
		logger.Info("Ark 凭证未配置，跳过 AI 功能初始化")
	}

	chatService := chat.NewService(opts...)
	defer chatService.Close()

	router := handler.NewRouter(handler.Deps{
		Profiles:       profileStore,
		Chat:           chatService,
		Catalog:        catalog,
		Limiter:        middleware.NewRateLimiter(cfg.Chat.SubmitRate, cfg.Chat.SubmitBurst),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return startServer(gctx, cfg.Server, router, logger)
	})

	if cfg.Telegram.Enabled() {
		api, err := telegram.Connect(cfg.Telegram)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize Telegram bot")
		} else {
			logger.WithField("username", api.Self.UserName).Info("Telegram bot authorized")
			bot := telegram.New(api, chatService, profile.DefaultID, logger)
			g.Go(func() error {
				return bot.Run(gctx)
			})
		}
	} else {
		logger.Info("Telegram 令牌未配置，跳过机器人初始化")
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server error")
		exitCode = 1
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger logrus.FieldLogger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Streams end with the server context so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	logger.WithField("addr", addr).Info("Z Advisor backend listening")
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
