package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"algolab/internal/common/cache"
	"algolab/internal/common/db"
	"algolab/internal/common/storage"
	"algolab/internal/judge/controller"
	"algolab/internal/judge/evaluator"
	"algolab/internal/judge/language"
	"algolab/internal/judge/queue"
	"algolab/internal/judge/repository"
	"algolab/internal/judge/sandbox"
	"algolab/internal/judge/service"
	"algolab/pkg/utils/logger"
)

const defaultConfigPath = "configs/judge_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	ctx := context.Background()

	mysqlDB, err := db.NewMySQLWithConfig(&appCfg.Database)
	if err != nil {
		logger.Error(ctx, "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mysqlDB.Close()
	}()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(ctx, "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	var objStorage storage.ObjectStorage
	if appCfg.MinIO.Endpoint != "" {
		objStorage, err = storage.NewMinIOStorage(appCfg.MinIO)
		if err != nil {
			logger.Error(ctx, "init minio failed", zap.Error(err))
			return
		}
	}

	var publisher repository.StatusEventPublisher
	if len(appCfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := repository.NewKafkaStatusEventPublisher(appCfg.Kafka)
		if err != nil {
			logger.Error(ctx, "init kafka publisher failed", zap.Error(err))
			return
		}
		defer func() {
			_ = kafkaPublisher.Close()
		}()
		publisher = kafkaPublisher
	}

	registry, err := language.NewRegistry(appCfg.Languages)
	if err != nil {
		logger.Error(ctx, "init language registry failed", zap.Error(err))
		return
	}
	executor, err := sandbox.NewExecutor(appCfg.Sandbox)
	if err != nil {
		logger.Error(ctx, "init sandbox executor failed", zap.Error(err))
		return
	}
	eval, err := evaluator.New(executor, appCfg.Evaluator)
	if err != nil {
		logger.Error(ctx, "init evaluator failed", zap.Error(err))
		return
	}

	statusRepo := repository.NewStatusRepository(redisCache, appCfg.Status.TTL)
	submissionRepo, err := repository.NewMySQLSubmissionRepository(mysqlDB.DB())
	if err != nil {
		logger.Error(ctx, "init submission repository failed", zap.Error(err))
		return
	}
	problemStore, err := repository.NewMySQLProblemStore(mysqlDB.DB())
	if err != nil {
		logger.Error(ctx, "init problem store failed", zap.Error(err))
		return
	}

	submissionQueue := queue.NewQueue(appCfg.Queue.Capacity, appCfg.Queue.PerUserPendingCap)
	judgeSvc, err := service.NewJudgeService(
		service.Config{
			MaxSourceBytes:     appCfg.Intake.MaxSourceBytes,
			CompileTimeLimitMs: appCfg.Evaluator.CompileTimeLimitMs,
			OverheadMarginMs:   appCfg.Queue.OverheadMarginMs,
			SourceBucket:       appCfg.Intake.SourceBucket,
		},
		registry, eval, submissionQueue,
		statusRepo, submissionRepo, problemStore,
		publisher, objStorage,
	)
	if err != nil {
		logger.Error(ctx, "init judge service failed", zap.Error(err))
		return
	}
	pool := queue.NewPool(appCfg.Queue, submissionQueue, judgeSvc)

	httpServer := buildHTTPServer(appCfg.Server, judgeSvc)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		logger.Info(ctx, "judge http server started", zap.String("addr", appCfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		pool.Start(groupCtx)
		pool.Wait()
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error(ctx, "judge service stopped with error", zap.Error(err))
		return
	}
	logger.Info(ctx, "judge service stopped")
}

func buildHTTPServer(cfg ServerConfig, judgeSvc *service.JudgeService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	judgeController := controller.NewJudgeController(judgeSvc)
	judgeController.RegisterRoutes(router)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
