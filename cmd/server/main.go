package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"room-booking/config"
	"room-booking/internal/api/handler"
	"room-booking/internal/api/router"
	"room-booking/internal/api/validate"
	"room-booking/internal/event"
	"room-booking/internal/repository"
	"room-booking/internal/service"
	"room-booking/pkg/database"
	"room-booking/pkg/jwt"
	applogger "room-booking/pkg/logger"
	"room-booking/pkg/mq"
	"room-booking/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("ROOMBOOK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务已停止")
}

// closers 按登记的逆序释放资源
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll(logger *zap.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("释放资源失败", zap.Error(err))
		}
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("room-booking 启动",
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Booking.Timezone),
		zap.Bool("mq", cfg.MQ.Enabled()),
	)

	if err := validate.Register(); err != nil {
		return fmt.Errorf("注册校验规则: %w", err)
	}

	var res closers
	defer res.closeAll(logger)

	// PostgreSQL 是唯一的硬依赖
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	res.add(sqlDB.Close)
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("数据库迁移: %w", err)
	}

	// Redis 不可用时降级：无目录缓存、无 Token 注销、不限流
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 不可用，降级运行", zap.Error(err))
		rdb = nil
	} else {
		res.add(rdb.Close)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 未配置 MQ 时 publisher 保持 nil，由 NewService 换成进程内发布
	var publisher event.Publisher
	if cfg.MQ.Enabled() {
		pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			return fmt.Errorf("RabbitMQ 发布端: %w", err)
		}
		res.add(pub.Close)
		publisher = pub
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repository.NewRepository(db), jwtMgr, rdb, publisher, logger)

	var workers sync.WaitGroup
	if cfg.MQ.Enabled() {
		cons, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.Queue, event.Keys(), cfg.MQ.Prefetch)
		if err != nil {
			return fmt.Errorf("RabbitMQ 消费端: %w", err)
		}
		res.add(cons.Close)
		deliveries, err := cons.Deliveries(ctx)
		if err != nil {
			return fmt.Errorf("RabbitMQ 订阅: %w", err)
		}
		worker := event.NewWorker(svc.Notification, logger.Named("notification-worker"))
		workers.Add(1)
		go func() {
			defer workers.Done()
			worker.Run(ctx, deliveries)
		}()
	}
	// 消费者要在连接关闭前退出
	defer workers.Wait()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router.Setup(cfg, handler.NewHandler(cfg, svc), jwtMgr, rdb, db, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP 监听", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		return fmt.Errorf("HTTP 服务: %w", err)
	case <-ctx.Done():
		logger.Info("收到退出信号，开始优雅关闭")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
