package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	commentApp "github.com/davicafu/taskdesk/internal/comment/application"
	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	commentHttp "github.com/davicafu/taskdesk/internal/comment/infra/inbound/http"
	commentRepo "github.com/davicafu/taskdesk/internal/comment/infra/outbound/db/sqlstore"
	"github.com/davicafu/taskdesk/internal/config"
	documentApp "github.com/davicafu/taskdesk/internal/document/application"
	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	documentHttp "github.com/davicafu/taskdesk/internal/document/infra/inbound/http"
	documentRepo "github.com/davicafu/taskdesk/internal/document/infra/outbound/db/sqlstore"
	"github.com/davicafu/taskdesk/internal/document/infra/outbound/filesystem"
	sharedEvents "github.com/davicafu/taskdesk/internal/shared/domain/events"
	infraEvents "github.com/davicafu/taskdesk/internal/shared/infra/events"
	sharedBus "github.com/davicafu/taskdesk/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/taskdesk/internal/shared/infra/platform/cache"
	sharedDB "github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
	"github.com/davicafu/taskdesk/internal/shared/infra/relayer"
	"github.com/davicafu/taskdesk/internal/shared/infra/web"
	taskApp "github.com/davicafu/taskdesk/internal/task/application"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
	taskEvents "github.com/davicafu/taskdesk/internal/task/infra/inbound/events"
	taskHttp "github.com/davicafu/taskdesk/internal/task/infra/inbound/http"
	"github.com/davicafu/taskdesk/internal/task/infra/outbound/analytics/clickhouse"
	taskRepo "github.com/davicafu/taskdesk/internal/task/infra/outbound/db/sqlstore"
	"github.com/davicafu/taskdesk/pkg/logger"
)

const serviceName = "taskdesk"

// runner es cualquier proceso de fondo que vive hasta que se cancela el contexto.
type runner interface {
	Run(ctx context.Context) error
}

func main() {
	logger.Init()
	log := logger.Logger()
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("taskdesk stopped with error", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	dsn := cfg.SQLitePath
	if cfg.DBDriver == sharedDB.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	conn, err := sharedDB.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := sharedDB.InitSchema(ctx, conn); err != nil {
		return err
	}
	log.Info("✅ Base de datos lista", zap.String("driver", cfg.DBDriver))

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		memCache := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		log.Info("✅ Redis conectado, cache habilitado")
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
	}
	defer rdb.Close()

	// --------------- Repos y servicios --------------
	blobs, err := filesystem.NewBlobStorage(cfg.UploadsDir)
	if err != nil {
		return err
	}
	tasks := taskRepo.NewTaskRepo(conn)
	comments := commentRepo.NewCommentRepo(conn)
	documents := documentRepo.NewDocumentRepo(conn)
	policy := documentDomain.NewUploadPolicy(cfg.MaxUploadSize)

	taskService := taskApp.NewTaskService(tasks, cacheInstance, log, cfg.EnforceStatusTransitions)
	commentService := commentApp.NewCommentService(comments, tasks, cacheInstance, log)
	documentService := documentApp.NewDocumentService(documents, blobs, tasks, policy, cacheInstance, log)

	runners := []runner{
		documentApp.NewFileSweeper(documents, blobs, cfg.CleanupPeriod, cfg.OutboxLimit, log),
	}

	// ---------------- Analytics ----------------
	var analytics *clickhouse.TaskAnalyticsRepo
	if cfg.ClickHouseAddr != "" {
		analytics, err = clickhouse.NewTaskAnalyticsRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica deshabilitada", zap.Error(err))
			analytics = nil
		} else if err := analytics.InitSchema(ctx); err != nil {
			log.Warn("⚠️ No se pudo crear el esquema de ClickHouse", zap.Error(err))
			analytics.Close()
			analytics = nil
		}
	}
	if analytics != nil {
		defer analytics.Close()
	}

	// ---------------- Events ---------------
	var publisher sharedBus.EventBus
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		// Sin Topic fijo: cada mensaje lleva el suyo.
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Balancer: &kafka.Hash{},
		}
		defer writer.Close()
		publisher = infraEvents.NewKafkaPublisher(writer, log)

		if analytics != nil {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:  cfg.KafkaBrokers,
				Topic:    taskDomain.TaskTopic,
				GroupID:  serviceName + "-task-activity",
				MinBytes: 10e3, // 10KB
				MaxBytes: 10e6, // 10MB
			})
			defer reader.Close()
			consumer := taskEvents.NewActivityConsumer(analytics, log)
			runners = append(runners, infraEvents.NewConsumerAdapter(reader, consumer, log))
		}
	} else {
		log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")

		bus := infraEvents.NewInMemoryEventBus(log)
		publisher = bus

		if analytics != nil {
			consumer := taskEvents.NewActivityConsumer(analytics, log)
			runners = append(runners, bus.Subscribe(taskDomain.TaskTopic, 100, consumer))
		}
	}

	// ------------ Outbox Worker ------------
	registry := sharedEvents.MergeRegistries(
		taskDomain.NewEventRegistry(),
		commentDomain.NewEventRegistry(),
		documentDomain.NewEventRegistry(),
	)
	runners = append(runners, relayer.NewOutboxWorker(
		sharedDB.NewOutboxRepo(conn), publisher, registry, cfg.OutboxPeriod, cfg.OutboxLimit, log,
	))

	// ---------------- HTTP ----------------
	router := newRouter(cfg, conn, log, taskService, commentService, documentService, policy, analytics)
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error { return r.Run(gctx) })
	}

	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort+cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("🛑 Apagando servidor")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRouter(
	cfg *config.Config,
	conn *sqlx.DB,
	log *zap.Logger,
	taskService *taskApp.TaskService,
	commentService *commentApp.CommentService,
	documentService *documentApp.DocumentService,
	policy documentDomain.UploadPolicy,
	analytics *clickhouse.TaskAnalyticsRepo,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), web.GinZapMiddleware(log), web.CORS(cfg.CORSOrigins))
	router.NoRoute(web.NotFoundRoute)

	router.GET("/health", func(c *gin.Context) {
		status, code := "OK", http.StatusOK
		if err := conn.PingContext(c.Request.Context()); err != nil {
			status, code = "ERROR", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   serviceName,
		})
	})

	api := router.Group(cfg.APIPrefix)
	taskHttp.RegisterTaskRoutes(api, taskHttp.NewTaskHandler(taskService, cfg.APIPrefix))
	documentHttp.RegisterDocumentRoutes(api, documentHttp.NewDocumentHandler(documentService, policy, cfg.APIPrefix))
	commentHttp.RegisterCommentRoutes(api, commentHttp.NewCommentHandler(commentService))
	if analytics != nil {
		taskHttp.RegisterAnalyticsRoutes(api, taskHttp.NewAnalyticsHandler(analytics))
	}

	return router
}
