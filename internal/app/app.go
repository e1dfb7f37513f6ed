package app

import (
	"context"
	"errors"
	"fmt"

	"go-dropship-admin/internal/audit"
	"go-dropship-admin/internal/handler"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/internal/service"
	"go-dropship-admin/internal/ws"
	"go-dropship-admin/pkg/config"
	"go-dropship-admin/pkg/database"
	"go-dropship-admin/pkg/jwt"
	"go-dropship-admin/pkg/logger"
	"go-dropship-admin/pkg/rabbitmq"
	"go-dropship-admin/pkg/redis"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// App holds the wired service graph shared by the api and adminctl binaries.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	DB     *gorm.DB
	Hub    *ws.Hub
	Signer *jwt.Signer

	PrincipalRepo repository.PrincipalRepository
	StaffRepo     repository.StaffRepository
	RoleRepo      repository.RoleRepository
	PermRepo      repository.PermissionRepository
	AuditRepo     repository.AuditRepository

	Recorder   *audit.MultiRecorder
	Cache      service.DecisionCache
	Resolver   service.ActorResolver
	Authorizer service.Authorizer
	Policy     service.PolicyService
	Audit      service.AuditService
	Auth       service.AuthService
	Seed       service.SeedService

	closers []func() error
}

// New connects to the database and, when enabled, to Redis and RabbitMQ.
// Optional backends that fail to connect are logged and skipped.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return Wire(ctx, cfg, log, db), nil
}

// Wire builds the service graph on an open database.
func Wire(ctx context.Context, cfg *config.Config, log *logger.Logger, db *gorm.DB) *App {
	a := &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Hub:    ws.NewHub(log),
		Signer: jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),

		PrincipalRepo: repository.NewPrincipalRepo(db),
		StaffRepo:     repository.NewStaffRepo(db),
		RoleRepo:      repository.NewRoleRepo(db),
		PermRepo:      repository.NewPermissionRepo(db),
		AuditRepo:     repository.NewAuditRepo(db),
	}

	a.Recorder = audit.NewMultiRecorder(log,
		audit.NewDBRecorder(a.AuditRepo),
		audit.NewHubRecorder(a.Hub),
	)
	if cfg.AMQP.Enabled {
		pub, err := rabbitmq.NewPublisher(rabbitmq.PublisherConfig{
			URL:        cfg.AMQP.URL,
			Exchange:   cfg.AMQP.Exchange,
			RoutingKey: cfg.AMQP.RoutingKey,
		})
		if err != nil {
			log.Error(err, "RabbitMQ unavailable, audit events will not be published")
		} else {
			a.Recorder.Add(audit.NewAMQPRecorder(pub))
			a.closers = append(a.closers, pub.Close)
			log.Infof("Publishing audit events to exchange %s", cfg.AMQP.Exchange)
		}
	}

	a.Cache = service.NoopDecisionCache{}
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error(err, "Redis unavailable, decision cache disabled")
			_ = client.Close()
		} else {
			a.Cache = service.NewRedisDecisionCache(client, cfg.Redis.TTL, log)
			a.closers = append(a.closers, client.Close)
			log.Infof("Decision cache enabled on %s", cfg.Redis.Addr)
		}
	}

	a.Resolver = service.NewActorResolver(a.PrincipalRepo, a.StaffRepo)
	a.Authorizer = service.NewAuthorizer(
		service.NewGlobalPolicyGate(a.PermRepo),
		service.NewStaffPermissionEngine(a.PermRepo),
		a.Cache,
	)
	a.Policy = service.NewPolicyService(db, a.PermRepo, a.StaffRepo, a.RoleRepo, a.Cache, a.Recorder, log)
	a.Audit = service.NewAuditService(a.AuditRepo)
	a.Auth = service.NewAuthService(a.PrincipalRepo, a.StaffRepo, a.Resolver, a.Signer)
	a.Seed = service.NewSeedService(a.PermRepo, a.PrincipalRepo, log)
	return a
}

func (a *App) Migrate() error {
	if err := model.AutoMigrate(a.DB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Fiber builds the HTTP application with every route mounted.
func (a *App) Fiber() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: a.Config.AppName,
	})

	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: a.Log.Named("http").Zerolog(),
	}))
	app.Use(recover.New())
	app.Use(cors.New())

	handler.Register(app, handler.Dependencies{
		DB:              a.DB,
		Resolver:        a.Resolver,
		Authorizer:      a.Authorizer,
		Policy:          a.Policy,
		Audit:           a.Audit,
		Auth:            a.Auth,
		Recorder:        a.Recorder,
		Cache:           a.Cache,
		Signer:          a.Signer,
		Hub:             a.Hub,
		BulkConcurrency: a.Config.Bulk.Concurrency,
		Log:             a.Log,
	})
	return app
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
