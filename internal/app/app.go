package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/guard"
	"github.com/spec-kit/helpdesk-service/internal/integration/analytics"
	"github.com/spec-kit/helpdesk-service/internal/integration/mail"
	"github.com/spec-kit/helpdesk-service/internal/integration/sheets"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

// App owns the HTTP server and its background workers.
type App struct {
	Fiber *fiber.App

	logger        *zap.Logger
	syncWorker    *worker.SyncWorker
	notifications *service.NotificationService
	notifyWorker  *worker.NotificationWorker
}

// Dependencies are the already opened infrastructure pieces.
type Dependencies struct {
	Config   *config.Config
	Backends *persistence.Backends
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	// Mailer overrides the sender built from Config.Mail.
	Mailer mail.Sender
}

// New loads stored state and wires every service, handler and route.
func New(ctx context.Context, deps Dependencies) (*App, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	kv := deps.Backends.KV

	dispatcher := events.NewInMemoryDispatcher()
	cat := catalog.Default()

	state := service.NewAccessState(service.AccessStateDependencies{
		PermissionSetRepo: repository.NewPermissionSetRepository(kv),
		PortalUserRepo:    repository.NewPortalUserRepository(kv),
		Logger:            logger,
	})
	if err := state.Load(ctx); err != nil {
		return nil, fmt.Errorf("load access state: %w", err)
	}
	resolver := service.NewAccessResolver(state, cat)
	permissionSets := service.NewPermissionSetService(service.PermissionSetDependencies{
		State:   state,
		Catalog: cat,
		Metrics: metrics,
		Logger:  logger,
	})
	portalUsers := service.NewPortalUserService(service.PortalUserDependencies{
		State:             state,
		Dispatcher:        dispatcher,
		Metrics:           metrics,
		Logger:            logger,
		BcryptCost:        cfg.Auth.BcryptCost,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	})

	staff := service.NewStaffService(service.StaffDependencies{
		StaffRepo:  repository.NewStaffRepository(kv),
		Metrics:    metrics,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
		Bootstrap: service.StaffBootstrap{
			AdminEmail:    cfg.Bootstrap.AdminEmail,
			AdminPassword: cfg.Bootstrap.AdminPassword,
		},
	})
	if err := staff.Load(ctx); err != nil {
		return nil, fmt.Errorf("load staff: %w", err)
	}

	sheetsClient := sheets.NewClient(cfg.Sheets, nil, logger.Named("sheets"))
	analyticsClient := analytics.NewClient(cfg.Analytics, nil, logger.Named("analytics"))
	syncWorker := worker.NewSyncWorker(worker.SyncWorkerDependencies{
		Targets: []worker.Target{
			{Name: "sheets", Apply: sheetsClient.Upsert},
			{Name: "analytics", Apply: analyticsClient.Sync},
		},
		Config:  cfg.Sync,
		Metrics: metrics,
		Logger:  logger.Named("sync"),
	})
	syncWorker.RegisterHandlers(dispatcher)

	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewTicketRepository(kv),
		Dispatcher: dispatcher,
		SyncStatus: syncWorker,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err := tickets.Load(ctx); err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}

	mailer := deps.Mailer
	if mailer == nil {
		mailer = mail.NewSender(cfg.Mail, logger.Named("mail"))
	}
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:    dispatcher,
		Mailer:        mailer,
		Staff:         staff,
		PortalBaseURL: cfg.Portal.BaseURL,
		Logger:        logger.Named("notifications"),
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	sessions := guard.NewSessionStore(deps.Backends.Sessions, tokens.TTL())
	routeGuard := guard.NewGuard(sessions, resolver, logger.Named("guard"))
	authService := service.NewAuthService(service.AuthDependencies{
		Staff:    staff,
		Portal:   portalUsers,
		Resolver: resolver,
		Guard:    routeGuard,
		Tokens:   tokens,
		Logger:   logger,
	})

	fiberApp := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(fiberApp, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(fiberApp, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Backends),
		Auth:           handlers.NewAuthHandler(authService, portalUsers),
		Tickets:        handlers.NewTicketsHandler(tickets, resolver),
		Staff:          handlers.NewStaffHandler(staff),
		PortalUsers:    handlers.NewPortalUsersHandler(portalUsers, notifications),
		PermissionSets: handlers.NewPermissionSetsHandler(permissionSets, portalUsers),
		Navigation:     handlers.NewNavigationHandler(cat, resolver, routeGuard),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, routeGuard, staff, portalUsers),
		Permissions:    resolver,
		Metrics:        metrics,
	})

	return &App{
		Fiber:         fiberApp,
		logger:        logger,
		syncWorker:    syncWorker,
		notifications: notifications,
	}, nil
}

// Start launches the background workers. The HTTP listener is started by the caller.
func (a *App) Start(ctx context.Context) {
	a.syncWorker.Start(ctx)
	a.notifyWorker = worker.StartNotificationWorker(a.notifications)
}

// Shutdown stops accepting requests, then drains the outbox and pending mail.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.syncWorker.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sync worker: %w", err))
	}
	if a.notifyWorker != nil {
		if err := a.notifyWorker.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notification worker: %w", err))
		}
	}
	if len(errs) == 0 {
		a.logger.Info("shutdown complete")
	}
	return errors.Join(errs...)
}
