// Package server assembles the HTTP server: storage, warehouse and catalog
// gateways, the Gemini runner, the one-shot prompt build, and route
// registration.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/pkg/errors"

	"github.com/agenticdata/datachat/plugin/agent"
	"github.com/agenticdata/datachat/plugin/catalog"
	"github.com/agenticdata/datachat/plugin/debugsink"
	"github.com/agenticdata/datachat/plugin/warehouse"
	"github.com/agenticdata/datachat/server/chat"
	"github.com/agenticdata/datachat/server/logger"
	"github.com/agenticdata/datachat/server/profile"
	"github.com/agenticdata/datachat/server/prompt"
	apiv1 "github.com/agenticdata/datachat/server/router/api/v1"
	"github.com/agenticdata/datachat/server/router/frontend"
	"github.com/agenticdata/datachat/store"
	"github.com/agenticdata/datachat/store/db/memory"
	"github.com/agenticdata/datachat/store/db/mysql"
	"github.com/agenticdata/datachat/store/db/postgres"
	"github.com/agenticdata/datachat/store/db/sqlite"
)

const appName = "datachat"

// Server is the assembled application.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Logs    *logger.Pair

	echo      *echo.Echo
	warehouse *warehouse.Gateway
	catalog   *catalog.Gateway
	runner    *agent.GeminiRunner
}

// NewServer builds every component. The warehouse, catalog, and runner are
// each best-effort: a failure is logged and the affected endpoints answer
// 500, but the server still starts and serves what it can.
func NewServer(ctx context.Context, p *profile.Profile, logs *logger.Pair) (*Server, error) {
	s := &Server{
		Profile: p,
		Logs:    logs,
		echo:    echo.New(),
	}

	s.echo.Use(middleware.Recover())
	s.echo.Use(hstsMiddleware)

	s.Store = store.New(openDriver(ctx, p, logs))

	var err error
	s.warehouse, err = warehouse.New(ctx, p.ProjectID, p.Dataset, p.Tables, p.ProfilesTable)
	if err != nil {
		logs.Operational.Error("could not initialize warehouse gateway; data endpoints disabled")
		logs.Restricted.Error("warehouse init failed", "err", err)
		s.warehouse = nil
	}
	if s.warehouse != nil {
		s.catalog, err = catalog.New(ctx, p.CatalogProject(), p.Location, p.Dataset, p.Tables, s.warehouse, logs.Restricted)
		if err != nil {
			logs.Operational.Error("could not initialize catalog gateway; prompt will lack metadata")
			logs.Restricted.Error("catalog init failed", "err", err)
			s.catalog = nil
		}
	}

	if p.APIKey == "" {
		logs.Operational.Error("GEMINI_API_KEY is not set; chat endpoints disabled")
	} else {
		s.runner, err = agent.NewGeminiRunner(ctx, p.APIKey, p.Model, appName, "", s.Store, logs.Restricted)
		if err != nil {
			logs.Operational.Error("could not initialize agent runner; chat endpoints disabled")
			logs.Restricted.Error("runner init failed", "err", err)
			s.runner = nil
		}
	}

	s.buildInstructions(ctx, p, logs)
	s.registerRoutes()
	return s, nil
}

// buildInstructions runs startup prompt assembly once and hands the result to
// the runner. Requires both metadata gateways; without them the agent runs
// with no system prompt.
func (s *Server) buildInstructions(ctx context.Context, p *profile.Profile, logs *logger.Pair) {
	if s.warehouse == nil || s.catalog == nil {
		logs.Operational.Warn("skipping instruction build: metadata gateways unavailable")
		return
	}

	var tokens prompt.TokenCounter
	if s.runner != nil {
		tokens = s.runner
	}
	builder := prompt.NewBuilder(
		s.catalog,
		s.warehouse,
		tokens,
		debugsink.New(p.DebugBucket, logs.Operational),
		logs.Operational,
		logs.Restricted,
	)
	instructions := builder.Build(ctx)
	if s.runner != nil {
		s.runner.SetInstructions(instructions)
	}
}

// registerRoutes mounts the API first, then the SPA catch-all.
func (s *Server) registerRoutes() {
	var runner agent.Runner
	var orch *chat.Orchestrator
	if s.runner != nil {
		runner = s.runner
		orch = chat.NewOrchestrator(s.runner, s.Logs)
	}
	var gw apiv1.MetadataGateway
	if s.warehouse != nil {
		gw = s.warehouse
	}

	api := apiv1.NewAPIV1Service(s.Profile, s.Store, runner, orch, gw, s.Logs)
	api.RegisterRoutes(s.echo)

	frontend.NewService(s.Profile.FrontendDir).RegisterRoutes(s.echo)
}

// Start serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Profile.Port)
	s.Logs.Operational.Info("starting server", "addr", addr, "mode", s.Profile.Mode)

	var shutdownErr error
	sc := echo.StartConfig{
		Address:         addr,
		GracefulTimeout: 10 * time.Second,
		OnShutdownError: func(err error) { shutdownErr = err },
	}
	if err := sc.Start(ctx, s.echo); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve http")
	}
	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "shutdown http server")
	}
	return nil
}

// Close releases gateway clients and the store.
func (s *Server) Close() {
	if s.warehouse != nil {
		_ = s.warehouse.Close()
	}
	if s.catalog != nil {
		_ = s.catalog.Close()
	}
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

// openDriver connects the configured database driver, falling back to the
// in-memory driver when the database is unreachable so login still works.
func openDriver(ctx context.Context, p *profile.Profile, logs *logger.Pair) store.Driver {
	driver, err := newSQLDriver(p)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err = driver.Ping(pingCtx); err == nil {
			if err = driver.EnsureSchema(ctx); err == nil {
				logs.Operational.Info("database connection successful", "driver", p.Driver)
				return driver
			}
		}
		_ = driver.Close()
	}

	logs.Operational.Warn("failed to connect to the database, falling back to in-memory sessions")
	logs.Restricted.Warn("database connection failed", "driver", p.Driver, "dsn", p.DSN, "err", err)
	return memory.New()
}

func newSQLDriver(p *profile.Profile) (store.Driver, error) {
	switch p.Driver {
	case "sqlite":
		return sqlite.New(p.DSN)
	case "mysql":
		return mysql.New(p.DSN)
	case "postgres":
		return postgres.New(p.DSN)
	default:
		return nil, errors.Errorf("unsupported driver %q", p.Driver)
	}
}

// hstsMiddleware stamps every response with the transport security header.
func hstsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		c.Response().Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		return next(c)
	}
}
