// Package v1 implements the JSON API consumed by the frontend: session
// login/logout, chat, the SQL test endpoint, dataset metadata, and the code
// viewer.
package v1

import (
	"context"

	"github.com/labstack/echo/v5"

	"github.com/agenticdata/datachat/plugin/agent"
	"github.com/agenticdata/datachat/plugin/warehouse"
	"github.com/agenticdata/datachat/server/cache"
	"github.com/agenticdata/datachat/server/chat"
	"github.com/agenticdata/datachat/server/logger"
	"github.com/agenticdata/datachat/server/profile"
	"github.com/agenticdata/datachat/store"
)

// MetadataGateway is the slice of the warehouse gateway the metadata
// endpoints need; the concrete *warehouse.Gateway satisfies it.
type MetadataGateway interface {
	ListTableDDLs(ctx context.Context) ([]warehouse.TableDDL, error)
	TotalRows(ctx context.Context, tableName string) (int64, error)
	TotalColumnCount(ctx context.Context) (int64, error)
	TableDescription(ctx context.Context, tableName string) (string, error)
	SampleRows(ctx context.Context, tableName string, n int) ([]map[string]any, error)
}

// APIV1Service carries every dependency the /api handlers need. Fields may
// be nil when startup partially failed; handlers report 500 in that case
// rather than panicking.
type APIV1Service struct {
	Profile      *profile.Profile
	Store        *store.Store
	Runner       agent.Runner
	Orchestrator *chat.Orchestrator
	Warehouse    MetadataGateway
	Cache        *cache.ResponseCache
	Logs         *logger.Pair
}

// NewAPIV1Service wires the service. The response cache is created here with
// the default TTL.
func NewAPIV1Service(p *profile.Profile, st *store.Store, runner agent.Runner, orch *chat.Orchestrator, wh MetadataGateway, logs *logger.Pair) *APIV1Service {
	return &APIV1Service{
		Profile:      p,
		Store:        st,
		Runner:       runner,
		Orchestrator: orch,
		Warehouse:    wh,
		Cache:        cache.New(cache.DefaultTTL, nil),
		Logs:         logs,
	}
}

// RegisterRoutes mounts every /api route on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)
	g.POST("/chat", s.handleChat)
	g.GET("/test_query", s.testQuery)
	g.GET("/tables", s.listTables)
	g.GET("/table_data", s.getTableData)
	g.GET("/code", s.getCodeFile)
}
