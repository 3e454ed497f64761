// Package frontend serves the built single-page app. Unknown paths fall back
// to index.html so client-side routing works on reload.
package frontend

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v5"
)

// Service serves static assets from a build directory.
type Service struct {
	buildDir string
	exists   bool
}

// NewService points the service at the SPA build output. A missing directory
// is tolerated; every route then answers 404.
func NewService(buildDir string) *Service {
	info, err := os.Stat(buildDir)
	return &Service{
		buildDir: buildDir,
		exists:   err == nil && info.IsDir(),
	}
}

// RegisterRoutes mounts the catch-all static handler.
func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.serve)
	e.GET("/*", s.serve)
}

func (s *Service) serve(c *echo.Context) error {
	if !s.exists {
		return echo.NewHTTPError(http.StatusNotFound, "frontend build directory not found")
	}

	requested := strings.TrimPrefix(c.Request().URL.Path, "/")
	candidate := filepath.Join(s.buildDir, filepath.FromSlash(requested))

	// Keep lookups inside the build dir; anything else gets the index page.
	absBuild, err := filepath.Abs(s.buildDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	absCandidate, err := filepath.Abs(candidate)
	if err != nil || !strings.HasPrefix(absCandidate, absBuild) {
		return serveFile(c, filepath.Join(s.buildDir, "index.html"))
	}

	if requested != "" {
		if info, err := os.Stat(absCandidate); err == nil && !info.IsDir() {
			return serveFile(c, absCandidate)
		}
	}
	return serveFile(c, filepath.Join(s.buildDir, "index.html"))
}

// serveFile sends a file identified by an OS path. echo v5's Context.File
// resolves names against the Echo instance's fs.FS rooted at the working
// directory, so absolute paths must go through FileFS with a root filesystem.
func serveFile(c *echo.Context, name string) error {
	abs, err := filepath.Abs(name)
	if err != nil {
		return echo.ErrNotFound
	}
	return c.FileFS(filepath.ToSlash(strings.TrimPrefix(abs, "/")), os.DirFS("/"))
}
