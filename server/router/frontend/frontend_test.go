package frontend

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"
)

func buildDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	return dir
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServeAsset(t *testing.T) {
	e := echo.New()
	NewService(buildDir(t)).RegisterRoutes(e)

	rec := get(e, "/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "console.log")
}

func TestUnknownPathFallsBackToIndex(t *testing.T) {
	e := echo.New()
	NewService(buildDir(t)).RegisterRoutes(e)

	for _, path := range []string{"/", "/chat/session-1", "/missing.css"} {
		rec := get(e, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Contains(t, rec.Body.String(), "app", path)
	}
}

func TestMissingBuildDir(t *testing.T) {
	e := echo.New()
	NewService(filepath.Join(t.TempDir(), "absent")).RegisterRoutes(e)

	rec := get(e, "/")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
