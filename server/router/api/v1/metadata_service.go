package v1

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/agenticdata/datachat/server/logger"
)

// tableSampleSize is how many rows the table explorer shows per table.
const tableSampleSize = 5

type tablesResponse struct {
	Tables       []string `json:"tables"`
	NumTables    int      `json:"num_tables"`
	TotalColumns int64    `json:"total_columns"`
	TotalRows    int64    `json:"total_rows"`
}

type tableDataResponse struct {
	Data        []map[string]any `json:"data"`
	Description string           `json:"description"`
}

// listTables returns the dataset inventory. Responses are cached for an hour
// keyed on the full request URL; within the window repeated calls return the
// identical bytes without touching the warehouse.
func (s *APIV1Service) listTables(c *echo.Context) error {
	if s.Warehouse == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if body, ok := s.Cache.Get(c.Request().URL.String()); ok {
		return c.JSONBlob(http.StatusOK, body)
	}

	ctx := c.Request().Context()
	ddls, err := s.Warehouse.ListTableDDLs(ctx)
	if err != nil {
		s.Logs.Operational.Error("error listing tables")
		s.Logs.Restricted.Error("list tables failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	resp := tablesResponse{Tables: []string{}}
	for _, ddl := range ddls {
		resp.Tables = append(resp.Tables, ddl.TableName)
		rows, err := s.Warehouse.TotalRows(ctx, ddl.TableName)
		if err != nil {
			s.Logs.Operational.Error("error listing tables")
			s.Logs.Restricted.Error("row count failed", "table", ddl.TableName, "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
		}
		resp.TotalRows += rows
	}
	resp.NumTables = len(resp.Tables)
	if resp.TotalColumns, err = s.Warehouse.TotalColumnCount(ctx); err != nil {
		s.Logs.Operational.Error("error listing tables")
		s.Logs.Restricted.Error("column count failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	s.Cache.Set(c.Request().URL.String(), body)
	s.Logs.Operational.Info("listed tables", "tables", logger.Sanitize(strings.Join(resp.Tables, ",")))
	return c.JSONBlob(http.StatusOK, body)
}

// getTableData returns sample rows and the description for one table, cached
// per URL so each table name gets its own entry.
func (s *APIV1Service) getTableData(c *echo.Context) error {
	tableName := c.QueryParam("table_name")
	if tableName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Table name is required")
	}
	if s.Warehouse == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if body, ok := s.Cache.Get(c.Request().URL.String()); ok {
		return c.JSONBlob(http.StatusOK, body)
	}

	ctx := c.Request().Context()
	rows, err := s.Warehouse.SampleRows(ctx, tableName, tableSampleSize)
	if err != nil {
		s.Logs.Operational.Error("error getting table data", "table", logger.Sanitize(tableName))
		s.Logs.Restricted.Error("get table data failed", "table", tableName, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	description, err := s.Warehouse.TableDescription(ctx, tableName)
	if err != nil {
		s.Logs.Operational.Error("error getting table data", "table", logger.Sanitize(tableName))
		s.Logs.Restricted.Error("table description failed", "table", tableName, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	if rows == nil {
		rows = []map[string]any{}
	}
	body, err := json.Marshal(tableDataResponse{Data: rows, Description: description})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	s.Cache.Set(c.Request().URL.String(), body)
	s.Logs.Operational.Info("fetched table data", "table", logger.Sanitize(tableName))
	return c.JSONBlob(http.StatusOK, body)
}

// getCodeFile serves one source file from the configured showcase directory.
// Only the basename of the supplied path is honored, so traversal sequences
// collapse to a filename inside the sandbox.
func (s *APIV1Service) getCodeFile(c *echo.Context) error {
	requested := c.QueryParam("filepath")
	if requested == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Filepath is required")
	}

	safeName := filepath.Base(filepath.ToSlash(requested))
	if safeName == "." || safeName == ".." || safeName == string(filepath.Separator) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid filepath")
	}

	allowedDir, err := filepath.Abs(s.Profile.CodeDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	fullPath := filepath.Join(allowedDir, safeName)
	if !strings.HasPrefix(fullPath, allowedDir) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid filepath")
	}

	content, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	if err != nil {
		s.Logs.Operational.Error("error reading code file", "file", logger.Sanitize(safeName))
		s.Logs.Restricted.Error("read code file failed", "file", safeName, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	s.Logs.Operational.Info("read code file", "file", logger.Sanitize(safeName))
	return c.JSON(http.StatusOK, map[string]string{"content": string(content)})
}
