// Package warehouse is the read-only BigQuery gateway: table DDLs, row and
// column counts, descriptions, sample rows, and statistical column profiles.
// Every query is scoped to a single configured dataset.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// TableDDL is one row of the dataset's INFORMATION_SCHEMA.TABLES listing.
type TableDDL struct {
	TableCatalog string
	TableSchema  string
	TableName    string
	TableType    string
	CreationTime string
	DDL          string
}

// TableSample is the fallback prompt context for one table: a handful of
// literal rows, used when no column profiles are available.
type TableSample struct {
	TableName  string           `json:"table_name"`
	SampleRows []map[string]any `json:"sample_rows"`
}

// Gateway issues read queries against BigQuery for one project and dataset.
type Gateway struct {
	client        *bigquery.Client
	projectID     string
	dataset       string
	tableNames    []string // optional allowlist; empty means all tables
	profilesTable string   // optional full table id holding profiling output
}

// New creates a Gateway. tableNames and profilesTable may be empty.
func New(ctx context.Context, projectID, dataset string, tableNames []string, profilesTable string) (*Gateway, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "create bigquery client")
	}
	return &Gateway{
		client:        client,
		projectID:     projectID,
		dataset:       dataset,
		tableNames:    tableNames,
		profilesTable: profilesTable,
	}, nil
}

// Close releases the underlying client.
func (g *Gateway) Close() error {
	return g.client.Close()
}

// ListTableDDLs returns base-table DDL strings from INFORMATION_SCHEMA,
// restricted to the allowlist when one is configured.
func (g *Gateway) ListTableDDLs(ctx context.Context) ([]TableDDL, error) {
	query := fmt.Sprintf(`
		SELECT table_catalog, table_schema, table_name, table_type,
		       CAST(creation_time AS STRING) AS creation_time, ddl
		FROM `+"`%s.%s.INFORMATION_SCHEMA.TABLES`"+`
		WHERE table_type = 'BASE TABLE'`, g.projectID, g.dataset)
	var q *bigquery.Query
	if len(g.tableNames) > 0 {
		q = g.client.Query(query + " AND table_name IN UNNEST(@table_names) ORDER BY table_name")
		q.Parameters = []bigquery.QueryParameter{{Name: "table_names", Value: g.tableNames}}
	} else {
		q = g.client.Query(query + " ORDER BY table_name")
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list table ddls")
	}
	var out []TableDDL
	for {
		var row struct {
			TableCatalog string `bigquery:"table_catalog"`
			TableSchema  string `bigquery:"table_schema"`
			TableName    string `bigquery:"table_name"`
			TableType    string `bigquery:"table_type"`
			CreationTime string `bigquery:"creation_time"`
			DDL          string `bigquery:"ddl"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "iterate table ddls")
		}
		if row.DDL == "" {
			continue
		}
		out = append(out, TableDDL(row))
	}
	return out, nil
}

// TotalRows returns COUNT(*) for one table.
func (g *Gateway) TotalRows(ctx context.Context, tableName string) (int64, error) {
	q := g.client.Query(fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s.%s.%s`", g.projectID, g.dataset, tableName))
	it, err := q.Read(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "count rows of %s", tableName)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, errors.Wrapf(err, "read row count of %s", tableName)
	}
	return row.N, nil
}

// TotalColumnCount returns the number of columns across the whole dataset.
func (g *Gateway) TotalColumnCount(ctx context.Context) (int64, error) {
	q := g.client.Query(fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM `%s.%s.INFORMATION_SCHEMA.COLUMNS`", g.projectID, g.dataset))
	it, err := q.Read(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count columns")
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, errors.Wrap(err, "read column count")
	}
	return row.N, nil
}

// TableDescription returns the table's description from its metadata, or ""
// when none is set.
func (g *Gateway) TableDescription(ctx context.Context, tableName string) (string, error) {
	md, err := g.client.Dataset(g.dataset).Table(tableName).Metadata(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "table metadata for %s", tableName)
	}
	return md.Description, nil
}

// SampleRows reads up to n literal rows from one table. Values are normalized
// for JSON serialization (decimals to float64, timestamps to RFC 3339).
func (g *Gateway) SampleRows(ctx context.Context, tableName string, n int) ([]map[string]any, error) {
	it := g.client.Dataset(g.dataset).Table(tableName).Read(ctx)
	var rows []map[string]any
	for len(rows) < n {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read sample rows of %s", tableName)
		}
		normalized := make(map[string]any, len(row))
		for k, v := range row {
			normalized[k] = NormalizeValue(v)
		}
		rows = append(rows, normalized)
	}
	return rows, nil
}

// SampleRowsForTables fetches n sample rows for every allowlisted table (or
// every table in the dataset when no allowlist is set). Tables that fail to
// read are skipped, matching the best-effort nature of prompt context.
func (g *Gateway) SampleRowsForTables(ctx context.Context, n int) ([]TableSample, error) {
	tables := g.tableNames
	if len(tables) == 0 {
		var err error
		tables, err = g.listDatasetTables(ctx)
		if err != nil {
			return nil, err
		}
	}

	var out []TableSample
	for _, t := range tables {
		rows, err := g.SampleRows(ctx, t, n)
		if err != nil || len(rows) == 0 {
			continue
		}
		out = append(out, TableSample{
			TableName:  strings.Join([]string{g.projectID, g.dataset, t}, "."),
			SampleRows: rows,
		})
	}
	return out, nil
}

func (g *Gateway) listDatasetTables(ctx context.Context) ([]string, error) {
	it := g.client.Dataset(g.dataset).Tables(ctx)
	var names []string
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "list dataset tables")
		}
		names = append(names, t.TableID)
	}
	return names, nil
}
