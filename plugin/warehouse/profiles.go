package warehouse

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// ColumnProfile is one column's statistical summary from the profiling table.
// Numeric fields are normalized to float64; absent stats stay nil.
type ColumnProfile struct {
	SourceTableID   string `json:"source_table_id"`
	ColumnName      string `json:"column_name"`
	PercentNull     any    `json:"percent_null"`
	PercentUnique   any    `json:"percent_unique"`
	MinStringLength any    `json:"min_string_length"`
	MaxStringLength any    `json:"max_string_length"`
	MinValue        any    `json:"min_value"`
	MaxValue        any    `json:"max_value"`
	TopN            any    `json:"top_n"`
}

// ColumnProfiles fetches column profiles for the dataset from the configured
// profiling table. Returns nil without error when no profiling table is
// configured. Columns that are more than 90% null are dropped: they add
// prompt bulk without helping query generation.
func (g *Gateway) ColumnProfiles(ctx context.Context) ([]ColumnProfile, error) {
	if g.profilesTable == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT
			CONCAT(data_source.table_project_id, '.', data_source.dataset_id, '.', data_source.table_id) AS source_table_id,
			column_name, percent_null, percent_unique, min_string_length,
			max_string_length, min_value, max_value, top_n
		FROM `+"`%s`"+`
		WHERE data_source.dataset_id = @dataset_name`, g.profilesTable)
	params := []bigquery.QueryParameter{{Name: "dataset_name", Value: g.dataset}}
	if len(g.tableNames) > 0 {
		query += " AND data_source.table_id IN UNNEST(@table_names)"
		params = append(params, bigquery.QueryParameter{Name: "table_names", Value: g.tableNames})
	}
	query += " ORDER BY source_table_id, column_name"

	q := g.client.Query(query)
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch column profiles")
	}

	var out []ColumnProfile
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "iterate column profiles")
		}
		p := ColumnProfile{
			SourceTableID:   asString(row["source_table_id"]),
			ColumnName:      asString(row["column_name"]),
			PercentNull:     NormalizeValue(row["percent_null"]),
			PercentUnique:   NormalizeValue(row["percent_unique"]),
			MinStringLength: NormalizeValue(row["min_string_length"]),
			MaxStringLength: NormalizeValue(row["max_string_length"]),
			MinValue:        NormalizeValue(row["min_value"]),
			MaxValue:        NormalizeValue(row["max_value"]),
			TopN:            NormalizeValue(row["top_n"]),
		}
		if mostlyNull(p.PercentNull) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func asString(v bigquery.Value) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func mostlyNull(percentNull any) bool {
	switch n := percentNull.(type) {
	case float64:
		return n > 90
	case int64:
		return n > 90
	default:
		return false
	}
}
