package prompt

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agenticdata/datachat/plugin/catalog"
)

// logStartupKPIs summarizes what the prompt was built from: table and column
// counts, description coverage, profile coverage, token count, elapsed time.
func logStartupKPIs(log *slog.Logger, metadata []catalog.TableMetadata, profileCount int, tokenCount int32, elapsed time.Duration) {
	numTables := len(metadata)
	totalColumns, tablesWithDesc, colsWithDesc := 0, 0, 0
	var missingDescSamples []string

	for _, table := range metadata {
		if table.Description != "" {
			tablesWithDesc++
		}
		for _, col := range schemaColumns(table) {
			totalColumns++
			if desc, _ := col["description"].(string); desc != "" {
				colsWithDesc++
			} else if name, _ := col["name"].(string); name != "" && len(missingDescSamples) < 5 {
				missingDescSamples = append(missingDescSamples, table.TableName+"."+name)
			}
		}
	}

	log.Info("application load KPIs",
		"load_time", elapsed.Round(10*time.Millisecond).String(),
		"prompt_tokens", tokenCount,
		"tables", numTables,
		"columns", totalColumns,
		"tables_with_description", fmt.Sprintf("%d/%d (%s)", tablesWithDesc, numTables, percent(tablesWithDesc, numTables)),
		"columns_with_description", fmt.Sprintf("%d/%d (%s)", colsWithDesc, totalColumns, percent(colsWithDesc, totalColumns)),
		"columns_missing_description_sample", strings.Join(missingDescSamples, ","),
		"column_profiles", profileCount,
	)
}

// schemaColumns digs the column list out of a table's schema aspect. Aspect
// keys are suffixed with their type; the schema one ends in ".schema".
func schemaColumns(table catalog.TableMetadata) []map[string]any {
	for key, raw := range table.Aspects {
		if !strings.HasSuffix(key, ".schema") {
			continue
		}
		aspect, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fields, ok := aspect["fields"].([]any)
		if !ok {
			continue
		}
		cols := make([]map[string]any, 0, len(fields))
		for _, f := range fields {
			if col, ok := f.(map[string]any); ok {
				cols = append(cols, col)
			}
		}
		return cols
	}
	return nil
}

func percent(n, total int) string {
	if total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
}
