// Package catalog fetches structured table and column metadata from the
// Dataplex catalog for the configured BigQuery dataset. Table descriptions
// are backfilled from BigQuery itself, which is authoritative for them.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	dataplex "cloud.google.com/go/dataplex/apiv1"
	"cloud.google.com/go/dataplex/apiv1/dataplexpb"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// TableMetadata is the catalog entry for one table: its description plus the
// raw aspect payloads (schema, classifications, ...) keyed by aspect type.
type TableMetadata struct {
	TableName   string         `json:"table_name"`
	Description string         `json:"description"`
	Aspects     map[string]any `json:"aspects"`
}

// Describer resolves a table's description; satisfied by warehouse.Gateway.
type Describer interface {
	TableDescription(ctx context.Context, tableName string) (string, error)
}

// Gateway reads catalog entries for one project/location/dataset.
type Gateway struct {
	client     *dataplex.CatalogClient
	projectID  string
	location   string
	dataset    string
	tableNames []string
	describer  Describer
	logger     *slog.Logger
}

// New creates a Gateway. describer may be nil, in which case descriptions
// stay empty.
func New(ctx context.Context, projectID, location, dataset string, tableNames []string, describer Describer, logger *slog.Logger) (*Gateway, error) {
	client, err := dataplex.NewCatalogClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create dataplex catalog client")
	}
	return &Gateway{
		client:     client,
		projectID:  projectID,
		location:   location,
		dataset:    dataset,
		tableNames: tableNames,
		describer:  describer,
		logger:     logger,
	}, nil
}

// Close releases the underlying client.
func (g *Gateway) Close() error {
	return g.client.Close()
}

// FetchTableMetadata returns catalog metadata for the allowlisted tables, or
// for every table found by a catalog search when no allowlist is configured.
// Individual entry failures are logged and skipped; a table with no catalog
// entry is not fatal to prompt assembly.
func (g *Gateway) FetchTableMetadata(ctx context.Context) ([]TableMetadata, error) {
	entryNames, err := g.targetEntryNames(ctx)
	if err != nil {
		return nil, err
	}

	var out []TableMetadata
	for _, name := range entryNames {
		entry, err := g.client.GetEntry(ctx, &dataplexpb.GetEntryRequest{
			Name: name,
			View: dataplexpb.EntryView_ALL,
		})
		if err != nil {
			g.logger.Warn("skipping catalog entry", "entry", name, "err", err)
			continue
		}

		aspects := make(map[string]any, len(entry.GetAspects()))
		for key, aspect := range entry.GetAspects() {
			if data := aspect.GetData(); data != nil {
				aspects[key] = data.AsMap()
			}
		}

		shortName := name[strings.LastIndex(name, "/")+1:]
		if decoded, err := url.PathUnescape(shortName); err == nil {
			shortName = decoded[strings.LastIndex(decoded, "/")+1:]
		}

		description := ""
		if g.describer != nil {
			description, err = g.describer.TableDescription(ctx, shortName)
			if err != nil {
				g.logger.Warn("could not fetch table description", "table", shortName, "err", err)
			}
		}

		out = append(out, TableMetadata{
			TableName:   shortName,
			Description: description,
			Aspects:     aspects,
		})
	}
	return out, nil
}

// targetEntryNames resolves the catalog entry names to fetch: built directly
// from the allowlist when present, discovered via entry search otherwise.
func (g *Gateway) targetEntryNames(ctx context.Context) ([]string, error) {
	if len(g.tableNames) > 0 {
		names := make([]string, 0, len(g.tableNames))
		for _, t := range g.tableNames {
			names = append(names, fmt.Sprintf(
				"projects/%s/locations/%s/entryGroups/@bigquery/entries/bigquery.googleapis.com%%2Fprojects%%2F%s%%2Fdatasets%%2F%s%%2Ftables%%2F%s",
				g.projectID, g.location, g.projectID, g.dataset, t,
			))
		}
		return names, nil
	}

	it := g.client.SearchEntries(ctx, &dataplexpb.SearchEntriesRequest{
		Name:  fmt.Sprintf("projects/%s/locations/global", g.projectID),
		Query: fmt.Sprintf("name:projects/%s/datasets/%s/tables/", g.projectID, g.dataset),
	})
	var names []string
	for {
		result, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "search catalog entries")
		}
		if e := result.GetDataplexEntry(); e != nil {
			names = append(names, e.GetName())
		}
	}
	return names, nil
}
