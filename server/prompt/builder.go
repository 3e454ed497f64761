// Package prompt assembles the master system prompt for the agent, once per
// process: catalog metadata plus column profiles (or sample rows as a
// fallback) interpolated into a static instruction template. The result is
// immutable for the life of the process; metadata changes are not reflected
// until restart.
package prompt

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/agenticdata/datachat/plugin/catalog"
	"github.com/agenticdata/datachat/plugin/warehouse"
)

// sampleRowsPerTable is how many literal rows stand in for missing profiles.
const sampleRowsPerTable = 3

// MetadataSource yields structured table metadata; satisfied by
// catalog.Gateway.
type MetadataSource interface {
	FetchTableMetadata(ctx context.Context) ([]catalog.TableMetadata, error)
}

// ContextSource yields profiling data and fallback samples; satisfied by
// warehouse.Gateway.
type ContextSource interface {
	ColumnProfiles(ctx context.Context) ([]warehouse.ColumnProfile, error)
	SampleRowsForTables(ctx context.Context, n int) ([]warehouse.TableSample, error)
}

// TokenCounter reports the model's token count for a text; satisfied by
// agent.GeminiRunner. Optional — token KPIs degrade to zero without it.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int32, error)
}

// ArtifactSink persists the final prompt for debugging; satisfied by
// debugsink.Sink. Optional.
type ArtifactSink interface {
	SavePrompt(ctx context.Context, content string)
}

// Builder runs startup prompt assembly.
type Builder struct {
	metadata    MetadataSource
	warehouse   ContextSource
	tokens      TokenCounter
	sink        ArtifactSink
	operational *slog.Logger
	restricted  *slog.Logger
}

// NewBuilder wires a Builder. tokens and sink may be nil.
func NewBuilder(metadata MetadataSource, wh ContextSource, tokens TokenCounter, sink ArtifactSink, operational, restricted *slog.Logger) *Builder {
	return &Builder{
		metadata:    metadata,
		warehouse:   wh,
		tokens:      tokens,
		sink:        sink,
		operational: operational,
		restricted:  restricted,
	}
}

// Build assembles the master prompt. It never fails the caller: any error in
// the sequence is logged and yields an empty prompt, so the server still
// starts and serves metadata endpoints with an instruction-less agent.
func (b *Builder) Build(ctx context.Context) string {
	start := time.Now()
	b.operational.Info("building master agent instructions (runs once at startup)")

	final, metadata, profiles, err := b.build(ctx)
	if err != nil {
		b.operational.Error("failed to build master instructions; continuing with empty prompt")
		b.restricted.Error("master instruction build failed", "err", err)
		return ""
	}

	tokenCount := int32(0)
	if b.tokens != nil {
		tokenCount, err = b.tokens.CountTokens(ctx, final)
		if err != nil {
			b.operational.Warn("could not calculate prompt token count")
			b.restricted.Error("token count calculation failed", "err", err)
		}
	}

	if b.sink != nil {
		b.sink.SavePrompt(ctx, final)
	}

	logStartupKPIs(b.operational, metadata, len(profiles), tokenCount, time.Since(start))
	b.operational.Info("master instructions cached", "chars", len(final))
	return final
}

func (b *Builder) build(ctx context.Context) (string, []catalog.TableMetadata, []warehouse.ColumnProfile, error) {
	metadata, err := b.metadata.FetchTableMetadata(ctx)
	if err != nil {
		return "", nil, nil, errors.Wrap(err, "fetch table metadata")
	}

	profiles, err := b.warehouse.ColumnProfiles(ctx)
	if err != nil {
		return "", nil, nil, errors.Wrap(err, "fetch column profiles")
	}

	var samples []warehouse.TableSample
	if len(profiles) == 0 {
		b.operational.Info("data profiles not found, fetching sample rows as a fallback")
		samples, err = b.warehouse.SampleRowsForTables(ctx, sampleRowsPerTable)
		if err != nil {
			return "", nil, nil, errors.Wrap(err, "fetch fallback samples")
		}
	}

	metadataJSON, err := marshalSection(metadata)
	if err != nil {
		return "", nil, nil, err
	}
	profilesJSON, err := marshalSection(profiles)
	if err != nil {
		return "", nil, nil, err
	}
	samplesJSON, err := marshalSection(samples)
	if err != nil {
		return "", nil, nil, err
	}

	template, err := loadTemplate()
	if err != nil {
		return "", nil, nil, err
	}

	return renderTemplate(template, metadataJSON, profilesJSON, samplesJSON), metadata, profiles, nil
}

// marshalSection serializes a context collection, rendering empty collections
// as [] rather than null so the template reads sanely.
func marshalSection(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "serialize prompt section")
	}
	s := string(data)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}
