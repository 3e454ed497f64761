package prompt

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/agenticdata/datachat/plugin/catalog"
	"github.com/agenticdata/datachat/plugin/warehouse"
)

type fakeMetadata struct {
	tables []catalog.TableMetadata
	err    error
}

func (f *fakeMetadata) FetchTableMetadata(context.Context) ([]catalog.TableMetadata, error) {
	return f.tables, f.err
}

type fakeContext struct {
	profiles    []warehouse.ColumnProfile
	profilesErr error
	samples     []warehouse.TableSample
	samplesErr  error
	sampleCalls int
}

func (f *fakeContext) ColumnProfiles(context.Context) ([]warehouse.ColumnProfile, error) {
	return f.profiles, f.profilesErr
}

func (f *fakeContext) SampleRowsForTables(_ context.Context, _ int) ([]warehouse.TableSample, error) {
	f.sampleCalls++
	return f.samples, f.samplesErr
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildInterpolatesMetadata(t *testing.T) {
	meta := &fakeMetadata{tables: []catalog.TableMetadata{{
		TableName:   "orders",
		Description: "all orders",
		Aspects:     map[string]any{},
	}}}
	wh := &fakeContext{profiles: []warehouse.ColumnProfile{{
		SourceTableID: "p.d.orders",
		ColumnName:    "amount",
		PercentNull:   1.5,
	}}}

	b := NewBuilder(meta, wh, nil, nil, discard(), discard())
	prompt := b.Build(context.Background())

	require.NotEmpty(t, prompt)
	require.Contains(t, prompt, `"table_name": "orders"`)
	require.Contains(t, prompt, `"column_name": "amount"`)
	require.NotContains(t, prompt, "{table_metadata}")
	require.NotContains(t, prompt, "{data_profiles}")
	require.NotContains(t, prompt, "{samples}")
	// Profiles were available, so no sample fallback.
	require.Zero(t, wh.sampleCalls)
}

func TestBuildFallsBackToSamples(t *testing.T) {
	meta := &fakeMetadata{tables: []catalog.TableMetadata{{TableName: "orders"}}}
	wh := &fakeContext{samples: []warehouse.TableSample{{
		TableName:  "p.d.orders",
		SampleRows: []map[string]any{{"id": float64(1)}},
	}}}

	b := NewBuilder(meta, wh, nil, nil, discard(), discard())
	prompt := b.Build(context.Background())

	require.NotEmpty(t, prompt)
	require.Equal(t, 1, wh.sampleCalls)
	require.Contains(t, prompt, `"table_name": "p.d.orders"`)
}

func TestBuildMetadataFailureYieldsEmptyPrompt(t *testing.T) {
	meta := &fakeMetadata{err: errors.New("catalog unreachable")}
	wh := &fakeContext{}

	b := NewBuilder(meta, wh, nil, nil, discard(), discard())
	require.Empty(t, b.Build(context.Background()))
}

func TestBuildProfileFailureYieldsEmptyPrompt(t *testing.T) {
	meta := &fakeMetadata{tables: []catalog.TableMetadata{{TableName: "orders"}}}
	wh := &fakeContext{profilesErr: errors.New("profiles table gone")}

	b := NewBuilder(meta, wh, nil, nil, discard(), discard())
	require.Empty(t, b.Build(context.Background()))
}

func TestLoadTemplateJoinsSectionsInOrder(t *testing.T) {
	tmpl, err := loadTemplate()
	require.NoError(t, err)

	sections := strings.Split(tmpl, "\n---\n")
	require.GreaterOrEqual(t, len(sections), 5)
	// Section order must follow the document: role first, constraints last.
	require.Contains(t, sections[0], "senior data analyst")
	require.Contains(t, sections[len(sections)-1], "Hard rules")
	require.Contains(t, tmpl, "{table_metadata}")
}

func TestRenderTemplate(t *testing.T) {
	got := renderTemplate("a {table_metadata} b {data_profiles} c {samples}", "M", "P", "S")
	require.Equal(t, "a M b P c S", got)
}
