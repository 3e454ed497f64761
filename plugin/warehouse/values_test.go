package warehouse

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValueScalars(t *testing.T) {
	require.Nil(t, NormalizeValue(nil))
	require.Equal(t, "hello", NormalizeValue("hello"))
	require.Equal(t, int64(42), NormalizeValue(int64(42)))

	rat := big.NewRat(1, 4)
	require.Equal(t, 0.25, NormalizeValue(rat))

	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	require.Equal(t, "2025-03-14T09:26:53Z", NormalizeValue(ts))

	require.Equal(t, "2025-03-14", NormalizeValue(civil.Date{Year: 2025, Month: 3, Day: 14}))
}

func TestNormalizeValueNested(t *testing.T) {
	v := map[string]bigquery.Value{
		"amounts": []bigquery.Value{big.NewRat(1, 2), big.NewRat(3, 4)},
		"meta": map[string]bigquery.Value{
			"when": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	got := NormalizeValue(v).(map[string]any)
	require.Equal(t, []any{0.5, 0.75}, got["amounts"])
	require.Equal(t, map[string]any{"when": "2025-01-01T00:00:00Z"}, got["meta"])
}

func TestMostlyNull(t *testing.T) {
	require.True(t, mostlyNull(float64(95)))
	require.False(t, mostlyNull(float64(90)))
	require.False(t, mostlyNull(nil))
	require.False(t, mostlyNull("n/a"))
}
