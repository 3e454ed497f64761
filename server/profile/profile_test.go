package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	p := &Profile{ProjectID: "p", Dataset: "d", Driver: "sqlite"}
	require.NoError(t, p.Validate())

	require.Error(t, (&Profile{Dataset: "d", Driver: "sqlite"}).Validate())
	require.Error(t, (&Profile{ProjectID: "p", Driver: "sqlite"}).Validate())
	require.Error(t, (&Profile{ProjectID: "p", Dataset: "d", Driver: "mongodb"}).Validate())
}

func TestCatalogProjectFallsBack(t *testing.T) {
	p := &Profile{ProjectID: "data-proj"}
	require.Equal(t, "data-proj", p.CatalogProject())

	p.LoggingProject = "meta-proj"
	require.Equal(t, "meta-proj", p.CatalogProject())
}

func TestGetProfileReadsEnv(t *testing.T) {
	t.Setenv("DATACHAT_PROJECT_ID", "proj")
	t.Setenv("DATACHAT_DATASET", "sales")
	t.Setenv("DATACHAT_TABLES", "orders, customers ,")
	t.Setenv("GEMINI_API_KEY", "k123")
	t.Setenv("DATACHAT_PORT", "9090")

	p, err := GetProfile()
	require.NoError(t, err)
	require.Equal(t, "proj", p.ProjectID)
	require.Equal(t, "sales", p.Dataset)
	require.Equal(t, []string{"orders", "customers"}, p.Tables)
	require.Equal(t, "k123", p.APIKey)
	require.Equal(t, 9090, p.Port)
	require.Equal(t, "sqlite", p.Driver)
	require.True(t, p.IsDev())
	require.Equal(t, "proj.sales", p.DatasetPath())
}

func TestGetProfileRejectsMissingProject(t *testing.T) {
	t.Setenv("DATACHAT_PROJECT_ID", "")
	t.Setenv("DATACHAT_DATASET", "sales")

	_, err := GetProfile()
	require.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	require.Nil(t, splitCSV(""))
	require.Equal(t, []string{"a"}, splitCSV("a"))
	require.Equal(t, []string{"a", "b"}, splitCSV(" a ,b"))
}
