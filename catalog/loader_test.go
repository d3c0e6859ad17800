package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const yamlCatalog = `
metrics:
  - id: sessions
    name: Sessions
    source: GA4
    category: Traffic
constants:
  - id: fx
    name: FX rate
    value: 1.08
    time_series: true
custom_kpis:
  - id: roas
    title: ROAS
    metric: revenue
`

const jsonCatalog = `{
  "metrics": [{"id": "sessions", "name": "Sessions", "source": "GA4", "category": "Traffic"}],
  "constants": [{"id": "fx", "name": "FX rate", "value": 1.08, "timeSeries": true, "periods": 12}],
  "customConversions": [{"id": "reg", "name": "Registrations", "goals": [
    {"id": "g1", "goalName": "Sign up", "metric": "events", "type": "event-name", "eventName": "sign_up"}
  ]}],
  "utm_configs": [{"id": "spring", "name": "Spring", "ga4_property": "ga4-main", "metric": "sessions",
    "utm_parameters": [{"id": "p1", "dimension": "utm_source", "value": "newsletter"}]}],
  "customImports": [{"id": "crm", "title": "CRM", "metric": "leads"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", yamlCatalog)

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Metrics, 1)
	assert.Equal(t, "Traffic", c.Metrics[0].Category)
	require.Len(t, c.Constants, 1)
	assert.True(t, c.Constants[0].TimeSeries)
	assert.Equal(t, "ROAS", c.CustomKPIs[0].Title)
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.json", jsonCatalog)

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GA4", c.Metrics[0].Source)
	assert.Equal(t, 1.08, c.Constants[0].Value)
	assert.Equal(t, 12, c.Constants[0].Periods)
	assert.True(t, c.Constants[0].TimeSeries)
	require.Len(t, c.CustomConversions, 1)
	assert.Equal(t, GoalEventName, c.CustomConversions[0].Goals[0].Type)
	assert.Equal(t, "sign_up", c.CustomConversions[0].Goals[0].EventName)
	require.Len(t, c.UTMConfigs, 1)
	assert.Equal(t, "ga4-main", c.UTMConfigs[0].GA4Property)
	assert.Equal(t, "newsletter", c.UTMConfigs[0].Parameters[0].Value)
	assert.Equal(t, "CRM", c.CustomImports[0].Title)
	assert.Empty(t, c.CustomKPIs)
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	_, err := ParseJSON([]byte(`{"metrics": [`))
	assert.Error(t, err)
	_, err = ParseJSON([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		parse   func([]byte) (*Catalog, error)
		doc     string
		wantErr error
	}{
		{"yaml metric without name", ParseYAML, "metrics:\n  - id: blank\n    name: \"\"\n", ErrInvalid},
		{"yaml metric without id", ParseYAML, "metrics:\n  - name: Sessions\n", ErrInvalid},
		{"yaml duplicate metric", ParseYAML, "metrics:\n  - {id: a, name: A}\n  - {id: a, name: B}\n", ErrDuplicate},
		{"yaml kpi without metric", ParseYAML, "custom_kpis:\n  - {id: roas, title: ROAS}\n", ErrInvalid},
		{"json constant without name", ParseJSON, `{"constants": [{"id": "fx", "value": 1.08}]}`, ErrInvalid},
		{"json duplicate import", ParseJSON, `{"customImports": [{"id": "crm", "title": "CRM", "metric": "leads"}, {"id": "crm", "title": "CRM 2", "metric": "leads"}]}`, ErrDuplicate},
		{"json conversion without goals", ParseJSON, `{"customConversions": [{"id": "reg", "name": "Registrations"}]}`, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSameIDAcrossKindsIsAllowed(t *testing.T) {
	c, err := ParseYAML([]byte("metrics:\n  - {id: revenue, name: Revenue}\nconstants:\n  - {id: revenue, name: Revenue target, value: 10}\n"))
	require.NoError(t, err)
	assert.Len(t, c.Metrics, 1)
	assert.Len(t, c.Constants, 1)
}

func TestDefaultCatalogIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.yaml", yamlCatalog)

	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, dir, "other.yaml", "metrics: []")
	// Replace the file in one step so a reload never sees a partial write.
	next := writeFile(t, dir, "catalog.yaml.tmp", yamlCatalog+`
  - id: cac
    title: CAC
    metric: cost
`)
	require.NoError(t, os.Rename(next, path))

	timeout := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-w.Updates():
			if len(c.CustomKPIs) == 2 {
				assert.Equal(t, "CAC", c.CustomKPIs[1].Title)
				reloaded = true
			}
		case err := <-w.Errors():
			t.Fatalf("unexpected watcher error: %v", err)
		case <-timeout:
			t.Fatal("timed out waiting for catalog reload")
		}
	}

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close(), "close is idempotent")
}

func TestNewWatcherMissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
