package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a catalog from a .json, .yaml or .yml file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	default:
		return ParseYAML(data)
	}
}

// ParseYAML decodes and validates a YAML catalog document.
func ParseYAML(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	return c, nil
}

// ParseJSON decodes and validates a JSON catalog payload. Hosts hand over payloads in
// camelCase; snake_case keys are accepted as well.
func ParseJSON(data []byte) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing catalog json: invalid document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("parsing catalog json: expected an object")
	}

	c := &Catalog{}
	field(root, "metrics").ForEach(func(_, m gjson.Result) bool {
		c.Metrics = append(c.Metrics, Metric{
			ID:       m.Get("id").String(),
			Name:     m.Get("name").String(),
			Source:   m.Get("source").String(),
			Category: m.Get("category").String(),
		})
		return true
	})
	field(root, "constants").ForEach(func(_, k gjson.Result) bool {
		c.Constants = append(c.Constants, Constant{
			ID:         k.Get("id").String(),
			Name:       k.Get("name").String(),
			Value:      k.Get("value").Float(),
			Unit:       k.Get("unit").String(),
			TimeSeries: field(k, "timeSeries", "time_series").Bool(),
			Location:   k.Get("location").String(),
			Periods:    int(k.Get("periods").Int()),
		})
		return true
	})
	field(root, "customConversions", "custom_conversions").ForEach(func(_, cc gjson.Result) bool {
		conv := CustomConversion{ID: cc.Get("id").String(), Name: cc.Get("name").String()}
		cc.Get("goals").ForEach(func(_, g gjson.Result) bool {
			conv.Goals = append(conv.Goals, ConversionGoal{
				ID:        g.Get("id").String(),
				GoalName:  field(g, "goalName", "goal_name").String(),
				Metric:    g.Get("metric").String(),
				Type:      GoalType(g.Get("type").String()),
				EventName: field(g, "eventName", "event_name").String(),
			})
			return true
		})
		c.CustomConversions = append(c.CustomConversions, conv)
		return true
	})
	field(root, "utmConfigs", "utm_configs").ForEach(func(_, u gjson.Result) bool {
		cfg := UTMConfig{
			ID:          u.Get("id").String(),
			Name:        u.Get("name").String(),
			GA4Property: field(u, "ga4Property", "ga4_property").String(),
			Metric:      u.Get("metric").String(),
		}
		field(u, "utmParameters", "utm_parameters").ForEach(func(_, p gjson.Result) bool {
			cfg.Parameters = append(cfg.Parameters, UTMParameter{
				ID:        p.Get("id").String(),
				Dimension: p.Get("dimension").String(),
				Value:     p.Get("value").String(),
			})
			return true
		})
		c.UTMConfigs = append(c.UTMConfigs, cfg)
		return true
	})
	field(root, "customImports", "custom_imports").ForEach(func(_, ci gjson.Result) bool {
		c.CustomImports = append(c.CustomImports, CustomImport{
			ID:     ci.Get("id").String(),
			Title:  ci.Get("title").String(),
			Metric: ci.Get("metric").String(),
		})
		return true
	})
	field(root, "customKPIs", "custom_kpis").ForEach(func(_, kpi gjson.Result) bool {
		c.CustomKPIs = append(c.CustomKPIs, CustomKPI{
			ID:     kpi.Get("id").String(),
			Title:  kpi.Get("title").String(),
			Metric: kpi.Get("metric").String(),
		})
		return true
	})
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog json: %w", err)
	}
	return c, nil
}

// field returns the first of keys present on r.
func field(r gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := r.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
