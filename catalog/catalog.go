// Package catalog holds the selectable references a calculated metric can be
// built from: metrics, constants and the custom configurations created
// alongside them.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/effectus/calcmetric-go/formula"
)

var (
	// ErrNotFound is returned when a reference id is not in the catalog.
	ErrNotFound = errors.New("catalog item not found")
	// ErrDuplicate is returned for an item whose id already exists.
	ErrDuplicate = errors.New("catalog item already exists")
	// ErrInvalid is returned when an item misses required fields.
	ErrInvalid = errors.New("invalid catalog item")
)

// Metric is a metric reported by a connected source.
type Metric struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Source   string `yaml:"source,omitempty" json:"source,omitempty"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

// Constant is a named number, optionally varying over time.
type Constant struct {
	ID         string  `yaml:"id" json:"id"`
	Name       string  `yaml:"name" json:"name"`
	Value      float64 `yaml:"value" json:"value"`
	Unit       string  `yaml:"unit,omitempty" json:"unit,omitempty"`
	TimeSeries bool    `yaml:"time_series,omitempty" json:"timeSeries,omitempty"`
	Location   string  `yaml:"location,omitempty" json:"location,omitempty"`
	Periods    int     `yaml:"periods,omitempty" json:"periods,omitempty"`
}

// GoalType selects how a conversion goal is matched.
type GoalType string

const (
	GoalSimple    GoalType = "simple"
	GoalEventName GoalType = "event-name"
)

// ConversionGoal is one goal of a custom conversion.
type ConversionGoal struct {
	ID        string   `yaml:"id" json:"id"`
	GoalName  string   `yaml:"goal_name" json:"goalName"`
	Metric    string   `yaml:"metric" json:"metric"`
	Type      GoalType `yaml:"type" json:"type"`
	EventName string   `yaml:"event_name,omitempty" json:"eventName,omitempty"`
}

// CustomConversion combines several conversion goals.
type CustomConversion struct {
	ID    string           `yaml:"id" json:"id"`
	Name  string           `yaml:"name" json:"name"`
	Goals []ConversionGoal `yaml:"goals" json:"goals"`
}

// UTMParameter filters a GA4 dimension on a value.
type UTMParameter struct {
	ID        string `yaml:"id" json:"id"`
	Dimension string `yaml:"dimension" json:"dimension"`
	Value     string `yaml:"value" json:"value"`
}

// UTMConfig tracks a metric restricted by UTM parameters.
type UTMConfig struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	GA4Property string         `yaml:"ga4_property" json:"ga4Property"`
	Parameters  []UTMParameter `yaml:"utm_parameters" json:"utmParameters"`
	Metric      string         `yaml:"metric" json:"metric"`
}

// CustomImport is a metric imported from an external file.
type CustomImport struct {
	ID     string `yaml:"id" json:"id"`
	Title  string `yaml:"title" json:"title"`
	Metric string `yaml:"metric" json:"metric"`
}

// CustomKPI is a user-defined KPI.
type CustomKPI struct {
	ID     string `yaml:"id" json:"id"`
	Title  string `yaml:"title" json:"title"`
	Metric string `yaml:"metric" json:"metric"`
}

// Catalog is the set of references available to one editing session.
type Catalog struct {
	Metrics           []Metric           `yaml:"metrics" json:"metrics"`
	Constants         []Constant         `yaml:"constants" json:"constants"`
	CustomConversions []CustomConversion `yaml:"custom_conversions" json:"customConversions"`
	UTMConfigs        []UTMConfig        `yaml:"utm_configs" json:"utmConfigs"`
	CustomImports     []CustomImport     `yaml:"custom_imports" json:"customImports"`
	CustomKPIs        []CustomKPI        `yaml:"custom_kpis" json:"customKPIs"`
}

// Item is a kind-independent view of a catalog entry.
type Item struct {
	Kind  formula.Kind
	ID    string
	Name  string
	Group string
}

// Spec resolves a reference into an operand spec.
func (c *Catalog) Spec(kind formula.Kind, id string) (formula.Spec, error) {
	switch kind {
	case formula.KindMetric:
		for _, m := range c.Metrics {
			if m.ID == id {
				return formula.Spec{Kind: kind, Label: m.Name, Source: m.Source, Ref: m.ID}, nil
			}
		}
	case formula.KindConstant:
		for _, k := range c.Constants {
			if k.ID == id {
				return formula.Spec{Kind: kind, Label: k.Name, Ref: k.ID, LiteralValue: formula.Value(k.Value)}, nil
			}
		}
	case formula.KindCustomConversion:
		for _, cc := range c.CustomConversions {
			if cc.ID == id {
				return formula.Spec{Kind: kind, Label: cc.Name, Ref: cc.ID}, nil
			}
		}
	case formula.KindUTM:
		for _, u := range c.UTMConfigs {
			if u.ID == id {
				return formula.Spec{Kind: kind, Label: u.Name, Source: u.GA4Property, Ref: u.ID}, nil
			}
		}
	case formula.KindCustomImport:
		for _, ci := range c.CustomImports {
			if ci.ID == id {
				return formula.Spec{Kind: kind, Label: ci.Title, Ref: ci.ID}, nil
			}
		}
	case formula.KindCustomKPI:
		for _, kpi := range c.CustomKPIs {
			if kpi.ID == id {
				return formula.Spec{Kind: kind, Label: kpi.Title, Ref: kpi.ID}, nil
			}
		}
	default:
		return formula.Spec{}, fmt.Errorf("%w: %s is not a reference kind", ErrNotFound, kind)
	}
	return formula.Spec{}, fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Items lists every entry of one kind in catalog order.
func (c *Catalog) Items(kind formula.Kind) []Item {
	var items []Item
	switch kind {
	case formula.KindMetric:
		for _, m := range c.Metrics {
			items = append(items, Item{Kind: kind, ID: m.ID, Name: m.Name, Group: m.Category})
		}
	case formula.KindConstant:
		for _, k := range c.Constants {
			items = append(items, Item{Kind: kind, ID: k.ID, Name: k.Name})
		}
	case formula.KindCustomConversion:
		for _, cc := range c.CustomConversions {
			items = append(items, Item{Kind: kind, ID: cc.ID, Name: cc.Name})
		}
	case formula.KindUTM:
		for _, u := range c.UTMConfigs {
			items = append(items, Item{Kind: kind, ID: u.ID, Name: u.Name, Group: u.GA4Property})
		}
	case formula.KindCustomImport:
		for _, ci := range c.CustomImports {
			items = append(items, Item{Kind: kind, ID: ci.ID, Name: ci.Title})
		}
	case formula.KindCustomKPI:
		for _, kpi := range c.CustomKPIs {
			items = append(items, Item{Kind: kind, ID: kpi.ID, Name: kpi.Title})
		}
	}
	return items
}

// Search returns items of kind whose name contains query, ignoring case. An
// empty query matches everything.
func (c *Catalog) Search(kind formula.Kind, query string) []Item {
	needle := strings.ToLower(strings.TrimSpace(query))
	var out []Item
	for _, item := range c.Items(kind) {
		if needle == "" || strings.Contains(strings.ToLower(item.Name), needle) {
			out = append(out, item)
		}
	}
	return out
}

// MetricsByCategory groups metrics by category. Metrics without one land
// under "Other".
func (c *Catalog) MetricsByCategory() map[string][]Metric {
	out := make(map[string][]Metric)
	for _, m := range c.Metrics {
		category := m.Category
		if category == "" {
			category = "Other"
		}
		out[category] = append(out[category], m)
	}
	return out
}

// Categories returns the metric categories in sorted order.
func (c *Catalog) Categories() []string {
	grouped := c.MetricsByCategory()
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddConstant registers a new constant.
func (c *Catalog) AddConstant(k Constant) (Constant, error) {
	if err := k.validate(); err != nil {
		return Constant{}, err
	}
	k.ID = ensureID(k.ID, "constant")
	if c.has(formula.KindConstant, k.ID) {
		return Constant{}, fmt.Errorf("%w: constant %q", ErrDuplicate, k.ID)
	}
	c.Constants = append(c.Constants, k)
	return k, nil
}

// AddCustomConversion registers a custom conversion with at least one
// complete goal.
func (c *Catalog) AddCustomConversion(cc CustomConversion) (CustomConversion, error) {
	if err := cc.validate(); err != nil {
		return CustomConversion{}, err
	}
	for i := range cc.Goals {
		goal := &cc.Goals[i]
		if goal.Type == "" {
			goal.Type = GoalSimple
		}
		goal.ID = ensureID(goal.ID, "goal")
	}
	cc.ID = ensureID(cc.ID, "conversion")
	if c.has(formula.KindCustomConversion, cc.ID) {
		return CustomConversion{}, fmt.Errorf("%w: conversion %q", ErrDuplicate, cc.ID)
	}
	c.CustomConversions = append(c.CustomConversions, cc)
	return cc, nil
}

// AddUTMConfig registers a UTM tracking configuration.
func (c *Catalog) AddUTMConfig(u UTMConfig) (UTMConfig, error) {
	if err := u.validate(); err != nil {
		return UTMConfig{}, err
	}
	for i := range u.Parameters {
		param := &u.Parameters[i]
		param.ID = ensureID(param.ID, "utm-param")
	}
	u.ID = ensureID(u.ID, "utm")
	if c.has(formula.KindUTM, u.ID) {
		return UTMConfig{}, fmt.Errorf("%w: utm config %q", ErrDuplicate, u.ID)
	}
	c.UTMConfigs = append(c.UTMConfigs, u)
	return u, nil
}

// AddCustomImport registers a custom import.
func (c *Catalog) AddCustomImport(ci CustomImport) (CustomImport, error) {
	if err := ci.validate(); err != nil {
		return CustomImport{}, err
	}
	ci.ID = ensureID(ci.ID, "import")
	if c.has(formula.KindCustomImport, ci.ID) {
		return CustomImport{}, fmt.Errorf("%w: custom import %q", ErrDuplicate, ci.ID)
	}
	c.CustomImports = append(c.CustomImports, ci)
	return ci, nil
}

// AddCustomKPI registers a custom KPI.
func (c *Catalog) AddCustomKPI(kpi CustomKPI) (CustomKPI, error) {
	if err := kpi.validate(); err != nil {
		return CustomKPI{}, err
	}
	kpi.ID = ensureID(kpi.ID, "kpi")
	if c.has(formula.KindCustomKPI, kpi.ID) {
		return CustomKPI{}, fmt.Errorf("%w: custom kpi %q", ErrDuplicate, kpi.ID)
	}
	c.CustomKPIs = append(c.CustomKPIs, kpi)
	return kpi, nil
}

func (c *Catalog) has(kind formula.Kind, id string) bool {
	for _, item := range c.Items(kind) {
		if item.ID == id {
			return true
		}
	}
	return false
}

func ensureID(id, prefix string) string {
	if id != "" {
		return id
	}
	return prefix + "-" + uuid.NewString()
}
