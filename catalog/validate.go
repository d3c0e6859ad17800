package catalog

import (
	"fmt"
	"strings"

	"github.com/effectus/calcmetric-go/formula"
)

// Validate checks a decoded catalog: every entry needs an id and the fields
// its Add method requires, and ids are unique within a kind.
func (c *Catalog) Validate() error {
	for i, m := range c.Metrics {
		if err := m.validate(); err != nil {
			return fmt.Errorf("metrics[%d]: %w", i, err)
		}
	}
	for i, k := range c.Constants {
		if err := k.validate(); err != nil {
			return fmt.Errorf("constants[%d]: %w", i, err)
		}
	}
	for i, cc := range c.CustomConversions {
		if err := cc.validate(); err != nil {
			return fmt.Errorf("custom_conversions[%d]: %w", i, err)
		}
	}
	for i, u := range c.UTMConfigs {
		if err := u.validate(); err != nil {
			return fmt.Errorf("utm_configs[%d]: %w", i, err)
		}
	}
	for i, ci := range c.CustomImports {
		if err := ci.validate(); err != nil {
			return fmt.Errorf("custom_imports[%d]: %w", i, err)
		}
	}
	for i, kpi := range c.CustomKPIs {
		if err := kpi.validate(); err != nil {
			return fmt.Errorf("custom_kpis[%d]: %w", i, err)
		}
	}

	for _, kind := range formula.ReferenceKinds {
		seen := make(map[string]struct{})
		for _, item := range c.Items(kind) {
			if strings.TrimSpace(item.ID) == "" {
				return fmt.Errorf("%w: %s %q has no id", ErrInvalid, kind, item.Name)
			}
			if _, dup := seen[item.ID]; dup {
				return fmt.Errorf("%w: %s %q", ErrDuplicate, kind, item.ID)
			}
			seen[item.ID] = struct{}{}
		}
	}
	return nil
}

func (m Metric) validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: metric %q needs a name", ErrInvalid, m.ID)
	}
	return nil
}

func (k Constant) validate() error {
	if strings.TrimSpace(k.Name) == "" {
		return fmt.Errorf("%w: constant name is required", ErrInvalid)
	}
	return nil
}

func (cc CustomConversion) validate() error {
	if strings.TrimSpace(cc.Name) == "" {
		return fmt.Errorf("%w: conversion name is required", ErrInvalid)
	}
	if len(cc.Goals) == 0 {
		return fmt.Errorf("%w: conversion %q needs a goal", ErrInvalid, cc.Name)
	}
	for i, goal := range cc.Goals {
		if goal.GoalName == "" || goal.Metric == "" {
			return fmt.Errorf("%w: goal %d needs a name and a metric", ErrInvalid, i+1)
		}
		if goal.Type == GoalEventName && goal.EventName == "" {
			return fmt.Errorf("%w: goal %q needs an event name", ErrInvalid, goal.GoalName)
		}
	}
	return nil
}

func (u UTMConfig) validate() error {
	if strings.TrimSpace(u.Name) == "" || u.GA4Property == "" || u.Metric == "" {
		return fmt.Errorf("%w: utm config needs a name, a GA4 property and a metric", ErrInvalid)
	}
	for i, param := range u.Parameters {
		if param.Dimension == "" || param.Value == "" {
			return fmt.Errorf("%w: utm parameter %d needs a dimension and a value", ErrInvalid, i+1)
		}
	}
	return nil
}

func (ci CustomImport) validate() error {
	if strings.TrimSpace(ci.Title) == "" || ci.Metric == "" {
		return fmt.Errorf("%w: custom import needs a title and a metric", ErrInvalid)
	}
	return nil
}

func (kpi CustomKPI) validate() error {
	if strings.TrimSpace(kpi.Title) == "" || kpi.Metric == "" {
		return fmt.Errorf("%w: custom kpi needs a title and a metric", ErrInvalid)
	}
	return nil
}
