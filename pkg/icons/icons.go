// Package icons maps data-source identifiers to CSS icon classes.
//
// Node boxes in a lineage scene carry an icon chosen from the entity's
// source (usually its database). Lookups are case-insensitive; unknown
// sources fall back to a generic icon for the resource type.
package icons

import (
	"maps"
	"slices"
	"strings"
)

// ResourceType is the kind of resource an icon is resolved for.
type ResourceType string

const (
	Table     ResourceType = "table"
	Dashboard ResourceType = "dashboard"
	Feature   ResourceType = "feature"
	User      ResourceType = "user"
)

// Fallback classes per resource type.
const (
	DefaultTableIcon     = "icon-database"
	DefaultDashboardIcon = "icon-dashboard"
	DefaultFeatureIcon   = "icon-feature"
	DefaultUserIcon      = "icon-user"
)

var builtin = map[ResourceType]map[string]string{
	Table: {
		"bigquery":      "icon-bigquery",
		"cassandra":     "icon-cassandra",
		"delta":         "icon-delta",
		"druid":         "icon-druid",
		"dynamo":        "icon-dynamo",
		"elasticsearch": "icon-elasticsearch",
		"hive":          "icon-hive",
		"mysql":         "icon-mysql",
		"oracle":        "icon-oracle",
		"postgres":      "icon-postgres",
		"presto":        "icon-presto",
		"redshift":      "icon-redshift",
		"snowflake":     "icon-snowflake",
		"trino":         "icon-trino",
	},
	Dashboard: {
		"looker":   "icon-looker",
		"mode":     "icon-mode",
		"powerbi":  "icon-powerbi",
		"redash":   "icon-redash",
		"superset": "icon-superset",
		"tableau":  "icon-tableau",
	},
}

// Resolver resolves icon classes from built-in mappings plus overrides.
// A nil *Resolver resolves with the built-in mappings only.
type Resolver struct {
	classes map[ResourceType]map[string]string
}

// NewResolver returns a resolver where overrides take precedence over the
// built-in mappings. Override keys are matched case-insensitively.
func NewResolver(overrides map[ResourceType]map[string]string) *Resolver {
	classes := make(map[ResourceType]map[string]string, len(builtin)+len(overrides))
	for rt, m := range builtin {
		classes[rt] = maps.Clone(m)
	}
	for rt, m := range overrides {
		if classes[rt] == nil {
			classes[rt] = make(map[string]string, len(m))
		}
		for source, class := range m {
			if class = strings.TrimSpace(class); class != "" {
				classes[rt][normalize(source)] = class
			}
		}
	}
	return &Resolver{classes: classes}
}

var defaultResolver = NewResolver(nil)

// Default returns the resolver with built-in mappings only.
func Default() *Resolver { return defaultResolver }

// SourceIconClass resolves with the built-in mappings.
func SourceIconClass(source string, rt ResourceType) string {
	return defaultResolver.SourceIconClass(source, rt)
}

// SourceIconClass returns the icon class configured for source under rt, or
// the fallback class of rt.
func (r *Resolver) SourceIconClass(source string, rt ResourceType) string {
	classes := builtin
	if r != nil {
		classes = r.classes
	}
	if class, ok := classes[rt][normalize(source)]; ok {
		return class
	}
	return Fallback(rt)
}

// Sources lists the sources with a configured class for rt, sorted.
func (r *Resolver) Sources(rt ResourceType) []string {
	classes := builtin
	if r != nil {
		classes = r.classes
	}
	return slices.Sorted(maps.Keys(classes[rt]))
}

// Fallback returns the generic icon class for rt.
func Fallback(rt ResourceType) string {
	switch rt {
	case Dashboard:
		return DefaultDashboardIcon
	case Feature:
		return DefaultFeatureIcon
	case User:
		return DefaultUserIcon
	default:
		return DefaultTableIcon
	}
}

func normalize(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}
