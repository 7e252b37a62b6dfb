package lineage

import (
	"slices"
)

// Direction describes which side of the focal entity a lineage query covers.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
	DirectionBoth       Direction = "both"
)

// Entity is one node of a lineage graph, typically a table.
// Entities are treated as immutable once decoded.
type Entity struct {
	Key      string   `json:"key"`
	Parent   string   `json:"parent,omitempty"` // Key of the entity this one derives from
	Database string   `json:"database,omitempty"`
	Cluster  string   `json:"cluster,omitempty"`
	Schema   string   `json:"schema,omitempty"`
	Name     string   `json:"name,omitempty"`
	Level    int      `json:"level,omitempty"`
	Source   string   `json:"source,omitempty"`
	Badges   []string `json:"badges,omitempty"`
	Usage    int      `json:"usage,omitempty"`
}

// HasParent reports whether the entity names a parent.
func (e Entity) HasParent() bool { return e.Parent != "" }

// DisplayLabel returns the label shown on a rendered node.
func (e Entity) DisplayLabel() string { return e.Key }

// IconSource returns the identifier used to resolve the entity's icon.
// The database name wins over the generic source field.
func (e Entity) IconSource() string {
	if e.Database != "" {
		return e.Database
	}
	return e.Source
}

// Dataset is the set of entities to visualize around a focal entity.
type Dataset struct {
	Key                string    `json:"key,omitempty"`
	Direction          Direction `json:"direction,omitempty"`
	Depth              int       `json:"depth,omitempty"`
	UpstreamEntities   []Entity  `json:"upstream_entities"`
	DownstreamEntities []Entity  `json:"downstream_entities"`
}

// Relation is a parent → child relationship declared by an entity.
type Relation struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Entities returns upstream entities followed by downstream entities.
// Duplicates are kept.
func (d *Dataset) Entities() []Entity {
	out := make([]Entity, 0, len(d.UpstreamEntities)+len(d.DownstreamEntities))
	out = append(out, d.UpstreamEntities...)
	return append(out, d.DownstreamEntities...)
}

// Len returns the number of entity records, duplicates included.
func (d *Dataset) Len() int {
	return len(d.UpstreamEntities) + len(d.DownstreamEntities)
}

// Keys returns the distinct entity keys in first-seen order.
func (d *Dataset) Keys() []string {
	seen := make(map[string]struct{}, d.Len())
	keys := make([]string, 0, d.Len())
	for _, e := range d.Entities() {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		keys = append(keys, e.Key)
	}
	return keys
}

// Lookup returns the last entity record with the given key.
func (d *Dataset) Lookup(key string) (Entity, bool) {
	all := d.Entities()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Key == key {
			return all[i], true
		}
	}
	return Entity{}, false
}

// Relations lists every parent → child relationship in input order.
// Relations whose parent is absent from the dataset are included; use
// Dangling to find them.
func (d *Dataset) Relations() []Relation {
	var rels []Relation
	for _, e := range d.Entities() {
		if e.HasParent() {
			rels = append(rels, Relation{Parent: e.Parent, Child: e.Key})
		}
	}
	return rels
}

// Dangling returns the sorted, distinct parent keys that do not name any
// entity in the dataset.
func (d *Dataset) Dangling() []string {
	keys := make(map[string]struct{}, d.Len())
	for _, e := range d.Entities() {
		keys[e.Key] = struct{}{}
	}
	var out []string
	for _, r := range d.Relations() {
		if _, ok := keys[r.Parent]; ok {
			continue
		}
		if !slices.Contains(out, r.Parent) {
			out = append(out, r.Parent)
		}
	}
	slices.Sort(out)
	return out
}
