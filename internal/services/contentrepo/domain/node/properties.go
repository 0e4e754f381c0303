package node

import "sort"

// SerializedPropertyValue is a property value together with its declared type.
type SerializedPropertyValue struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// SerializedPropertyValues maps property names to values. A nil entry means
// the property is unset, which is distinct from an absent key.
type SerializedPropertyValues map[PropertyName]*SerializedPropertyValue

// Merge overrides the receiver key by key with other. Later values win.
func (v SerializedPropertyValues) Merge(other SerializedPropertyValues) SerializedPropertyValues {
	merged := make(SerializedPropertyValues, len(v)+len(other))
	for name, value := range v {
		merged[name] = value
	}
	for name, value := range other {
		merged[name] = value
	}
	return merged
}

// SplitByScope groups the values by the scope scopeOf assigns to each name.
func (v SerializedPropertyValues) SplitByScope(scopeOf func(PropertyName) PropertyScope) map[PropertyScope]SerializedPropertyValues {
	out := map[PropertyScope]SerializedPropertyValues{}
	for name, value := range v {
		scope := scopeOf(name)
		if scope == "" {
			scope = PropertyScopeNode
		}
		if out[scope] == nil {
			out[scope] = SerializedPropertyValues{}
		}
		out[scope][name] = value
	}
	return out
}

// ApplyTo returns target with the values set and the nil entries removed.
func (v SerializedPropertyValues) ApplyTo(target SerializedPropertyValues) SerializedPropertyValues {
	out := make(SerializedPropertyValues, len(target)+len(v))
	for name, value := range target {
		out[name] = value
	}
	for name, value := range v {
		if value == nil {
			delete(out, name)
			continue
		}
		out[name] = value
	}
	return out
}

// Names returns the property names in sorted order.
func (v SerializedPropertyValues) Names() []PropertyName {
	names := make([]PropertyName, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Clone returns a shallow copy.
func (v SerializedPropertyValues) Clone() SerializedPropertyValues {
	if v == nil {
		return nil
	}
	return v.Merge(nil)
}

// NodeReferenceToWrite is one target of a reference property.
type NodeReferenceToWrite struct {
	TargetNodeAggregateID NodeAggregateID          `json:"targetNodeAggregateId"`
	Properties            SerializedPropertyValues `json:"properties,omitempty"`
}

// NodeReferencesToWrite is the ordered list of targets of one reference.
type NodeReferencesToWrite []NodeReferenceToWrite

// TargetIDs returns the target aggregate ids in order.
func (r NodeReferencesToWrite) TargetIDs() []NodeAggregateID {
	ids := make([]NodeAggregateID, 0, len(r))
	for _, ref := range r {
		ids = append(ids, ref.TargetNodeAggregateID)
	}
	return ids
}
