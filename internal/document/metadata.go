package document

import "strings"

// Metadata is an ordered, multi-valued string map. Key matching is
// case-sensitive by default; NewMetadataCaseInsensitive folds keys while
// preserving the first-seen spelling for iteration.
type Metadata struct {
	caseInsensitive bool
	keys            []string            // canonical keys, insertion order
	names           map[string]string   // canonical -> display name
	values          map[string][]string // canonical -> values
}

// NewMetadata creates an empty case-sensitive metadata map.
func NewMetadata() *Metadata {
	return &Metadata{
		names:  make(map[string]string),
		values: make(map[string][]string),
	}
}

// NewMetadataCaseInsensitive creates an empty metadata map with
// case-insensitive key matching.
func NewMetadataCaseInsensitive() *Metadata {
	m := NewMetadata()
	m.caseInsensitive = true
	return m
}

func (m *Metadata) canon(name string) string {
	if m.caseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

// Add appends values to a field, creating it if absent.
func (m *Metadata) Add(name string, values ...string) {
	key := m.canon(name)
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
		m.names[key] = name
	}
	m.values[key] = append(m.values[key], values...)
}

// Set replaces all values of a field.
func (m *Metadata) Set(name string, values ...string) {
	key := m.canon(name)
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
		m.names[key] = name
	}
	m.values[key] = append([]string(nil), values...)
}

// Get returns all values of a field, nil if absent.
func (m *Metadata) Get(name string) []string {
	return m.values[m.canon(name)]
}

// GetFirst returns the first value of a field, "" if absent.
func (m *Metadata) GetFirst(name string) string {
	if vs := m.values[m.canon(name)]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether a field exists.
func (m *Metadata) Has(name string) bool {
	_, ok := m.values[m.canon(name)]
	return ok
}

// Delete removes a field entirely.
func (m *Metadata) Delete(name string) {
	key := m.canon(name)
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	delete(m.names, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Rename moves a field's values to a new name. When the target already
// exists, values are merged unless overwrite is set.
func (m *Metadata) Rename(from, to string, overwrite bool) {
	if !m.Has(from) {
		return
	}
	vs := m.Get(from)
	m.Delete(from)
	if overwrite {
		m.Set(to, vs...)
	} else {
		m.Add(to, vs...)
	}
}

// Keys returns field display names in insertion order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.names[k]
	}
	return out
}

// Len returns the number of fields.
func (m *Metadata) Len() int {
	return len(m.keys)
}

// Clone deep-copies the metadata.
func (m *Metadata) Clone() *Metadata {
	c := &Metadata{
		caseInsensitive: m.caseInsensitive,
		keys:            append([]string(nil), m.keys...),
		names:           make(map[string]string, len(m.names)),
		values:          make(map[string][]string, len(m.values)),
	}
	for k, v := range m.names {
		c.names[k] = v
	}
	for k, vs := range m.values {
		c.values[k] = append([]string(nil), vs...)
	}
	return c
}

// Map returns a plain map copy keyed by display name, for serialization.
func (m *Metadata) Map() map[string][]string {
	out := make(map[string][]string, len(m.keys))
	for _, k := range m.keys {
		out[m.names[k]] = append([]string(nil), m.values[k]...)
	}
	return out
}
