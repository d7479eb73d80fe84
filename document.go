package tiptop

import (
	"os"
	"regexp"
	"strings"
)

var sectionHeaderRe = regexp.MustCompile(`^\[(.+)\]$`)

// Section is an ordered mapping of key names to values. Insertion order is
// preserved; setting an existing key overwrites in place (last write wins).
type Section struct {
	keys   []string
	values map[string]Value
}

func newSection() *Section {
	return &Section{values: make(map[string]Value)}
}

// Keys returns the key names in insertion order.
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the value for key. ok is false when the key is absent.
func (s *Section) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, appending the key on first write.
func (s *Section) Set(key string, value Value) {
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Delete removes key and reports whether it was present.
func (s *Section) Delete(key string) bool {
	if _, exists := s.values[key]; !exists {
		return false
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of keys in the section.
func (s *Section) Len() int { return len(s.keys) }

func (s *Section) clone() *Section {
	c := newSection()
	c.keys = make([]string, len(s.keys))
	copy(c.keys, s.keys)
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Document is an ordered section -> key -> value configuration. It parses
// from and serializes to the dialect text accepted by the simulation
// service. A Document holds exactly what was parsed or set on it; default
// values are never merged in implicitly.
//
// Construction and mutation are not safe for concurrent use; concurrent
// reads are safe once construction has completed.
type Document struct {
	names    []string
	sections map[string]*Section
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{sections: make(map[string]*Section)}
}

// Parse builds a Document from dialect text.
//
// The parser is tolerant: comment-only and blank lines are skipped, lines
// outside any section are dropped, and unrecognized value syntax degrades
// to a string value. It fails with a *SyntaxError only on input that is not
// usable as text at all.
func Parse(text string) (*Document, error) {
	if i := strings.IndexByte(text, 0); i >= 0 {
		return nil, &SyntaxError{Offset: i, Message: "NUL byte in configuration text"}
	}

	doc := NewDocument()
	var current *Section

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(stripComment(line))
		if stripped == "" {
			continue
		}

		if m := sectionHeaderRe.FindStringSubmatch(stripped); m != nil {
			name := strings.TrimSpace(m[1])
			current = doc.section(name)
			continue
		}

		if current == nil {
			continue // key before any section header
		}
		eq := strings.IndexByte(stripped, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(stripped[:eq])
		raw := strings.TrimSpace(stripped[eq+1:])
		if key == "" {
			continue
		}
		if raw == "" {
			current.Set(key, String(""))
			continue
		}
		current.Set(key, parseValue(raw))
	}

	return doc, nil
}

// ParseFile reads and parses a dialect file from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// stripComment removes a trailing ';' or '#' comment. The comment
// character only counts when it appears outside single/double quotes and
// outside any open '['...']' brackets. State is tracked per line only.
func stripComment(line string) string {
	inSingle := false
	inDouble := false
	depth := 0

	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ';', '#':
			if !inSingle && !inDouble && depth == 0 {
				return line[:i]
			}
		}
	}
	return line
}

// section returns the named section, creating it on first use. Reopening an
// existing section continues adding keys to it.
func (d *Document) section(name string) *Section {
	if s, ok := d.sections[name]; ok {
		return s
	}
	s := newSection()
	d.names = append(d.names, name)
	d.sections[name] = s
	return s
}

// Sections returns the section names in insertion order.
func (d *Document) Sections() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Section returns the named section. ok is false when absent.
func (d *Document) Section(name string) (*Section, bool) {
	s, ok := d.sections[name]
	return s, ok
}

// Get returns the value stored under section/key.
func (d *Document) Get(section, key string) (Value, bool) {
	s, ok := d.sections[section]
	if !ok {
		return Value{}, false
	}
	return s.Get(key)
}

// Set stores value under section/key, creating the section if needed.
func (d *Document) Set(section, key string, value Value) {
	d.section(section).Set(key, value)
}

// SetSection replaces the named section's contents with the given keys, in
// map-independent order of the keys slice.
func (d *Document) SetSection(name string, keys []string, values map[string]Value) {
	s := newSection()
	for _, k := range keys {
		s.Set(k, values[k])
	}
	if _, exists := d.sections[name]; !exists {
		d.names = append(d.names, name)
	}
	d.sections[name] = s
}

// Delete removes section/key and reports whether it was present.
func (d *Document) Delete(section, key string) bool {
	s, ok := d.sections[section]
	if !ok {
		return false
	}
	return s.Delete(key)
}

// DeleteSection removes an entire section.
func (d *Document) DeleteSection(name string) bool {
	if _, ok := d.sections[name]; !ok {
		return false
	}
	delete(d.sections, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := NewDocument()
	c.names = make([]string, len(d.names))
	copy(c.names, d.names)
	for name, s := range d.sections {
		c.sections[name] = s.clone()
	}
	return c
}

// Equal reports whether both documents hold the same sections, keys and
// values. Section and key order is ignored.
func (d *Document) Equal(other *Document) bool {
	if len(d.names) != len(other.names) {
		return false
	}
	for name, s := range d.sections {
		o, ok := other.sections[name]
		if !ok || len(s.keys) != len(o.keys) {
			return false
		}
		for k, v := range s.values {
			ov, ok := o.values[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
	}
	return true
}

// Serialize renders the document as dialect text: each section header in
// insertion order, one "key = value" line per key in insertion order, and
// a blank line after every section. Parse(doc.Serialize()) yields a
// document equal to doc for values in the supported domain.
func (d *Document) Serialize() string {
	var sb strings.Builder
	for _, name := range d.names {
		s := d.sections[name]
		sb.WriteByte('[')
		sb.WriteString(name)
		sb.WriteString("]\n")
		for _, key := range s.keys {
			sb.WriteString(key)
			sb.WriteString(" = ")
			sb.WriteString(s.values[key].String())
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SaveFile writes the serialized document to disk.
func (d *Document) SaveFile(path string) error {
	return os.WriteFile(path, []byte(d.Serialize()), 0o644)
}
