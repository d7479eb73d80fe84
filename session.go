package tiptop

import (
	"math"
)

// MaxFOV is the hard limit applied to sensor_science.FieldOfView when a
// session loads a document. Configs in the wild specify fields of view
// (2048 and up) that make the remote service time out; values above the
// cap are reduced on load. The cap does not apply to later Set calls.
const MaxFOV = 512

// Change records one differing value between a session's document and its
// original. A nil Old means the key was added, a nil New that it was
// removed.
type Change struct {
	Old *Value
	New *Value
}

// Session pairs a working document with a pristine copy of what was
// loaded, supporting reset and diff, plus convenience accessors for the
// science wavelengths and source positions.
type Session struct {
	doc      *Document
	original *Document
}

// NewSession wraps a document. The document is used directly, not copied;
// the pristine copy is cloned from it after the field-of-view cap.
func NewSession(doc *Document) *Session {
	capFieldOfView(doc)
	return &Session{doc: doc, original: doc.Clone()}
}

// LoadSession parses a dialect file and wraps it.
func LoadSession(path string) (*Session, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewSession(doc), nil
}

// DefaultSession starts from the bundled defaults catalogue.
func DefaultSession() (*Session, error) {
	doc, err := DefaultDocument()
	if err != nil {
		return nil, err
	}
	return NewSession(doc), nil
}

func capFieldOfView(doc *Document) {
	v, ok := doc.Get("sensor_science", "FieldOfView")
	if !ok {
		return
	}
	if f, ok := v.Float(); ok && f > MaxFOV {
		doc.Set("sensor_science", "FieldOfView", Int(MaxFOV))
	}
}

// Document returns the working document for mutation.
func (s *Session) Document() *Document { return s.doc }

// Reset restores the working document to the loaded state.
func (s *Session) Reset() {
	s.doc = s.original.Clone()
}

// Diff lists every value that differs from the loaded state, keyed by
// section then key.
func (s *Session) Diff() map[string]map[string]Change {
	changes := make(map[string]map[string]Change)
	record := func(section, key string, ch Change) {
		if changes[section] == nil {
			changes[section] = make(map[string]Change)
		}
		changes[section][key] = ch
	}

	for _, section := range s.doc.Sections() {
		cur, _ := s.doc.Section(section)
		orig, ok := s.original.Section(section)
		for _, key := range cur.Keys() {
			newVal, _ := cur.Get(key)
			if !ok {
				v := newVal
				record(section, key, Change{New: &v})
				continue
			}
			oldVal, had := orig.Get(key)
			if !had {
				v := newVal
				record(section, key, Change{New: &v})
			} else if !oldVal.Equal(newVal) {
				o, n := oldVal, newVal
				record(section, key, Change{Old: &o, New: &n})
			}
		}
	}

	for _, section := range s.original.Sections() {
		orig, _ := s.original.Section(section)
		cur, ok := s.doc.Section(section)
		for _, key := range orig.Keys() {
			oldVal, _ := orig.Get(key)
			if !ok {
				v := oldVal
				record(section, key, Change{Old: &v})
				continue
			}
			if _, has := cur.Get(key); !has {
				v := oldVal
				record(section, key, Change{Old: &v})
			}
		}
	}

	return changes
}

// Wavelengths returns the science wavelengths in microns. The document
// stores sources_science.Wavelength in metres, as a scalar or a list.
func (s *Session) Wavelengths() []float64 {
	v, ok := s.doc.Get("sources_science", "Wavelength")
	if !ok {
		return nil
	}
	metres := numericList(v)
	out := make([]float64, len(metres))
	for i, m := range metres {
		out[i] = m * 1e6
	}
	return out
}

// SetWavelengths stores science wavelengths given in microns.
func (s *Session) SetWavelengths(microns ...float64) {
	elems := make([]Value, len(microns))
	for i, um := range microns {
		elems[i] = Float(um * 1e-6)
	}
	s.doc.Set("sources_science", "Wavelength", List(elems...))
}

// Positions returns the science source positions as cartesian (x, y)
// arcseconds, computed from the polar sources_science.Zenith (radial
// distance) and Azimuth (degrees).
func (s *Session) Positions() (xs, ys []float64) {
	zenith := s.fieldOrDefault("sources_science", "Zenith")
	azimuth := s.fieldOrDefault("sources_science", "Azimuth")

	n := len(zenith)
	if len(azimuth) < n {
		n = len(azimuth)
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := 0; i < n; i++ {
		rad := azimuth[i] * math.Pi / 180
		xs[i] = zenith[i] * math.Cos(rad)
		ys[i] = zenith[i] * math.Sin(rad)
	}
	return xs, ys
}

// SetPositions stores science source positions given as cartesian (x, y)
// arcsecond pairs, converting to the polar form the service expects.
func (s *Session) SetPositions(points [][2]float64) {
	zeniths := make([]Value, len(points))
	azimuths := make([]Value, len(points))
	for i, p := range points {
		r := math.Hypot(p[0], p[1])
		theta := math.Atan2(p[1], p[0]) * 180 / math.Pi
		zeniths[i] = Float(round6(r))
		azimuths[i] = Float(round6(theta))
	}
	s.doc.Set("sources_science", "Zenith", List(zeniths...))
	s.doc.Set("sources_science", "Azimuth", List(azimuths...))
}

func (s *Session) fieldOrDefault(section, key string) []float64 {
	v, ok := s.doc.Get(section, key)
	if !ok {
		return []float64{0}
	}
	return numericList(v)
}

// numericList flattens a scalar or a one-level list into float64s,
// skipping non-numeric elements.
func numericList(v Value) []float64 {
	if f, ok := v.Float(); ok {
		return []float64{f}
	}
	elems, ok := v.List()
	if !ok {
		return nil
	}
	var out []float64
	for _, e := range elems {
		if f, ok := e.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
