package tiptop

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionDoc() *Document {
	doc := NewDocument()
	doc.Set("telescope", "TelescopeDiameter", Float(8.0))
	doc.Set("sources_science", "Wavelength", Floats(1.6e-6))
	doc.Set("sources_science", "Zenith", Floats(0.0))
	doc.Set("sources_science", "Azimuth", Floats(0.0))
	doc.Set("sensor_science", "FieldOfView", Int(256))
	return doc
}

func TestSessionFieldOfViewCap(t *testing.T) {
	doc := sessionDoc()
	doc.Set("sensor_science", "FieldOfView", Int(2048))

	s := NewSession(doc)
	fov := mustGet(t, s.Document(), "sensor_science", "FieldOfView")
	assert.True(t, fov.Equal(Int(MaxFOV)))

	// the cap applies only on load
	s.Document().Set("sensor_science", "FieldOfView", Int(4096))
	fov = mustGet(t, s.Document(), "sensor_science", "FieldOfView")
	assert.True(t, fov.Equal(Int(4096)))
}

func TestSessionFieldOfViewBelowCapUntouched(t *testing.T) {
	s := NewSession(sessionDoc())
	fov := mustGet(t, s.Document(), "sensor_science", "FieldOfView")
	assert.True(t, fov.Equal(Int(256)))
}

func TestSessionResetAndDiff(t *testing.T) {
	s := NewSession(sessionDoc())
	assert.Empty(t, s.Diff())

	s.Document().Set("telescope", "TelescopeDiameter", Float(38.5))
	s.Document().Set("telescope", "PupilAngle", Float(10.0))
	s.Document().Delete("sensor_science", "FieldOfView")

	diff := s.Diff()
	require.Len(t, diff, 2)

	changed := diff["telescope"]["TelescopeDiameter"]
	require.NotNil(t, changed.Old)
	require.NotNil(t, changed.New)
	assert.True(t, changed.Old.Equal(Float(8.0)))
	assert.True(t, changed.New.Equal(Float(38.5)))

	added := diff["telescope"]["PupilAngle"]
	assert.Nil(t, added.Old)
	require.NotNil(t, added.New)
	assert.True(t, added.New.Equal(Float(10.0)))

	removed := diff["sensor_science"]["FieldOfView"]
	require.NotNil(t, removed.Old)
	assert.Nil(t, removed.New)

	s.Reset()
	assert.Empty(t, s.Diff())
	d := mustGet(t, s.Document(), "telescope", "TelescopeDiameter")
	assert.True(t, d.Equal(Float(8.0)))
}

func TestSessionWavelengths(t *testing.T) {
	s := NewSession(sessionDoc())
	assert.InDeltaSlice(t, []float64{1.6}, s.Wavelengths(), 1e-9)

	s.SetWavelengths(2.2, 1.6, 0.589)
	assert.InDeltaSlice(t, []float64{2.2, 1.6, 0.589}, s.Wavelengths(), 1e-9)

	stored := mustGet(t, s.Document(), "sources_science", "Wavelength")
	elems, ok := stored.List()
	require.True(t, ok)
	require.Len(t, elems, 3)
	f, _ := elems[0].Float()
	assert.InDelta(t, 2.2e-6, f, 1e-15)
}

func TestSessionWavelengthScalar(t *testing.T) {
	doc := sessionDoc()
	doc.Set("sources_science", "Wavelength", Float(5e-7))
	s := NewSession(doc)
	assert.InDeltaSlice(t, []float64{0.5}, s.Wavelengths(), 1e-9)
}

func TestSessionPositions(t *testing.T) {
	s := NewSession(sessionDoc())

	xs, ys := s.Positions()
	assert.Equal(t, []float64{0}, xs)
	assert.Equal(t, []float64{0}, ys)

	s.SetPositions([][2]float64{{0, 0}, {5, 0}, {0, 3}})
	xs, ys = s.Positions()
	require.Len(t, xs, 3)
	assert.InDelta(t, 0.0, xs[0], 1e-9)
	assert.InDelta(t, 5.0, xs[1], 1e-9)
	assert.InDelta(t, 0.0, xs[2], 1e-9)
	assert.InDelta(t, 3.0, ys[2], 1e-9)
}

func TestSessionPositionsRoundTrip(t *testing.T) {
	s := NewSession(sessionDoc())
	points := [][2]float64{{1.5, -2.5}, {-4.0, 0.25}}
	s.SetPositions(points)

	xs, ys := s.Positions()
	require.Len(t, xs, len(points))
	for i, p := range points {
		assert.InDelta(t, p[0], xs[i], 1e-5)
		assert.InDelta(t, p[1], ys[i], 1e-5)
	}
}

func TestSessionPositionsDefaultWhenAbsent(t *testing.T) {
	doc := NewDocument()
	doc.Set("telescope", "TelescopeDiameter", Float(8.0))
	s := NewSession(doc)

	xs, ys := s.Positions()
	assert.Equal(t, []float64{0}, xs)
	assert.Equal(t, []float64{0}, ys)
}

func TestLoadSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.ini")
	doc := sessionDoc()
	require.NoError(t, doc.SaveFile(path))

	s, err := LoadSession(path)
	require.NoError(t, err)
	assert.True(t, s.Document().Equal(doc))

	_, err = LoadSession(filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
}

func TestDefaultSession(t *testing.T) {
	s, err := DefaultSession()
	require.NoError(t, err)
	assert.Empty(t, s.Diff())
	assert.InDeltaSlice(t, []float64{1.6}, s.Wavelengths(), 1e-9)
}
