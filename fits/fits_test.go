package fits

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		card Card
	}{
		{"string", Card{Keyword: "CONTENT", Value: "PSF CUBE"}},
		{"string with quote", Card{Keyword: "NAME", Value: "o'brien"}},
		{"bool true", Card{Keyword: "FLAG", Value: true}},
		{"bool false", Card{Keyword: "FLAG", Value: false}},
		{"int", Card{Keyword: "WL_NM", Value: int64(1650)}},
		{"negative int", Card{Keyword: "OFFSET", Value: int64(-12)}},
		{"float", Card{Keyword: "SR0000", Value: 0.85}},
		{"small float", Card{Keyword: "WAVE", Value: 5.89e-07}},
		{"with comment", Card{Keyword: "PIX_MAS", Value: int64(14), Comment: "pixel scale"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := formatCard(tt.card)
			require.Len(t, raw, cardLength)

			parsed, end := parseCard(raw)
			require.False(t, end)
			assert.Equal(t, tt.card.Keyword, parsed.Keyword)
			assert.Equal(t, tt.card.Value, parsed.Value)
			assert.Equal(t, tt.card.Comment, parsed.Comment)
		})
	}
}

func TestParseCardEnd(t *testing.T) {
	_, end := parseCard(pad80("END"))
	assert.True(t, end)
}

func TestParseCardFortranExponent(t *testing.T) {
	c, _ := parseCard(pad80("BSCALE  =            1.5D-03"))
	assert.Equal(t, 1.5e-03, c.Value)
}

func TestHeaderSetGet(t *testing.T) {
	var h Header
	h.Set("CONTENT", "PSF CUBE", "")
	h.Set("SR0000", 0.85, "")
	h.Set("NPOS", int64(3), "")

	s, ok := h.String("CONTENT")
	require.True(t, ok)
	assert.Equal(t, "PSF CUBE", s)

	f, ok := h.Float("SR0000")
	require.True(t, ok)
	assert.Equal(t, 0.85, f)

	// ints convert to float on demand
	f, ok = h.Float("NPOS")
	require.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = h.String("MISSING")
	assert.False(t, ok)

	// overwrite keeps position and count
	h.Set("CONTENT", "OPEN-LOOP PSF", "")
	assert.Equal(t, 3, h.Len())
	s, _ = h.String("CONTENT")
	assert.Equal(t, "OPEN-LOOP PSF", s)
}

func makeRamp(n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i) * 0.25
	}
	return data
}

func TestFileRoundTrip(t *testing.T) {
	cube := NewImage([]int{2, 4, 4}, makeRamp(32))
	cube.Header.Set("CONTENT", "PSF CUBE", "")
	cube.Header.Set("CCX0000", 0.0, "")
	cube.Header.Set("CCX0001", 5.0, "")

	flat := NewImage([]int{4, 4}, makeRamp(16))
	flat.Header.Set("CONTENT", "OPEN-LOOP PSF", "")

	f := NewFile(cube, flat)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.Zero(t, buf.Len()%blockSize, "output must be block aligned")

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())

	// primary frame is header-only
	assert.Empty(t, got.HDUs[0].Shape)
	assert.Empty(t, got.HDUs[0].Data)

	gotCube := got.HDUs[1]
	assert.Equal(t, []int{2, 4, 4}, gotCube.Shape)
	assert.Equal(t, cube.Data, gotCube.Data)
	content, ok := gotCube.Header.String("CONTENT")
	require.True(t, ok)
	assert.Equal(t, "PSF CUBE", content)
	x1, ok := gotCube.Header.Float("CCX0001")
	require.True(t, ok)
	assert.Equal(t, 5.0, x1)

	gotFlat := got.HDUs[2]
	assert.Equal(t, []int{4, 4}, gotFlat.Shape)
	assert.Equal(t, flat.Data, gotFlat.Data)
}

func TestFileRoundTripBitpix(t *testing.T) {
	tests := []struct {
		bitpix int
		data   []float64
	}{
		{8, []float64{0, 1, 127, 255}},
		{16, []float64{-3, 0, 1, 300}},
		{32, []float64{-70000, 0, 1, 70000}},
		{64, []float64{-1 << 40, 0, 1, 1 << 40}},
		{-32, []float64{0, 0.5, -1.25, 1024}},
		{-64, []float64{0, 0.1, -2.5e-7, 1e12}},
	}
	for _, tt := range tests {
		hdu := NewImage([]int{4}, tt.data)
		hdu.Bitpix = tt.bitpix

		var buf bytes.Buffer
		require.NoError(t, NewFile(hdu).Write(&buf))
		got, err := Read(&buf)
		require.NoError(t, err, "bitpix %d", tt.bitpix)
		require.Equal(t, 2, got.Len())
		assert.Equal(t, tt.bitpix, got.HDUs[1].Bitpix)
		assert.Equal(t, tt.data, got.HDUs[1].Data, "bitpix %d", tt.bitpix)
	}
}

func TestReadAppliesScaling(t *testing.T) {
	// hand-build a minimal primary HDU with BSCALE/BZERO
	var sb strings.Builder
	sb.WriteString(formatCard(Card{Keyword: "SIMPLE", Value: true}))
	sb.WriteString(formatCard(Card{Keyword: "BITPIX", Value: int64(16)}))
	sb.WriteString(formatCard(Card{Keyword: "NAXIS", Value: int64(1)}))
	sb.WriteString(formatCard(Card{Keyword: "NAXIS1", Value: int64(2)}))
	sb.WriteString(formatCard(Card{Keyword: "BSCALE", Value: 2.0}))
	sb.WriteString(formatCard(Card{Keyword: "BZERO", Value: 10.0}))
	sb.WriteString(pad80("END"))
	header := sb.String()
	header += strings.Repeat(" ", blockSize-len(header))

	data := make([]byte, blockSize)
	data[1] = 1 // int16 value 1
	data[3] = 2 // int16 value 2

	got, err := Read(strings.NewReader(header + string(data)))
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 14}, got.HDUs[0].Data)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)

	garbage := strings.Repeat("x", blockSize)
	_, err = Read(strings.NewReader(garbage))
	assert.ErrorContains(t, err, "SIMPLE")
}

func TestAtAndPlane(t *testing.T) {
	hdu := NewImage([]int{2, 3, 4}, makeRamp(24))

	assert.Equal(t, 0.0, hdu.At(0, 0, 0))
	assert.Equal(t, hdu.Data[1*12+2*4+3], hdu.At(1, 2, 3))

	plane, err := hdu.Plane(1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, plane.Shape)
	assert.Equal(t, hdu.Data[12:24], plane.Data)

	_, err = hdu.Plane(2)
	assert.Error(t, err)

	flat := NewImage([]int{4}, makeRamp(4))
	_, err = flat.Plane(0)
	assert.Error(t, err)
}

func TestNewImagePanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() { NewImage([]int{2, 2}, makeRamp(3)) })
}
