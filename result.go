package tiptop

import (
	"fmt"
	"strings"

	"github.com/psfkit/tiptop/fits"
)

// Header card families carrying per-position metadata on PSF cube frames.
// Indices are zero-padded to four digits; scanning stops at the first
// missing index, bounded to guarantee termination on malformed headers.
const (
	cardCoordX = "CCX"  // x coordinate, arcsec
	cardCoordY = "CCY"  // y coordinate, arcsec
	cardStrehl = "SR"   // Strehl ratio
	cardFWHM   = "FWHM" // full width at half maximum, milliarcseconds

	contentCard = "CONTENT"

	maxIndexedCards = 10000
)

// Result is a read-only classification of the frames in a decoded
// simulation result. Classification happens once at construction; the
// Result never mutates afterwards, so concurrent reads are safe.
//
// Two container layouts exist. The current service tags each frame with a
// CONTENT card ("PSF CUBE", "OPEN-LOOP PSF", "DIFFRACTION LIMITED PSF",
// profile frames) and attaches coordinates and quality metrics as indexed
// header cards. The legacy layout has three untagged frames and is
// classified by shape: a cube with square trailing dimensions holds PSFs,
// a 2xN image holds coordinates.
type Result struct {
	file *fits.File

	cubes       []int // HDU index per wavelength channel, in order
	openLoop    int
	diffraction int
	profiles    int
	coordTable  int

	x, y   []float64
	strehl []float64
	fwhm   []float64
}

// NewResult classifies the frames of a decoded container.
func NewResult(f *fits.File) *Result {
	r := &Result{
		file:        f,
		openLoop:    -1,
		diffraction: -1,
		profiles:    -1,
		coordTable:  -1,
	}
	r.classify()
	r.readPositionCards()
	return r
}

func (r *Result) classify() {
	for i, hdu := range r.file.HDUs {
		if i == 0 {
			continue // header-only primary frame
		}
		if marker, ok := hdu.Header.String(contentCard); ok {
			switch m := strings.ToUpper(marker); {
			case strings.Contains(m, "PSF CUBE"):
				r.cubes = append(r.cubes, i)
			case strings.Contains(m, "OPEN-LOOP"):
				r.openLoop = i
			case strings.Contains(m, "DIFFRACTION"):
				r.diffraction = i
			case strings.Contains(m, "PROFILE"):
				r.profiles = i
			}
			continue
		}
		// legacy untagged layout
		if len(hdu.Data) == 0 {
			continue
		}
		if hdu.NDim() == 2 && hdu.Shape[0] == 2 {
			r.coordTable = i
		} else if hdu.NDim() == 3 && hdu.Shape[1] == hdu.Shape[2] {
			r.cubes = append(r.cubes, i)
		} else if hdu.NDim() == 2 {
			r.cubes = append(r.cubes, i) // single-position PSF image
		}
	}
}

// readPositionCards loads the indexed card families from the first PSF
// cube frame. The legacy layout carries no such cards; coordinates then
// come from the coordinate table instead.
func (r *Result) readPositionCards() {
	if len(r.cubes) == 0 {
		r.readCoordTable()
		return
	}
	header := &r.file.HDUs[r.cubes[0]].Header
	r.x = indexedCards(header, cardCoordX)
	r.y = indexedCards(header, cardCoordY)
	r.strehl = indexedCards(header, cardStrehl)
	r.fwhm = indexedCards(header, cardFWHM)
	if len(r.x) == 0 {
		r.readCoordTable()
	}
}

func (r *Result) readCoordTable() {
	if r.coordTable < 0 {
		return
	}
	hdu := r.file.HDUs[r.coordTable]
	n := hdu.Shape[1]
	r.x = make([]float64, n)
	r.y = make([]float64, n)
	for i := 0; i < n; i++ {
		r.x[i] = hdu.At(0, i)
		r.y[i] = hdu.At(1, i)
	}
}

func indexedCards(h *fits.Header, prefix string) []float64 {
	var vals []float64
	for i := 0; i < maxIndexedCards; i++ {
		v, ok := h.Float(fmt.Sprintf("%s%04d", prefix, i))
		if !ok {
			break
		}
		vals = append(vals, v)
	}
	return vals
}

// File returns the underlying container.
func (r *Result) File() *fits.File { return r.file }

// NWavelengths returns the number of PSF cube frames (wavelength channels).
func (r *Result) NWavelengths() int { return len(r.cubes) }

// NPositions returns the number of simulated source positions, zero when
// the response carried no position metadata.
func (r *Result) NPositions() int { return len(r.x) }

// PSFCube returns the cube frame for the given wavelength channel.
func (r *Result) PSFCube(wavelengthIndex int) (*fits.HDU, error) {
	if wavelengthIndex < 0 || wavelengthIndex >= len(r.cubes) {
		return nil, &IndexOutOfRangeError{Index: wavelengthIndex, Length: len(r.cubes)}
	}
	return r.file.HDUs[r.cubes[wavelengthIndex]], nil
}

// PSF returns the first wavelength channel's cube frame.
func (r *Result) PSF() (*fits.HDU, error) {
	if len(r.cubes) == 0 {
		return nil, &RoleNotFoundError{Role: "PSF data"}
	}
	return r.file.HDUs[r.cubes[0]], nil
}

// OpenLoopPSF returns the open-loop PSF frame.
func (r *Result) OpenLoopPSF() (*fits.HDU, error) {
	if r.openLoop < 0 {
		return nil, &RoleNotFoundError{Role: "open-loop PSF"}
	}
	return r.file.HDUs[r.openLoop], nil
}

// DiffractionPSF returns the diffraction-limited PSF frame.
func (r *Result) DiffractionPSF() (*fits.HDU, error) {
	if r.diffraction < 0 {
		return nil, &RoleNotFoundError{Role: "diffraction-limited PSF"}
	}
	return r.file.HDUs[r.diffraction], nil
}

// Profiles returns the radial-profiles frame.
func (r *Result) Profiles() (*fits.HDU, error) {
	if r.profiles < 0 {
		return nil, &RoleNotFoundError{Role: "profile table"}
	}
	return r.file.HDUs[r.profiles], nil
}

// X returns per-position x coordinates in arcseconds.
func (r *Result) X() ([]float64, error) {
	if len(r.x) == 0 {
		return nil, &RoleNotFoundError{Role: "coordinate data"}
	}
	return r.x, nil
}

// Y returns per-position y coordinates in arcseconds.
func (r *Result) Y() ([]float64, error) {
	if len(r.y) == 0 {
		return nil, &RoleNotFoundError{Role: "coordinate data"}
	}
	return r.y, nil
}

// Strehl returns the per-position Strehl ratios.
func (r *Result) Strehl() ([]float64, error) {
	if len(r.strehl) == 0 {
		return nil, &RoleNotFoundError{Role: "Strehl ratios"}
	}
	return r.strehl, nil
}

// FWHM returns the per-position PSF widths in milliarcseconds.
func (r *Result) FWHM() ([]float64, error) {
	if len(r.fwhm) == 0 {
		return nil, &RoleNotFoundError{Role: "FWHM values"}
	}
	return r.fwhm, nil
}

// NearestPSF returns the 2D PSF image closest to (x, y) arcseconds in the
// given wavelength channel. When the cube has no position axis the image
// is returned unchanged.
func (r *Result) NearestPSF(x, y float64, wavelengthIndex int) (*fits.HDU, error) {
	cube, err := r.PSFCube(wavelengthIndex)
	if err != nil {
		return nil, err
	}
	if cube.NDim() == 2 {
		return cube, nil
	}
	xs, err := r.X()
	if err != nil {
		return nil, err
	}
	ys, err := r.Y()
	if err != nil {
		return nil, err
	}

	best := 0
	bestDist := (x-xs[0])*(x-xs[0]) + (y-ys[0])*(y-ys[0])
	for i := 1; i < len(xs) && i < len(ys); i++ {
		d := (x-xs[i])*(x-xs[i]) + (y-ys[i])*(y-ys[i])
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best >= cube.Shape[0] {
		return nil, fmt.Errorf("tiptop: position %d outside cube of %d positions", best, cube.Shape[0])
	}
	return cube.Plane(best)
}

// String summarizes the classification, one line per frame.
func (r *Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Result: %d wavelength(s), %d position(s), %d frames",
		len(r.cubes), len(r.x), len(r.file.HDUs))
	return sb.String()
}
