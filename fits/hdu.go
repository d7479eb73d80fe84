package fits

import "fmt"

const (
	blockSize     = 2880
	cardLength    = 80
	cardsPerBlock = blockSize / cardLength
)

// HDU is one frame of a File: a header plus an optional N-dimensional
// numeric array. Shape lists axes slowest-first (NAXISn down to NAXIS1), so
// a cube of P positions of HxW images has Shape {P, H, W} and Data laid out
// row-major under that shape. An HDU with an empty Shape carries no data.
type HDU struct {
	Header Header

	// Bitpix selects the on-disk element type when encoding: 8, 16, 32,
	// 64, -32 or -64. Zero means -64. Decoding always widens to float64.
	Bitpix int

	Shape []int
	Data  []float64
}

// NewImage returns an HDU with the given shape and data. It panics when
// the data length does not match the shape, which is always a programming
// error in the caller.
func NewImage(shape []int, data []float64) *HDU {
	if len(data) != elementCount(shape) {
		panic(fmt.Sprintf("fits: data length %d does not match shape %v", len(data), shape))
	}
	return &HDU{Shape: shape, Data: data}
}

// NDim returns the number of axes.
func (h *HDU) NDim() int { return len(h.Shape) }

// At returns the element at the given indices (slowest axis first).
func (h *HDU) At(idx ...int) float64 {
	if len(idx) != len(h.Shape) {
		panic(fmt.Sprintf("fits: At called with %d indices on %d-dimensional data", len(idx), len(h.Shape)))
	}
	offset := 0
	for d, i := range idx {
		if i < 0 || i >= h.Shape[d] {
			panic(fmt.Sprintf("fits: index %d out of range for axis %d (size %d)", i, d, h.Shape[d]))
		}
		offset = offset*h.Shape[d] + i
	}
	return h.Data[offset]
}

// Plane returns the i-th sub-array along the first axis as a new HDU with
// one fewer dimension. The data slice is shared with the parent.
func (h *HDU) Plane(i int) (*HDU, error) {
	if len(h.Shape) < 2 {
		return nil, fmt.Errorf("fits: cannot slice %d-dimensional data", len(h.Shape))
	}
	if i < 0 || i >= h.Shape[0] {
		return nil, fmt.Errorf("fits: plane %d out of range (size %d)", i, h.Shape[0])
	}
	stride := elementCount(h.Shape[1:])
	return &HDU{
		Bitpix: h.Bitpix,
		Shape:  append([]int(nil), h.Shape[1:]...),
		Data:   h.Data[i*stride : (i+1)*stride],
	}, nil
}

func elementCount(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if len(shape) == 0 {
		return 0
	}
	return n
}

// File is an ordered sequence of HDUs. The first HDU is the primary one;
// results from the simulation service use a header-only primary HDU.
type File struct {
	HDUs []*HDU
}

// NewFile returns a File with a header-only primary HDU followed by the
// given extensions.
func NewFile(extensions ...*HDU) *File {
	hdus := make([]*HDU, 0, len(extensions)+1)
	hdus = append(hdus, &HDU{})
	hdus = append(hdus, extensions...)
	return &File{HDUs: hdus}
}

// Len returns the number of HDUs.
func (f *File) Len() int { return len(f.HDUs) }
