package fits

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Read decodes an entire file from r, materializing every HDU's data into
// freshly allocated memory. r may be a transient buffer; the returned File
// keeps no reference to it.
func Read(r io.Reader) (*File, error) {
	f := &File{}
	for {
		hdu, err := readHDU(r, len(f.HDUs) == 0)
		if err == io.EOF {
			if len(f.HDUs) == 0 {
				return nil, fmt.Errorf("fits: empty input")
			}
			return f, nil
		}
		if err != nil {
			return nil, fmt.Errorf("fits: HDU %d: %w", len(f.HDUs), err)
		}
		f.HDUs = append(f.HDUs, hdu)
	}
}

// ReadBytes decodes a file from an in-memory buffer.
func ReadBytes(data []byte) (*File, error) {
	return Read(bytes.NewReader(data))
}

// readHDU reads one header-plus-data unit. Returns io.EOF when the reader
// is exhausted exactly on an HDU boundary.
func readHDU(r io.Reader, primary bool) (*HDU, error) {
	hdu := &HDU{}

	bitpix := 0
	naxis := -1
	var axes []int
	bscale := 1.0
	bzero := 0.0

	block := make([]byte, blockSize)
	first := true
	done := false

	for !done {
		if _, err := io.ReadFull(r, block); err != nil {
			if first && err == io.EOF {
				return nil, io.EOF
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("reading header: %w", err)
		}

		if first {
			keyword := string(bytes.TrimRight(block[:8], " "))
			if primary && keyword != "SIMPLE" {
				return nil, fmt.Errorf("primary HDU does not start with SIMPLE")
			}
			if !primary && keyword != "XTENSION" {
				return nil, fmt.Errorf("extension HDU does not start with XTENSION")
			}
			first = false
		}

		for i := 0; i < cardsPerBlock; i++ {
			card, end := parseCard(string(block[i*cardLength : (i+1)*cardLength]))
			if end {
				done = true
				break
			}
			switch {
			case card.Keyword == "SIMPLE" || card.Keyword == "XTENSION" ||
				card.Keyword == "EXTEND" || card.Keyword == "PCOUNT" || card.Keyword == "GCOUNT":
				// structural, re-synthesized on write
			case card.Keyword == "BITPIX":
				if v, ok := card.Value.(int64); ok {
					bitpix = int(v)
				}
			case card.Keyword == "NAXIS":
				if v, ok := card.Value.(int64); ok {
					naxis = int(v)
					axes = make([]int, naxis)
				}
			case len(card.Keyword) > 5 && card.Keyword[:5] == "NAXIS":
				var n int
				if _, err := fmt.Sscanf(card.Keyword[5:], "%d", &n); err == nil && n >= 1 && n <= len(axes) {
					if v, ok := card.Value.(int64); ok {
						axes[n-1] = int(v)
					}
				}
			case card.Keyword == "BSCALE":
				if v, ok := toFloat(card.Value); ok {
					bscale = v
				}
			case card.Keyword == "BZERO":
				if v, ok := toFloat(card.Value); ok {
					bzero = v
				}
			default:
				if card.Keyword != "" || card.Comment != "" {
					hdu.Header.Set(card.Keyword, card.Value, card.Comment)
				}
			}
		}
	}

	if naxis < 0 {
		return nil, fmt.Errorf("missing NAXIS card")
	}
	hdu.Bitpix = bitpix

	if naxis == 0 {
		return hdu, nil
	}

	// axes are NAXIS1 (fastest) .. NAXISn; Shape wants slowest first
	hdu.Shape = make([]int, naxis)
	nelems := 1
	for i, size := range axes {
		if size < 0 {
			return nil, fmt.Errorf("negative NAXIS%d", i+1)
		}
		hdu.Shape[naxis-1-i] = size
		nelems *= size
	}

	elemSize := bitpix / 8
	if elemSize < 0 {
		elemSize = -elemSize
	}
	if elemSize == 0 {
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	dataBytes := nelems * elemSize
	padded := (dataBytes + blockSize - 1) / blockSize * blockSize

	raw := make([]byte, padded)
	if _, err := io.ReadFull(r, raw); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading data: %w", err)
	}

	data, err := decodeData(raw[:dataBytes], bitpix, nelems)
	if err != nil {
		return nil, err
	}
	if bscale != 1 || bzero != 0 {
		for i := range data {
			data[i] = bzero + bscale*data[i]
		}
	}
	hdu.Data = data
	return hdu, nil
}

func decodeData(raw []byte, bitpix, nelems int) ([]float64, error) {
	data := make([]float64, nelems)
	switch bitpix {
	case 8:
		for i := 0; i < nelems; i++ {
			data[i] = float64(raw[i])
		}
	case 16:
		for i := 0; i < nelems; i++ {
			data[i] = float64(int16(binary.BigEndian.Uint16(raw[i*2:])))
		}
	case 32:
		for i := 0; i < nelems; i++ {
			data[i] = float64(int32(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case 64:
		for i := 0; i < nelems; i++ {
			data[i] = float64(int64(binary.BigEndian.Uint64(raw[i*8:])))
		}
	case -32:
		for i := 0; i < nelems; i++ {
			data[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case -64:
		for i := 0; i < nelems; i++ {
			data[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	return data, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
