package fits

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Write encodes the file to w. The primary HDU gets SIMPLE/EXTEND cards,
// every further HDU is written as an IMAGE extension.
func (f *File) Write(w io.Writer) error {
	if len(f.HDUs) == 0 {
		return fmt.Errorf("fits: file has no HDUs")
	}
	bw := bufio.NewWriter(w)
	for i, hdu := range f.HDUs {
		if err := writeHDU(bw, hdu, i == 0, len(f.HDUs) > 1); err != nil {
			return fmt.Errorf("fits: HDU %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile encodes the file to the given path.
func (f *File) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeHDU(w io.Writer, hdu *HDU, primary, hasExtensions bool) error {
	bitpix := hdu.Bitpix
	if bitpix == 0 {
		bitpix = -64
	}
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	if len(hdu.Data) != 0 && len(hdu.Data) != elementCount(hdu.Shape) {
		return fmt.Errorf("data length %d does not match shape %v", len(hdu.Data), hdu.Shape)
	}

	var cards []string
	if primary {
		cards = append(cards, formatCard(Card{Keyword: "SIMPLE", Value: true, Comment: "conforms to FITS standard"}))
	} else {
		cards = append(cards, formatCard(Card{Keyword: "XTENSION", Value: "IMAGE", Comment: "image extension"}))
	}
	cards = append(cards, formatCard(Card{Keyword: "BITPIX", Value: int64(bitpix)}))
	cards = append(cards, formatCard(Card{Keyword: "NAXIS", Value: int64(len(hdu.Shape))}))
	// NAXIS1 is the fastest axis, the last element of Shape
	for i := len(hdu.Shape) - 1; i >= 0; i-- {
		n := len(hdu.Shape) - i
		cards = append(cards, formatCard(Card{Keyword: fmt.Sprintf("NAXIS%d", n), Value: int64(hdu.Shape[i])}))
	}
	if primary {
		if hasExtensions {
			cards = append(cards, formatCard(Card{Keyword: "EXTEND", Value: true}))
		}
	} else {
		cards = append(cards, formatCard(Card{Keyword: "PCOUNT", Value: int64(0)}))
		cards = append(cards, formatCard(Card{Keyword: "GCOUNT", Value: int64(1)}))
	}
	for _, c := range hdu.Header.Cards() {
		cards = append(cards, formatCard(c))
	}
	cards = append(cards, pad80("END"))

	for len(cards)%cardsPerBlock != 0 {
		cards = append(cards, pad80(""))
	}
	for _, c := range cards {
		if _, err := io.WriteString(w, c); err != nil {
			return err
		}
	}

	if len(hdu.Shape) == 0 {
		return nil
	}
	raw := encodeData(hdu.Data, bitpix)
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if pad := (blockSize - len(raw)%blockSize) % blockSize; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func encodeData(data []float64, bitpix int) []byte {
	elemSize := bitpix / 8
	if elemSize < 0 {
		elemSize = -elemSize
	}
	raw := make([]byte, len(data)*elemSize)
	for i, v := range data {
		switch bitpix {
		case 8:
			raw[i] = byte(v)
		case 16:
			binary.BigEndian.PutUint16(raw[i*2:], uint16(int16(v)))
		case 32:
			binary.BigEndian.PutUint32(raw[i*4:], uint32(int32(v)))
		case 64:
			binary.BigEndian.PutUint64(raw[i*8:], uint64(int64(v)))
		case -32:
			binary.BigEndian.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
		case -64:
			binary.BigEndian.PutUint64(raw[i*8:], math.Float64bits(v))
		}
	}
	return raw
}
