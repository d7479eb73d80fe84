// Package fits implements the minimal subset of the FITS binary container
// format needed to decode simulation results: image HDUs with headers of
// keyword/value cards and N-dimensional numeric payloads. Files are always
// fully materialized in memory; a decoded File holds no reference to the
// reader it came from.
package fits

import (
	"fmt"
	"strconv"
	"strings"
)

// Card is a single header entry. Value is nil, bool, int64, float64 or
// string depending on the card's syntax.
type Card struct {
	Keyword string
	Value   any
	Comment string
}

// Header is an ordered collection of cards. Structural cards (SIMPLE,
// XTENSION, BITPIX, NAXIS*, PCOUNT, GCOUNT, EXTEND, BSCALE, BZERO, END) are
// consumed during decoding and re-synthesized during encoding; they never
// appear here.
type Header struct {
	cards []Card
	index map[string]int
}

// Cards returns the cards in order. The slice is shared; do not mutate.
func (h *Header) Cards() []Card { return h.cards }

// Len returns the number of cards.
func (h *Header) Len() int { return len(h.cards) }

// Has reports whether a card with the given keyword exists.
func (h *Header) Has(keyword string) bool {
	_, ok := h.index[keyword]
	return ok
}

// Get returns the card with the given keyword.
func (h *Header) Get(keyword string) (Card, bool) {
	i, ok := h.index[keyword]
	if !ok {
		return Card{}, false
	}
	return h.cards[i], true
}

// Set stores a card, replacing any existing card with the same keyword.
func (h *Header) Set(keyword string, value any, comment string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	if i, ok := h.index[keyword]; ok {
		h.cards[i].Value = value
		h.cards[i].Comment = comment
		return
	}
	h.index[keyword] = len(h.cards)
	h.cards = append(h.cards, Card{Keyword: keyword, Value: value, Comment: comment})
}

// String returns the card's string value. ok is false when the card is
// absent or not a string.
func (h *Header) String(keyword string) (string, bool) {
	c, ok := h.Get(keyword)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(string)
	return s, ok
}

// Int returns the card's integer value, converting from float when needed.
func (h *Header) Int(keyword string) (int64, bool) {
	c, ok := h.Get(keyword)
	if !ok {
		return 0, false
	}
	switch v := c.Value.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// Float returns the card's numeric value as float64.
func (h *Header) Float(keyword string) (float64, bool) {
	c, ok := h.Get(keyword)
	if !ok {
		return 0, false
	}
	switch v := c.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Bool returns the card's logical value.
func (h *Header) Bool(keyword string) (bool, bool) {
	c, ok := h.Get(keyword)
	if !ok {
		return false, false
	}
	b, ok := c.Value.(bool)
	return b, ok
}

// parseCard decodes one 80-byte header card. END cards return end=true.
func parseCard(raw string) (c Card, end bool) {
	keyword := strings.TrimRight(raw[:8], " ")
	if keyword == "END" {
		return Card{}, true
	}
	c.Keyword = keyword

	if raw[8:10] != "= " || keyword == "COMMENT" || keyword == "HISTORY" || keyword == "" {
		// commentary card, keep the text
		c.Comment = strings.TrimSpace(raw[8:])
		return c, false
	}

	rest := raw[10:]
	trimmed := strings.TrimLeft(rest, " ")
	if strings.HasPrefix(trimmed, "'") {
		// quoted string, '' is an escaped quote
		var sb strings.Builder
		i := 1
		for i < len(trimmed) {
			if trimmed[i] == '\'' {
				if i+1 < len(trimmed) && trimmed[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				i++
				break
			}
			sb.WriteByte(trimmed[i])
			i++
		}
		c.Value = strings.TrimRight(sb.String(), " ")
		if j := strings.IndexByte(trimmed[i:], '/'); j >= 0 {
			c.Comment = strings.TrimSpace(trimmed[i+j+1:])
		}
		return c, false
	}

	valueText := trimmed
	if j := strings.IndexByte(trimmed, '/'); j >= 0 {
		valueText = trimmed[:j]
		c.Comment = strings.TrimSpace(trimmed[j+1:])
	}
	valueText = strings.TrimSpace(valueText)

	switch valueText {
	case "":
		return c, false
	case "T":
		c.Value = true
		return c, false
	case "F":
		c.Value = false
		return c, false
	}
	if i, err := strconv.ParseInt(valueText, 10, 64); err == nil {
		c.Value = i
		return c, false
	}
	// Fortran-style exponents use D instead of E.
	if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(valueText, "D", "E"), "d", "e"), 64); err == nil {
		c.Value = f
		return c, false
	}
	c.Value = valueText
	return c, false
}

// formatCard encodes a card as an 80-byte record.
func formatCard(c Card) string {
	if c.Value == nil && (c.Keyword == "COMMENT" || c.Keyword == "HISTORY" || c.Keyword == "") {
		return pad80(fmt.Sprintf("%-8s%s", c.Keyword, c.Comment))
	}

	var valueText string
	switch v := c.Value.(type) {
	case bool:
		if v {
			valueText = fmt.Sprintf("%20s", "T")
		} else {
			valueText = fmt.Sprintf("%20s", "F")
		}
	case int64:
		valueText = fmt.Sprintf("%20d", v)
	case int:
		valueText = fmt.Sprintf("%20d", v)
	case float64:
		valueText = fmt.Sprintf("%20s", strconv.FormatFloat(v, 'G', -1, 64))
	case string:
		valueText = fmt.Sprintf("'%-8s'", strings.ReplaceAll(v, "'", "''"))
	default:
		valueText = fmt.Sprintf("%20v", v)
	}

	line := fmt.Sprintf("%-8s= %s", c.Keyword, valueText)
	if c.Comment != "" {
		line += " / " + c.Comment
	}
	return pad80(line)
}

func pad80(s string) string {
	if len(s) >= cardLength {
		return s[:cardLength]
	}
	return s + strings.Repeat(" ", cardLength-len(s))
}
