package tiptop

import (
	"regexp"
	"strconv"
	"strings"
)

// sciIntRe matches scientific notation without a decimal point (500e-9).
var sciIntRe = regexp.MustCompile(`^[+-]?\d+[eE][+-]?\d+$`)

// parseValue turns the raw text of a single value into a Value. The grammar
// is tried in priority order; nothing here ever fails, unrecognized syntax
// degrades to a string.
func parseValue(raw string) Value {
	// Quoted string: strip the outer quotes, no escape processing.
	if len(raw) >= 2 {
		if (raw[0] == '\'' && raw[len(raw)-1] == '\'') ||
			(raw[0] == '"' && raw[len(raw)-1] == '"') {
			return String(raw[1 : len(raw)-1])
		}
	}

	// Strict literal: numbers, True/False/None, nested lists and tuples.
	if v, ok := evalLiteral(raw); ok {
		return v
	}

	// Bare keyword fallbacks for inputs the literal evaluator rejected.
	switch raw {
	case "None":
		return Null()
	case "True":
		return Bool(true)
	case "False":
		return Bool(false)
	}

	// Scientific notation without a decimal point (500e-9).
	if sciIntRe.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Float(f)
		}
	}

	// Bracketed text the literal evaluator could not handle, typically a
	// list with scientific-notation elements. Split on top-level commas
	// and recurse.
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		return parseBracketList(raw)
	}

	return String(raw)
}

// parseBracketList splits the inner text of a [...] value on commas at
// bracket depth zero and parses each element with the full grammar.
func parseBracketList(raw string) Value {
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return List()
	}

	var elems []Value
	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				elems = append(elems, parseValue(strings.TrimSpace(inner[start:i])))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(inner[start:]); last != "" {
		elems = append(elems, parseValue(last))
	}
	return List(elems...)
}

// evalLiteral parses raw as a self-contained literal: None, True, False,
// integers, floats, quoted strings, and arbitrarily nested lists or tuples
// of those. Returns ok=false when the text is not a single complete literal.
func evalLiteral(raw string) (Value, bool) {
	p := literalParser{input: raw}
	p.skipSpaces()
	v, ok := p.parse()
	if !ok {
		return Value{}, false
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return Value{}, false
	}
	return v, true
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) parse() (Value, bool) {
	if p.pos >= len(p.input) {
		return Value{}, false
	}
	switch c := p.input[p.pos]; {
	case c == '[':
		return p.parseSequence('[', ']')
	case c == '(':
		return p.parseSequence('(', ')')
	case c == '\'' || c == '"':
		return p.parseQuoted(c)
	default:
		return p.parseScalar()
	}
}

func (p *literalParser) parseSequence(open, close byte) (Value, bool) {
	p.pos++ // consume opening delimiter
	var elems []Value
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return Value{}, false
		}
		if p.input[p.pos] == close {
			p.pos++
			return List(elems...), true
		}
		elem, ok := p.parse()
		if !ok {
			return Value{}, false
		}
		elems = append(elems, elem)
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return Value{}, false
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case close:
			// handled at the top of the loop
		default:
			return Value{}, false
		}
	}
}

func (p *literalParser) parseQuoted(quote byte) (Value, bool) {
	end := strings.IndexByte(p.input[p.pos+1:], quote)
	if end < 0 {
		return Value{}, false
	}
	s := p.input[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return String(s), true
}

// scalar terminators within a sequence context
const scalarEnd = ",])"

func (p *literalParser) parseScalar() (Value, bool) {
	start := p.pos
	for p.pos < len(p.input) && !strings.ContainsRune(scalarEnd, rune(p.input[p.pos])) {
		p.pos++
	}
	tok := strings.TrimSpace(p.input[start:p.pos])
	switch tok {
	case "":
		return Value{}, false
	case "None":
		return Null(), true
	case "True":
		return Bool(true), true
	case "False":
		return Bool(false), true
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Int(i), true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		// ParseFloat accepts "Inf" and "NaN" spellings that are not
		// literals in the dialect.
		lower := strings.ToLower(tok)
		if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
			return Value{}, false
		}
		return Float(f), true
	}
	return Value{}, false
}
