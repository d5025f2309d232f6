package view

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	eof        rune = -1
	leftDelim       = "${"
	rightDelim      = "}"
)

// interpolation is a string with ${}-style placeholders compiled into a list of
// literal and expression parts.
type interpolation struct {
	parts []interpolPart
}

type interpolPart struct {
	text string      // literal text, used when prog is nil
	src  string      // expression source
	prog *vm.Program // compiled expression
}

// parseInterpolation compiles s. If s contains no placeholders it returns
// (nil, nil).
func parseInterpolation(s string) (*interpolation, error) {
	if !strings.Contains(s, leftDelim) {
		return nil, nil
	}

	l := &lexer{input: s}
	for state := lexText; state != nil; {
		state = state(l)
	}

	in := &interpolation{parts: make([]interpolPart, 0, len(l.items))}
	for _, it := range l.items {
		switch it.typ {
		case itemError:
			return nil, fmt.Errorf("%s in %q", it.val, s)
		case itemText:
			in.parts = append(in.parts, interpolPart{text: it.val})
		case itemExpr:
			src := strings.TrimSpace(it.val)
			if src == "" {
				return nil, fmt.Errorf("empty expression in %q", s)
			}
			prog, err := expr.Compile(src)
			if err != nil {
				return nil, fmt.Errorf("compile %q: %w", src, err)
			}
			in.parts = append(in.parts, interpolPart{src: src, prog: prog})
		}
	}
	return in, nil
}

// eval evaluates every expression against env and concatenates the results.
func (in *interpolation) eval(env map[string]any) (string, error) {
	var b strings.Builder
	for _, p := range in.parts {
		if p.prog == nil {
			b.WriteString(p.text)
			continue
		}
		v, err := expr.Run(p.prog, env)
		if err != nil {
			return "", fmt.Errorf("eval %q: %w", p.src, err)
		}
		b.WriteString(stringify(v))
	}
	return b.String(), nil
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// The lexer follows https://go.dev/talks/2011/lex.slide

type itemType int

const (
	itemError itemType = iota
	itemEOF
	itemText
	itemExpr
)

type item struct {
	typ itemType
	val string
}

// stateFn represents the state of the scanner as a function that returns the
// next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the scanner.
type lexer struct {
	input       string // the string being scanned
	start       int    // start position of the pending item
	pos         int    // current position in the input
	width       int    // width of last rune read from input
	bracesDepth int    // nesting depth of {} inside an expression
	items       []item
}

func (l *lexer) emit(t itemType) {
	l.items = append(l.items, item{t, l.input[l.start:l.pos]})
	l.start = l.pos
}

func (l *lexer) errorf(format string, args ...any) stateFn {
	l.items = append(l.items, item{itemError, fmt.Sprintf(format, args...)})
	return nil
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) ignore() {
	l.start = l.pos
}

func (l *lexer) atRightDelim() bool {
	return l.bracesDepth == 0 && strings.HasPrefix(l.input[l.pos:], rightDelim)
}

// scanString consumes a quoted string literal. It reports false if the
// literal is not terminated.
func (l *lexer) scanString(quote rune) bool {
	for {
		switch l.next() {
		case quote:
			return true
		case eof, '\n':
			return false
		case '\\':
			l.next()
		}
	}
}

func lexText(l *lexer) stateFn {
	if x := strings.Index(l.input[l.pos:], leftDelim); x >= 0 {
		if x > 0 {
			l.pos += x
			l.emit(itemText)
		}
		return lexLeftDelim
	}
	l.pos = len(l.input)
	if l.pos > l.start {
		l.emit(itemText)
	}
	l.emit(itemEOF)
	return nil
}

func lexLeftDelim(l *lexer) stateFn {
	l.pos += len(leftDelim)
	l.ignore()
	return lexExpr
}

func lexRightDelim(l *lexer) stateFn {
	l.pos += len(rightDelim)
	l.ignore()
	return lexText
}

func lexExpr(l *lexer) stateFn {
	for {
		if l.atRightDelim() {
			l.emit(itemExpr)
			return lexRightDelim
		}
		switch r := l.next(); r {
		case eof:
			return l.errorf("unclosed placeholder")
		case '\'', '"', '`':
			if !l.scanString(r) {
				return l.errorf("unterminated string")
			}
		case '{':
			l.bracesDepth++
		case '}':
			l.bracesDepth--
		}
	}
}
