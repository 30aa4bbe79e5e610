// SPDX-License-Identifier: BSD-3-Clause

package bork

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ellabellla/lmklib-sub000/pkg/keycode"
)

type nestKind int

const (
	nestIf nestKind = iota
	nestWhile
	nestPipe
	nestFunction
)

// borkSpecials maps the script's special-key names onto the canonical
// key names of the keycode tables, longest-match first.
var borkSpecials = map[string]string{
	"UPARROW":     "UpArrow",
	"DOWNARROW":   "DownArrow",
	"LEFTARROW":   "LeftArrow",
	"RIGHTARROW":  "RightArrow",
	"UP":          "UpArrow",
	"DOWN":        "DownArrow",
	"LEFT":        "LeftArrow",
	"RIGHT":       "RightArrow",
	"PAGEUP":      "PageUp",
	"PAGEDOWN":    "PageDown",
	"INSERT":      "Insert",
	"DELETE":      "Delete",
	"DEL":         "Delete",
	"CAPSLOCK":    "CapsLock",
	"NUMLOCK":     "NumLock",
	"SCROLLOCK":   "ScrollLock",
	"BACKSPACE":   "Backspace",
	"TAB":         "Tab",
	"SPACE":       "Space",
	"F1":          "F1",
	"F2":          "F2",
	"F3":          "F3",
	"F4":          "F4",
	"F5":          "F5",
	"F6":          "F6",
	"F7":          "F7",
	"F8":          "F8",
	"F9":          "F9",
	"F10":         "F10",
	"F11":         "F11",
	"F12":         "F12",
	"ENTER":       "Enter",
	"ESCAPE":      "Escape",
	"PAUSEBREAK":  "Pause",
	"PRINTSCREEN": "PrintScreen",
	"MENUAPP":     "Menu",
}

var borkModifiers = map[string]keycode.Modifier{
	"ALT":     keycode.ModLeftAlt,
	"CTL":     keycode.ModLeftCtrl,
	"CONTROL": keycode.ModLeftCtrl,
	"COMMAND": keycode.ModLeftGUI,
	"GUI":     keycode.ModLeftGUI,
	"SHIFT":   keycode.ModLeftShift,
}

// specialNames and modifierNames are the match tables ordered longest
// first so e.g. UPARROW wins over UP.
var specialNames = sortedByLength(borkSpecials)
var modifierNames = sortedByLength(borkModifiers)

func sortedByLength[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// binaryOps is the operator match table, longest first.
var binaryOps = []string{
	"<<", ">>", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "^", ">", "<", "&", "|",
}

var binaryOpKinds = map[string]OpKind{
	"+": OpAdd, "-": OpSub, "*": OpMult, "/": OpDiv, "%": OpMod, "^": OpExp,
	"==": OpEqu, "!=": OpNEq, ">": OpGre, "<": OpLes, "<=": OpEqL, ">=": OpEqG,
	"&&": OpAnd, "||": OpOr, "&": OpBAnd, "|": OpBOr, "<<": OpLeft, ">>": OpRight,
}

// Parser is the single-pass, stream-oriented script parser: a cursor
// over the source plus the nest stack and live symbol tables.
type Parser struct {
	src   string
	nest  []nestKind
	vars  map[string]DataType
	funcs map[string]funcDef
}

// NewParser creates a parser over source.
func NewParser(source string) *Parser {
	return &Parser{
		src:   source,
		vars:  make(map[string]DataType),
		funcs: make(map[string]funcDef),
	}
}

// Depth reports the nest-stack depth.
func (p *Parser) Depth() int { return len(p.nest) }

func (p *Parser) top() (nestKind, bool) {
	if len(p.nest) == 0 {
		return 0, false
	}
	return p.nest[len(p.nest)-1], true
}

// snapshotNest captures the cursor-independent parser state mutated by
// flow-control commands, for the jmp primitives.
func (p *Parser) snapshotNest() []nestKind {
	return append([]nestKind(nil), p.nest...)
}

func (p *Parser) restoreNest(nest []nestKind) { p.nest = nest }

func (p *Parser) has(pos int, prefix string) bool {
	return strings.HasPrefix(p.src[pos:], prefix)
}

// skipSpace skips whitespace before and after commands: every kind
// inside a nest, only line whitespace at the top level so literal
// spaces still type.
func (p *Parser) skipSpace(pos int) int {
	for pos < len(p.src) {
		c := p.src[pos]
		if len(p.nest) > 0 {
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				pos++
				continue
			}
		} else if c == '\n' || c == '\t' || c == '\r' {
			pos++
			continue
		}
		break
	}
	return pos
}

func (p *Parser) skipAllSpace(pos int) int {
	for pos < len(p.src) && unicode.IsSpace(rune(p.src[pos])) {
		pos++
	}
	return pos
}

// ParseCommand consumes one command starting at pos and returns it with
// the new cursor position.
func (p *Parser) ParseCommand(pos int) (Command, int, error) {
	pos = p.skipSpace(pos)
	if pos >= len(p.src) {
		if len(p.nest) == 0 {
			return Command{Kind: CmdExit}, pos, nil
		}
		return Command{}, pos, errAt(KindParse, pos, "unexpected end of script")
	}

	cmd, next, err := p.parseCommandAt(pos)
	if err != nil {
		// At the top level anything that does not parse as a command is
		// typed text; inside a nest it is a parse error. Name and type
		// errors (undefined variable or function, expected integer) are
		// returned as they are at every level.
		var berr *Error
		if len(p.nest) == 0 && (!errors.As(err, &berr) || berr.Kind == KindParse) {
			if chars, charsNext, charsErr := p.parseCharacters(pos); charsErr == nil {
				return chars, p.skipSpace(charsNext), nil
			}
		}
		return Command{}, pos, err
	}
	return cmd, p.skipSpace(next), nil
}

func (p *Parser) parseCommandAt(pos int) (Command, int, error) {
	c := p.src[pos]
	switch {
	case c == '"':
		keys, next, err := p.parseQuoted(pos)
		if err != nil {
			return Command{}, pos, err
		}
		return Command{Kind: CmdLiteral, Keys: keys}, next, nil

	case p.has(pos, "\\&"):
		led, next, err := p.parseLEDRef(pos)
		if err != nil {
			return Command{}, pos, err
		}
		return Command{Kind: CmdLED, LED: led}, next, nil

	case c == '\\':
		keys, next, err := p.parseEscapes(pos)
		if err != nil {
			return Command{}, pos, err
		}
		return Command{Kind: CmdKey, Keys: keys}, next, nil

	case p.has(pos, ";?"):
		if top, ok := p.top(); !ok || top != nestIf {
			return Command{}, pos, errAt(KindParse, pos, "else-if outside if")
		}
		expr, next, err := p.parseExpression(pos + 2)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, ";") {
			return Command{}, pos, errAt(KindParse, next, "expected ; after else-if condition")
		}
		return Command{Kind: CmdElseIf, Expr: expr}, next + 1, nil

	case c == ';':
		if top, ok := p.top(); !ok || top != nestIf {
			return Command{}, pos, errAt(KindParse, pos, "else outside if")
		}
		return Command{Kind: CmdElse}, pos + 1, nil

	case c == '>':
		top, ok := p.top()
		if !ok {
			// A bare > at the top level is a plain character.
			return p.parseCharacters(pos)
		}
		if top == nestFunction || top == nestPipe {
			return Command{}, pos, errAt(KindParse, pos, "unexpected >")
		}
		popped := top
		p.nest = p.nest[:len(p.nest)-1]
		return Command{Kind: CmdEnd, popped: popped}, pos + 1, nil

	case c == '\'':
		expr, next, err := p.parseExpression(pos + 1)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, "'") {
			return Command{}, pos, errAt(KindParse, next, "unterminated expression")
		}
		return Command{Kind: CmdExpression, Expr: expr}, next + 1, nil

	case c == '<':
		return p.parseAngle(pos)

	default:
		if len(p.nest) > 0 {
			return Command{}, pos, errAt(KindParse, pos, "expected command")
		}
		return p.parseCharacters(pos)
	}
}

// parseAngle dispatches the <...> command family.
func (p *Parser) parseAngle(pos int) (Command, int, error) {
	switch {
	case p.has(pos, "<+"):
		return p.parseFunctionDef(pos)
	case p.has(pos, "<?"):
		expr, next, err := p.parseExpression(pos + 2)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, ";") {
			return Command{}, pos, errAt(KindParse, next, "expected ; after if condition")
		}
		p.nest = append(p.nest, nestIf)
		return Command{Kind: CmdIf, Expr: expr}, next + 1, nil

	case p.has(pos, "<*'"):
		expr, next, err := p.parseExpression(pos + 3)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, "'>") {
			return Command{}, pos, errAt(KindParse, next, "unterminated sleep")
		}
		return Command{Kind: CmdSleep, Expr: expr}, next + 2, nil

	case p.has(pos, "<*"):
		expr, next, err := p.parseExpression(pos + 2)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, ";") {
			return Command{}, pos, errAt(KindParse, next, "expected ; after while condition")
		}
		p.nest = append(p.nest, nestWhile)
		return Command{Kind: CmdWhile, Expr: expr}, next + 1, nil

	case p.has(pos, "<="):
		return p.parseSet(pos)

	case p.has(pos, "<%"):
		x, next, err := p.parseExpression(pos + 2)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, ";") {
			return Command{}, pos, errAt(KindParse, next, "expected ; between move coordinates")
		}
		y, next, err := p.parseExpression(next + 1)
		if err != nil {
			return Command{}, pos, err
		}
		if !p.has(next, ">") {
			return Command{}, pos, errAt(KindParse, next, "unterminated move")
		}
		return Command{Kind: CmdMove, X: x, Y: y}, next + 1, nil

	case p.has(pos, "<|"):
		return p.parsePipe(pos)

	case p.has(pos, "<!"):
		name, args, next, err := p.parseCallComponents(pos, TypeAny)
		if err != nil {
			return Command{}, pos, err
		}
		return Command{Kind: CmdCall, Name: name, Args: args}, next, nil

	case p.has(pos, "<-"), p.has(pos, "<_"):
		release := p.has(pos, "<-")
		keys, next, err := p.parseChordKeys(pos + 2)
		if err != nil {
			return Command{}, pos, err
		}
		kind := CmdHold
		if release {
			kind = CmdRelease
		}
		return Command{Kind: kind, Keys: keys}, next, nil

	default:
		keys, next, err := p.parseChordKeys(pos + 1)
		if err != nil {
			return Command{}, pos, err
		}
		return Command{Kind: CmdKey, Keys: keys}, next, nil
	}
}

// parseChordKeys parses ;-separated chord entries up to the closing >.
func (p *Parser) parseChordKeys(pos int) ([]Key, int, error) {
	var keys []Key
	for {
		entry, next, err := p.parseChordEntry(pos)
		if err != nil {
			return nil, pos, err
		}
		keys = append(keys, entry...)
		pos = next
		if p.has(pos, ";") {
			pos++
			continue
		}
		if p.has(pos, ">") {
			return keys, pos + 1, nil
		}
		return nil, pos, errAt(KindParse, pos, "unterminated chord")
	}
}

func (p *Parser) parseChordEntry(pos int) ([]Key, int, error) {
	for _, name := range specialNames {
		if p.has(pos, name) {
			code, err := keycode.SpecialByName(borkSpecials[name])
			if err != nil {
				return nil, pos, errAt(KindParse, pos, err.Error())
			}
			return []Key{{Kind: KeySpecial, Code: code}}, pos + len(name), nil
		}
	}
	for _, name := range modifierNames {
		if p.has(pos, name) {
			return []Key{{Kind: KeyModifier, Modifier: borkModifiers[name]}}, pos + len(name), nil
		}
	}
	if p.has(pos, `"`) {
		return p.parseQuoted(pos)
	}
	return nil, pos, errAt(KindParse, pos, "expected chord entry")
}

// parseQuoted parses a "..." literal, with escapes and raw newline/tab
// mapping.
func (p *Parser) parseQuoted(pos int) ([]Key, int, error) {
	if !p.has(pos, `"`) {
		return nil, pos, errAt(KindParse, pos, "expected quote")
	}
	pos++
	var keys []Key
	for {
		if pos >= len(p.src) {
			return nil, pos, errAt(KindParse, pos, "unterminated literal")
		}
		c := p.src[pos]
		switch {
		case c == '"':
			return keys, pos + 1, nil
		case c == '\\':
			escaped, next, err := p.parseEscape(pos)
			if err != nil {
				return nil, pos, err
			}
			keys = append(keys, escaped...)
			pos = next
		case c == '\n':
			code, _ := keycode.SpecialByName("Enter")
			keys = append(keys, Key{Kind: KeySpecial, Code: code})
			pos++
		case c == '\t':
			code, _ := keycode.SpecialByName("Tab")
			keys = append(keys, Key{Kind: KeySpecial, Code: code})
			pos++
		case c == '\r':
			pos++
		case c == '<':
			return nil, pos, errAt(KindParse, pos, "unescaped < in literal")
		default:
			r, size := decodeRune(p.src[pos:])
			keys = append(keys, Key{Kind: KeyLiteral, Char: r})
			pos += size
		}
	}
}

// parseCharacters parses a top-level literal run.
func (p *Parser) parseCharacters(pos int) (Command, int, error) {
	var keys []Key
	start := pos
	for pos < len(p.src) {
		c := p.src[pos]
		if c == '"' || c == '<' || c == '\n' || c == '\t' {
			break
		}
		if c == '\r' {
			pos++
			continue
		}
		if c == '\\' {
			escaped, next, err := p.parseEscape(pos)
			if err != nil {
				break
			}
			keys = append(keys, escaped...)
			pos = next
			continue
		}
		r, size := decodeRune(p.src[pos:])
		keys = append(keys, Key{Kind: KeyLiteral, Char: r})
		pos += size
	}
	if len(keys) == 0 {
		return Command{}, start, errAt(KindParse, start, "expected characters")
	}
	// A run that is nothing but spaces is separator whitespace between
	// commands, not text to type.
	onlySpace := true
	for _, k := range keys {
		if k.Kind != KeyLiteral || k.Char != ' ' {
			onlySpace = false
			break
		}
	}
	if onlySpace {
		return Command{Kind: CmdNone}, pos, nil
	}
	return Command{Kind: CmdLiteral, Keys: keys}, pos, nil
}

// parseEscapes parses one or more consecutive escapes.
func (p *Parser) parseEscapes(pos int) ([]Key, int, error) {
	var keys []Key
	for p.has(pos, "\\") && !p.has(pos, "\\&") {
		escaped, next, err := p.parseEscape(pos)
		if err != nil {
			if len(keys) > 0 {
				return keys, pos, nil
			}
			return nil, pos, err
		}
		keys = append(keys, escaped...)
		pos = next
	}
	if len(keys) == 0 {
		return nil, pos, errAt(KindParse, pos, "expected escape")
	}
	return keys, pos, nil
}

// parseEscape parses a single backslash escape.
func (p *Parser) parseEscape(pos int) ([]Key, int, error) {
	if pos+1 >= len(p.src) || p.src[pos] != '\\' {
		return nil, pos, errAt(KindParse, pos, "expected escape")
	}
	switch p.src[pos+1] {
	case '$':
		end := pos + 2
		for end < len(p.src) && isNameChar(p.src[end]) {
			end++
		}
		if end == pos+2 || end >= len(p.src) || p.src[end] != '\\' {
			return nil, pos, errAt(KindParse, pos, "malformed variable escape")
		}
		name := p.src[pos+2 : end]
		if _, ok := p.vars[name]; !ok {
			return nil, pos, errAt(KindUndefinedVariable, pos, name)
		}
		return []Key{{Kind: KeyVariable, Name: name}}, end + 1, nil
	case '@':
		expr, next, err := p.parseExpression(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		if !p.has(next, "\\") {
			return nil, pos, errAt(KindParse, next, "unterminated ascii escape")
		}
		return []Key{{Kind: KeyASCII, Expr: expr}}, next + 1, nil
	case 'x':
		if pos+3 >= len(p.src) {
			return nil, pos, errAt(KindParse, pos, "truncated keycode escape")
		}
		hi, okHi := hexDigit(p.src[pos+2])
		lo, okLo := hexDigit(p.src[pos+3])
		if !okHi || !okLo {
			return nil, pos, errAt(KindParse, pos, "malformed keycode escape")
		}
		return []Key{{Kind: KeyKeycode, Code: hi<<4 | lo}}, pos + 4, nil
	case 'n':
		code, _ := keycode.SpecialByName("Enter")
		return []Key{{Kind: KeySpecial, Code: code}}, pos + 2, nil
	case 't':
		code, _ := keycode.SpecialByName("Tab")
		return []Key{{Kind: KeySpecial, Code: code}}, pos + 2, nil
	case 'b':
		code, _ := keycode.SpecialByName("Backspace")
		return []Key{{Kind: KeySpecial, Code: code}}, pos + 2, nil
	case 'l':
		return []Key{{Kind: KeyMouseLeft}}, pos + 2, nil
	case 'r':
		return []Key{{Kind: KeyMouseRight}}, pos + 2, nil
	case 'm':
		return []Key{{Kind: KeyMouseMiddle}}, pos + 2, nil
	case '"', '\'', '\\', '<':
		return []Key{{Kind: KeyLiteral, Char: rune(p.src[pos+1])}}, pos + 2, nil
	default:
		return nil, pos, errAt(KindParse, pos, "unknown escape")
	}
}

// parseLEDRef parses \&N.
func (p *Parser) parseLEDRef(pos int) (int, int, error) {
	if !p.has(pos, "\\&") || pos+2 >= len(p.src) {
		return 0, pos, errAt(KindParse, pos, "malformed led reference")
	}
	n := p.src[pos+2]
	if n < '1' || n > '5' {
		return 0, pos, errAt(KindParse, pos, "led reference out of range")
	}
	return int(n - '0'), pos + 3, nil
}

// parseSet parses <=name;param>.
func (p *Parser) parseSet(pos int) (Command, int, error) {
	start := pos
	pos += 2
	name, pos, err := p.parseName(pos)
	if err != nil {
		return Command{}, start, err
	}
	if !p.has(pos, ";") {
		return Command{}, start, errAt(KindParse, pos, "expected ; after variable name")
	}
	pos++

	var param Parameter
	if p.has(pos, "'") {
		expr, next, err := p.parseExpression(pos + 1)
		if err != nil {
			return Command{}, start, err
		}
		if !p.has(next, "'") {
			return Command{}, start, errAt(KindParse, next, "unterminated expression")
		}
		param = Parameter{Expr: expr}
		pos = next + 1
	} else {
		keys, next, err := p.parseQuoted(pos)
		if err != nil {
			return Command{}, start, err
		}
		param = Parameter{Keys: keys}
		pos = next
	}
	if !p.has(pos, ">") {
		return Command{}, start, errAt(KindParse, pos, "unterminated set")
	}
	pos++

	if typ, ok := p.vars[name]; ok {
		switch typ {
		case TypeInteger:
			if param.Expr == nil {
				return Command{}, start, errAt(KindExpectedInteger, start, name)
			}
		case TypeLiteral:
			if param.Expr != nil {
				return Command{}, start, errAt(KindParse, start, "integer assigned to literal variable "+name)
			}
		}
	} else if param.Expr != nil {
		p.vars[name] = TypeInteger
	} else {
		p.vars[name] = TypeLiteral
	}

	return Command{Kind: CmdSet, Name: name, Set: &param}, pos, nil
}

// parsePipe captures the raw bytes of <|...> up to the matching >,
// honoring the \<, \>, \\ escapes; the body is never parsed further.
func (p *Parser) parsePipe(pos int) (Command, int, error) {
	start := pos
	pos += 2
	p.nest = append(p.nest, nestPipe)
	defer func() { p.nest = p.nest[:len(p.nest)-1] }()

	var body strings.Builder
	for {
		if pos >= len(p.src) {
			return Command{}, start, errAt(KindParse, start, "unterminated pipe")
		}
		switch {
		case p.has(pos, "\\<"):
			body.WriteByte('<')
			pos += 2
		case p.has(pos, "\\>"):
			body.WriteByte('>')
			pos += 2
		case p.has(pos, "\\\\"):
			body.WriteByte('\\')
			pos += 2
		case p.src[pos] == '>':
			return Command{Kind: CmdPipe, Pipe: body.String()}, pos + 1, nil
		case p.src[pos] == '<':
			return Command{}, start, errAt(KindParse, pos, "unescaped < in pipe")
		default:
			body.WriteByte(p.src[pos])
			pos++
		}
	}
}

func isNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *Parser) parseName(pos int) (string, int, error) {
	end := pos
	for end < len(p.src) && isNameChar(p.src[end]) {
		end++
	}
	if end == pos {
		return "", pos, errAt(KindParse, pos, "expected name")
	}
	return p.src[pos:end], end, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func decodeRune(s string) (rune, int) {
	return utf8.DecodeRuneInString(s)
}
