// SPDX-License-Identifier: BSD-3-Clause

package bork

import "strconv"

// parseExpression parses a leading value followed by a left-to-right
// operator chain. There is no precedence: operators apply in source
// order to the running value.
func (p *Parser) parseExpression(pos int) (*Expression, int, error) {
	pos = p.skipAllSpace(pos)
	value, pos, err := p.parseValue(pos)
	if err != nil {
		return nil, pos, err
	}
	expr := &Expression{Value: value}
	for {
		opPos := p.skipAllSpace(pos)
		// A failed operator parse backtracks and ends the chain: the
		// character that broke it belongs to the surrounding command.
		op, next, ok, err := p.parseOperator(opPos)
		if err != nil || !ok {
			break
		}
		expr.Ops = append(expr.Ops, op)
		pos = next
	}
	return expr, p.skipAllSpace(pos), nil
}

func (p *Parser) parseValue(pos int) (Value, int, error) {
	if pos >= len(p.src) {
		return Value{}, pos, errAt(KindParse, pos, "expected value")
	}
	c := p.src[pos]
	switch {
	case c >= '0' && c <= '9', c == '-' && pos+1 < len(p.src) && p.src[pos+1] >= '0' && p.src[pos+1] <= '9':
		end := pos
		if c == '-' {
			end++
		}
		for end < len(p.src) && p.src[end] >= '0' && p.src[end] <= '9' {
			end++
		}
		n, err := strconv.ParseInt(p.src[pos:end], 10, 64)
		if err != nil {
			return Value{}, pos, errAt(KindParse, pos, "integer out of range")
		}
		return Value{Kind: ValueInt, Int: n}, end, nil

	case c == 'T':
		return Value{Kind: ValueInt, Int: 1}, pos + 1, nil
	case c == 'F':
		return Value{Kind: ValueInt, Int: 0}, pos + 1, nil

	case c == '@':
		if pos+1 >= len(p.src) || p.src[pos+1] > 0x7F {
			return Value{}, pos, errAt(KindParse, pos, "expected ascii character")
		}
		return Value{Kind: ValueInt, Int: int64(p.src[pos+1])}, pos + 2, nil

	case c == '~', c == '!':
		inner, next, err := p.parseExpression(pos + 1)
		if err != nil {
			return Value{}, pos, err
		}
		kind := ValueNot
		if c == '~' {
			kind = ValueBitNot
		}
		return Value{Kind: kind, Expr: inner}, next, nil

	case p.has(pos, "\\&"):
		led, next, err := p.parseLEDRef(pos)
		if err != nil {
			return Value{}, pos, err
		}
		return Value{Kind: ValueLED, LED: led}, next, nil

	case c == '(':
		inner, next, err := p.parseExpression(pos + 1)
		if err != nil {
			return Value{}, pos, err
		}
		if !p.has(next, ")") {
			return Value{}, pos, errAt(KindParse, next, "unterminated bracket")
		}
		return Value{Kind: ValueBracket, Expr: inner}, next + 1, nil

	case p.has(pos, "<!"):
		name, args, next, err := p.parseCallComponents(pos, TypeInteger)
		if err != nil {
			return Value{}, pos, err
		}
		return Value{Kind: ValueCall, Name: name, Args: args}, next, nil

	case isNameChar(c):
		name, next, err := p.parseName(pos)
		if err != nil {
			return Value{}, pos, err
		}
		typ, ok := p.vars[name]
		if !ok {
			return Value{}, pos, errAt(KindUndefinedVariable, pos, name)
		}
		if typ != TypeInteger && typ != TypeAny {
			return Value{}, pos, errAt(KindExpectedInteger, pos, name)
		}
		return Value{Kind: ValueVariable, Name: name}, next, nil

	default:
		return Value{}, pos, errAt(KindParse, pos, "expected value")
	}
}

// parseOperator parses one operator step; ok is false when the cursor
// does not start an operator.
func (p *Parser) parseOperator(pos int) (Operator, int, bool, error) {
	if pos >= len(p.src) {
		return Operator{}, pos, false, nil
	}
	switch {
	case p.src[pos] == '$':
		name, next, err := p.parseName(pos + 1)
		if err != nil {
			return Operator{}, pos, false, err
		}
		if typ, ok := p.vars[name]; ok {
			if typ != TypeInteger && typ != TypeAny {
				return Operator{}, pos, false, errAt(KindExpectedInteger, pos, name)
			}
		} else {
			p.vars[name] = TypeInteger
		}
		return Operator{Kind: OpSet, Name: name}, next, true, nil

	case p.has(pos, "?*"):
		cond, next, err := p.parseExpression(pos + 2)
		if err != nil {
			return Operator{}, pos, false, err
		}
		if !p.has(next, ":") {
			return Operator{}, pos, false, errAt(KindParse, next, "expected : in fold")
		}
		body, next, err := p.parseExpression(next + 1)
		if err != nil {
			return Operator{}, pos, false, err
		}
		tag, next, ok := p.matchBinaryOp(next)
		if !ok {
			return Operator{}, pos, false, errAt(KindParse, next, "expected operator after fold body")
		}
		return Operator{
			Kind: OpFold,
			Cond: cond,
			Body: &Operator{Kind: binaryOpKinds[tag], Val: Value{Kind: ValueBracket, Expr: body}},
		}, next, true, nil

	case p.src[pos] == '?':
		thenExpr, next, err := p.parseExpression(pos + 1)
		if err != nil {
			return Operator{}, pos, false, err
		}
		if !p.has(next, ":") {
			return Operator{}, pos, false, errAt(KindParse, next, "expected : in ternary")
		}
		elseExpr, next, err := p.parseExpression(next + 1)
		if err != nil {
			return Operator{}, pos, false, err
		}
		return Operator{Kind: OpTernary, Then: thenExpr, Else: elseExpr}, next, true, nil

	default:
		tag, next, ok := p.matchBinaryOp(pos)
		if !ok {
			return Operator{}, pos, false, nil
		}
		next = p.skipAllSpace(next)
		val, next, err := p.parseValue(next)
		if err != nil {
			return Operator{}, pos, false, err
		}
		return Operator{Kind: binaryOpKinds[tag], Val: val}, next, true, nil
	}
}

func (p *Parser) matchBinaryOp(pos int) (string, int, bool) {
	for _, tag := range binaryOps {
		if p.has(pos, tag) {
			return tag, pos + len(tag), true
		}
	}
	return "", pos, false
}

// parseCallComponents parses <!name;args...>, checking the function
// exists and fits the expected return kind.
func (p *Parser) parseCallComponents(pos int, expected DataType) (string, []Parameter, int, error) {
	start := pos
	if !p.has(pos, "<!") {
		return "", nil, pos, errAt(KindParse, pos, "expected call")
	}
	name, pos, err := p.parseName(pos + 2)
	if err != nil {
		return "", nil, start, err
	}
	def, ok := p.funcs[name]
	if !ok {
		return "", nil, start, errAt(KindUndefinedFunction, start, name)
	}
	if expected != TypeAny && def.typ != expected {
		return "", nil, start, errAt(KindExpectedInteger, start, name)
	}

	args := make([]Parameter, 0, len(def.params))
	for _, param := range def.params {
		if !p.has(pos, ";") {
			return "", nil, start, errAt(KindParse, pos, "expected ; before call argument")
		}
		pos++
		if param.typ == TypeInteger {
			expr, next, err := p.parseExpression(pos)
			if err != nil {
				return "", nil, start, err
			}
			args = append(args, Parameter{Expr: expr})
			pos = next
		} else {
			keys, next, err := p.parseQuoted(pos)
			if err != nil {
				return "", nil, start, err
			}
			args = append(args, Parameter{Keys: keys})
			pos = next
		}
	}
	if !p.has(pos, ">") {
		return "", nil, start, errAt(KindParse, pos, "unterminated call")
	}
	return name, args, pos + 1, nil
}

// parseFunctionDef parses <+#name;params;'expr'> or <+"name;params;commands>.
// Definitions are only legal at the top level.
func (p *Parser) parseFunctionDef(pos int) (Command, int, error) {
	start := pos
	if len(p.nest) > 0 {
		return Command{}, pos, errAt(KindParse, pos, "function definition inside nest")
	}
	pos += 2
	if pos >= len(p.src) || (p.src[pos] != '#' && p.src[pos] != '"') {
		return Command{}, start, errAt(KindParse, pos, "expected function type")
	}
	typ := TypeLiteral
	if p.src[pos] == '#' {
		typ = TypeInteger
	}
	pos++
	name, pos, err := p.parseName(pos)
	if err != nil {
		return Command{}, start, err
	}
	if !p.has(pos, ";") {
		return Command{}, start, errAt(KindParse, pos, "expected ; after function name")
	}
	pos++
	if _, exists := p.funcs[name]; exists {
		return Command{}, start, errAt(KindParse, start, "function redefined: "+name)
	}

	var params []paramName
	for pos < len(p.src) && (p.src[pos] == '#' || p.src[pos] == '"') {
		ptyp := TypeLiteral
		if p.src[pos] == '#' {
			ptyp = TypeInteger
		}
		// A type marker not followed by "name;" is not a parameter
		// declaration: the body starts here (a literal body may open
		// with a quoted string).
		pname, next, err := p.parseName(pos + 1)
		if err != nil || !p.has(next, ";") {
			break
		}
		if _, exists := p.vars[pname]; exists {
			return Command{}, start, errAt(KindParse, start, "parameter shadows variable: "+pname)
		}
		params = append(params, paramName{name: pname, typ: ptyp})
		pos = next + 1
	}

	for _, param := range params {
		p.vars[param.name] = param.typ
	}
	cleanup := func() {
		for _, param := range params {
			delete(p.vars, param.name)
		}
		delete(p.funcs, name)
	}

	// The placeholder makes recursive calls in the body resolvable.
	p.funcs[name] = funcDef{typ: typ, params: params}

	var body funcBody
	if typ == TypeInteger {
		pos = p.skipAllSpace(pos)
		if !p.has(pos, "'") {
			cleanup()
			return Command{}, start, errAt(KindParse, pos, "expected expression body")
		}
		expr, next, err := p.parseExpression(pos + 1)
		if err != nil {
			cleanup()
			return Command{}, start, err
		}
		if !p.has(next, "'") {
			cleanup()
			return Command{}, start, errAt(KindParse, next, "unterminated expression body")
		}
		body = funcBody{expr: expr}
		pos = next + 1
	} else {
		p.nest = append(p.nest, nestFunction)
		bodyStart := p.skipAllSpace(pos)
		cursor := bodyStart
		parsed := 0
		for {
			_, next, err := p.ParseCommand(cursor)
			if err != nil {
				break
			}
			cursor = next
			parsed++
		}
		p.nest = p.nest[:len(p.nest)-1]
		if parsed == 0 {
			cleanup()
			return Command{}, start, errAt(KindParse, bodyStart, "empty function body")
		}
		body = funcBody{start: bodyStart, end: cursor}
		pos = cursor
	}

	pos = p.skipAllSpace(pos)
	if !p.has(pos, ">") {
		cleanup()
		return Command{}, start, errAt(KindParse, pos, "unterminated function definition")
	}
	pos++

	for _, param := range params {
		delete(p.vars, param.name)
	}
	p.funcs[name] = funcDef{typ: typ, params: params, body: body}
	return Command{Kind: CmdNone}, pos, nil
}

// beginFunction declares a function's parameters for a body execution,
// returning the shadowed variable types to restore afterwards.
func (p *Parser) beginFunction(name string) map[string]DataType {
	saved := make(map[string]DataType)
	def, ok := p.funcs[name]
	if !ok {
		return saved
	}
	for _, param := range def.params {
		if prev, exists := p.vars[param.name]; exists {
			saved[param.name] = prev
		}
		p.vars[param.name] = param.typ
	}
	p.nest = append(p.nest, nestFunction)
	return saved
}

// endFunction removes a body execution's parameter declarations.
func (p *Parser) endFunction(name string, saved map[string]DataType) {
	if top, ok := p.top(); ok && top == nestFunction {
		p.nest = p.nest[:len(p.nest)-1]
	}
	if def, ok := p.funcs[name]; ok {
		for _, param := range def.params {
			delete(p.vars, param.name)
		}
	}
	for varName, typ := range saved {
		p.vars[varName] = typ
	}
}

// jmpNext skips forward to the next branch delimiter (else-if, else, or
// end) at the current nest level, leaving the cursor just before it.
func (p *Parser) jmpNext(pos int) (int, error) {
	level := len(p.nest)
	if level == 0 {
		return pos, nil
	}
	for {
		savedPos := pos
		savedNest := p.snapshotNest()
		cmd, next, err := p.ParseCommand(pos)
		if err != nil {
			return pos, err
		}
		switch cmd.Kind {
		case CmdElseIf, CmdElse:
			if len(p.nest) == level {
				p.restoreNest(savedNest)
				return savedPos, nil
			}
		case CmdEnd:
			if len(p.nest) == level-1 {
				p.restoreNest(savedNest)
				return savedPos, nil
			}
		case CmdExit:
			p.restoreNest(savedNest)
			return savedPos, nil
		}
		pos = next
	}
}

// jmpEnd skips forward past the end closing the current nest level.
func (p *Parser) jmpEnd(pos int) (int, error) {
	level := len(p.nest)
	if level == 0 {
		return pos, nil
	}
	for {
		cmd, next, err := p.ParseCommand(pos)
		if err != nil {
			return pos, err
		}
		switch cmd.Kind {
		case CmdEnd:
			if len(p.nest) == level-1 {
				return next, nil
			}
		case CmdExit:
			return next, nil
		}
		pos = next
	}
}
