// SPDX-License-Identifier: BSD-3-Clause

package bork

import "github.com/ellabellla/lmklib-sub000/pkg/keycode"

// DataType is the declared type of a variable, parameter, or function.
type DataType int

const (
	// TypeInteger holds an i64.
	TypeInteger DataType = iota
	// TypeLiteral holds a key sequence.
	TypeLiteral
	// TypeAny matches either.
	TypeAny
)

// KeyKind tags a Key.
type KeyKind int

const (
	KeyLiteral KeyKind = iota
	KeySpecial
	KeyModifier
	KeyKeycode
	KeyASCII
	KeyVariable
	KeyMouseLeft
	KeyMouseRight
	KeyMouseMiddle
)

// Key is one pressable element of a literal or chord.
type Key struct {
	Kind     KeyKind
	Char     rune
	Code     byte
	Modifier keycode.Modifier
	Expr     *Expression // for KeyASCII
	Name     string      // for KeyVariable
}

// ValueKind tags a Value.
type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueVariable
	ValueCall
	ValueBracket
	ValueLED
	ValueBitNot
	ValueNot
)

// Value is the leading operand of an expression.
type Value struct {
	Kind ValueKind
	Int  int64
	Name string      // variable or call name
	Args []Parameter // call arguments
	Expr *Expression // bracket / not operand
	LED  int         // 1..5
}

// OpKind tags an Operator.
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
	OpMult
	OpDiv
	OpMod
	OpExp
	OpEqu
	OpNEq
	OpGre
	OpLes
	OpEqL
	OpEqG
	OpAnd
	OpOr
	OpBAnd
	OpBOr
	OpLeft
	OpRight
	OpSet
	OpFold
	OpTernary
)

// Operator is one step applied to an expression's running value.
type Operator struct {
	Kind OpKind
	Val  Value       // binary operand
	Name string      // OpSet target
	Cond *Expression // OpFold condition
	Body *Operator   // OpFold body operator
	Then *Expression // OpTernary
	Else *Expression // OpTernary
}

// Expression is a leading value and a left-to-right operator chain.
type Expression struct {
	Value Value
	Ops   []Operator
}

// Parameter is one call argument: an expression or a key sequence.
type Parameter struct {
	Expr *Expression
	Keys []Key
}

// paramName is a declared function parameter.
type paramName struct {
	name string
	typ  DataType
}

// funcBody is a function's body: an expression for integer functions,
// or a source span for literal ones.
type funcBody struct {
	expr       *Expression
	start, end int
}

// funcDef is one entry of the parser's function table.
type funcDef struct {
	typ    DataType
	params []paramName
	body   funcBody
}

// CmdKind tags a Command.
type CmdKind int

const (
	CmdLiteral CmdKind = iota
	CmdKey
	CmdHold
	CmdRelease
	CmdIf
	CmdElseIf
	CmdElse
	CmdWhile
	CmdEnd
	CmdSet
	CmdExpression
	CmdMove
	CmdPipe
	CmdCall
	CmdNone
	CmdLED
	CmdSleep
	CmdExit
)

// Command is one parsed unit of the script stream.
type Command struct {
	Kind CmdKind
	Keys []Key
	Expr *Expression // if / elseif / while / expression / sleep
	X, Y *Expression // move
	Name string      // set target or call name
	Set  *Parameter  // set payload
	Args []Parameter // call arguments
	Pipe string      // raw pipe body
	LED  int

	// popped records which nest kind an end command closed.
	popped nestKind
}
