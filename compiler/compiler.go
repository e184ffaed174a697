// Package compiler implements the single-pass Pratt parser that compiles
// source text directly to bytecode: there is no separate AST stage, no
// intermediate representation, and no second pass. Each expression or
// statement form emits its instructions as soon as it is recognised.
package compiler

import (
	"github.com/sirupsen/logrus"

	"ember/lexer"
	"ember/token"
	"ember/value"
)

// FunctionType distinguishes the implicit top-level script from a body
// introduced by `fun`; only the latter may contain a `return` statement.
// Both end with an implicit `return nil`.
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
)

const (
	maxLocals     = 256
	maxConstants  = 256
	maxParameters = 255
	maxJump       = 65535
)

// Local is one entry in a function compiler's fixed-size local-variable
// array: the name token it was declared with, and its scope depth. Depth
// -1 marks a local that has been declared but whose initialiser has not
// yet finished running, forbidding `var x = x;`.
type Local struct {
	name  token.Token
	depth int
}

// funcCompiler tracks the state needed to compile one function body: its
// own locals array and scope depth, the function object being built, and
// a link to the compiler for the lexically enclosing function so control
// returns there once this one finishes.
type funcCompiler struct {
	enclosing *funcCompiler

	function *value.Function
	funcType FunctionType

	locals     []Local
	scopeDepth int
}

func newFuncCompiler(enclosing *funcCompiler, funcType FunctionType, name string) *funcCompiler {
	fc := &funcCompiler{
		enclosing: enclosing,
		function:  value.NewFunction(),
		funcType:  funcType,
	}
	if name != "" {
		fc.function.Name = value.NewString(name)
	}
	// Slot 0 of every call window is reserved for the callee itself; a
	// nameless sentinel local claims it so user locals start at slot 1.
	fc.locals = append(fc.locals, Local{name: token.Token{Lexeme: ""}, depth: 0})
	return fc
}

func (fc *funcCompiler) chunk() *value.Chunk {
	return fc.function.Chunk
}

// Compiler drives the Pratt parser over a lazy token stream, emitting
// bytecode into the chunk owned by whichever function is currently being
// compiled.
type Compiler struct {
	lexer *lexer.Lexer

	current  token.Token
	previous token.Token

	panicMode bool
	errs      errorSink

	fc *funcCompiler

	// Trace, when non-nil, receives one debug line per completed
	// function's disassembly (see Disassemble in disassemble.go).
	Trace *logrus.Logger
}

// Compile compiles a complete program and returns the top-level script
// function wrapping its chunk. On any parse error it returns nil and a
// non-nil error aggregating every message collected during the compile
// (see errors.go); the partially built chunk must be discarded.
func Compile(source string) (*value.Function, error) {
	return CompileTraced(source, nil)
}

// CompileTraced compiles source the same way Compile does, but if log is
// non-nil, logs the disassembly of every function (including the
// implicit top-level script) as it finishes compiling, the way the
// reference implementation's DEBUG_PRINT_CODE build flag does.
func CompileTraced(source string, log *logrus.Logger) (*value.Function, error) {
	c := &Compiler{lexer: lexer.New(source), Trace: log}
	c.fc = newFuncCompiler(nil, TypeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if c.errs.hasErrors() {
		return nil, c.errs.asError()
	}
	return fn, nil
}

// --- token plumbing -------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lexer.Next()
		if c.current.TokenType != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(tt token.TokenType) bool {
	return c.current.TokenType == tt
}

func (c *Compiler) match(tt token.TokenType) bool {
	if !c.check(tt) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tt token.TokenType, message string) {
	if c.current.TokenType == tt {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errs.add(tok, message)
}

// --- emission --------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op Opcode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op Opcode, operand int) {
	c.emitOp(op)
	c.emitByte(byte(operand))
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(OP_CONSTANT, c.makeConstant(v))
}

func (c *Compiler) makeConstant(v value.Value) int {
	idx := c.chunk().AddConstant(v)
	if idx >= maxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > maxJump {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OP_LOOP)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > maxJump {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitReturn() {
	c.emitOp(OP_NIL)
	c.emitOp(OP_RETURN)
}

func (c *Compiler) endCompiler() *value.Function {
	c.emitReturn()
	fn := c.fc.function

	if c.Trace != nil {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		c.Trace.Debugf("== %s ==\n%s", name, Disassemble(fn.Chunk, name))
	}

	c.fc = c.fc.enclosing
	return fn
}

// --- scopes ------------------------------------------------------------

func (c *Compiler) beginScope() {
	c.fc.scopeDepth++
}

func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	locals := c.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fc.scopeDepth {
		c.emitOp(OP_POP)
		locals = locals[:len(locals)-1]
	}
	c.fc.locals = locals
}

// --- declarations --------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.FUNC):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.TokenType != token.EOF {
		if c.previous.TokenType == token.SEMICOLON {
			return
		}
		if token.SyncKeywords[c.current.TokenType] {
			return
		}
		c.advance()
	}
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(TypeFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(funcType FunctionType) {
	c.fc = newFuncCompiler(c.fc, funcType, c.previous.Lexeme)
	c.beginScope()

	c.consume(token.LPA, "Expect '(' after function name.")
	if !c.check(token.RPA) {
		for {
			c.fc.function.Arity++
			if c.fc.function.Arity > maxParameters {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPA, "Expect ')' after parameters.")
	c.consume(token.LCUR, "Expect '{' before function body.")
	c.block()

	fn := c.endCompiler()
	c.emitConstant(value.FromObject(fn))
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitOp(OP_NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

// parseVariable consumes an identifier, declares it (as a local if we
// are inside a scope), and returns the constant-pool index of its name
// for globals (0 is returned, and ignored, for locals).
func (c *Compiler) parseVariable(message string) int {
	c.consume(token.IDENTIFIER, message)

	c.declareVariable()
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name token.Token) int {
	return c.makeConstant(value.FromObject(value.NewString(name.Lexeme)))
}

func (c *Compiler) declareVariable() {
	if c.fc.scopeDepth == 0 {
		return
	}

	name := c.previous
	locals := c.fc.locals
	for i := len(locals) - 1; i >= 0; i-- {
		local := locals[i]
		if local.depth != -1 && local.depth < c.fc.scopeDepth {
			break
		}
		if local.name.Lexeme == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}

	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.fc.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, Local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.scopeDepth
}

func (c *Compiler) defineVariable(global int) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OP_DEFINE_GLOBAL, global)
}

// --- statements ------------------------------------------------------

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.LCUR):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RCUR, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OP_PRINT)
}

func (c *Compiler) returnStatement() {
	if c.fc.funcType == TypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(OP_RETURN)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OP_POP)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPA, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	thenJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitOp(OP_POP)
	c.statement()

	elseJump := c.emitJump(OP_JUMP)
	c.patchJump(thenJump)
	c.emitOp(OP_POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPA, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	exitJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitOp(OP_POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OP_POP)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPA, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")

		exitJump = c.emitJump(OP_JUMP_IF_FALSE)
		c.emitOp(OP_POP)
	}

	if !c.match(token.RPA) {
		bodyJump := c.emitJump(OP_JUMP)

		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(OP_POP)
		c.consume(token.RPA, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OP_POP)
	}

	c.endScope()
}

// --- expressions -----------------------------------------------------

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.TokenType]parseRule

func init() {
	rules = map[token.TokenType]parseRule{
		token.LPA:          {(*Compiler).grouping, (*Compiler).call, precCall},
		token.SUB:          {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.ADD:          {nil, (*Compiler).binary, precTerm},
		token.DIV:          {nil, (*Compiler).binary, precFactor},
		token.MULT:         {nil, (*Compiler).binary, precFactor},
		token.BANG:         {(*Compiler).unary, nil, precNone},
		token.NOT_EQUAL:    {nil, (*Compiler).binary, precEquality},
		token.EQUAL_EQUAL:  {nil, (*Compiler).binary, precEquality},
		token.LARGER:       {nil, (*Compiler).binary, precComparison},
		token.LARGER_EQUAL: {nil, (*Compiler).binary, precComparison},
		token.LESS:         {nil, (*Compiler).binary, precComparison},
		token.LESS_EQUAL:   {nil, (*Compiler).binary, precComparison},
		token.IDENTIFIER:   {(*Compiler).variable, nil, precNone},
		token.STRING:       {(*Compiler).stringLiteral, nil, precNone},
		token.NUMBER:       {(*Compiler).number, nil, precNone},
		token.AND:          {nil, (*Compiler).and_, precAnd},
		token.OR:           {nil, (*Compiler).or_, precOr},
		token.FALSE:        {(*Compiler).literal, nil, precNone},
		token.TRUE:         {(*Compiler).literal, nil, precNone},
		token.NIL:          {(*Compiler).literal, nil, precNone},
	}
}

func (c *Compiler) getRule(tt token.TokenType) parseRule {
	return rules[tt]
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefixRule := c.getRule(c.previous.TokenType).prefix
	if prefixRule == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := p <= precAssignment
	prefixRule(c, canAssign)

	for p <= c.getRule(c.current.TokenType).precedence {
		c.advance()
		infixRule := c.getRule(c.previous.TokenType).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(_ bool) {
	v := c.previous.Literal.(float64)
	c.emitConstant(value.Number(v))
}

func (c *Compiler) stringLiteral(_ bool) {
	s := c.previous.Literal.(string)
	c.emitConstant(value.FromObject(value.NewString(s)))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.TokenType {
	case token.FALSE:
		c.emitOp(OP_FALSE)
	case token.TRUE:
		c.emitOp(OP_TRUE)
	case token.NIL:
		c.emitOp(OP_NIL)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	opType := c.previous.TokenType
	c.parsePrecedence(precUnary)

	switch opType {
	case token.SUB:
		c.emitOp(OP_NEGATE)
	case token.BANG:
		c.emitOp(OP_NOT)
	}
}

func (c *Compiler) binary(_ bool) {
	opType := c.previous.TokenType
	rule := c.getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.ADD:
		c.emitOp(OP_ADD)
	case token.SUB:
		c.emitOp(OP_SUBTRACT)
	case token.MULT:
		c.emitOp(OP_MULTIPLY)
	case token.DIV:
		c.emitOp(OP_DIVIDE)
	case token.NOT_EQUAL:
		c.emitOp(OP_EQUAL)
		c.emitOp(OP_NOT)
	case token.EQUAL_EQUAL:
		c.emitOp(OP_EQUAL)
	case token.LARGER:
		c.emitOp(OP_GREATER)
	case token.LARGER_EQUAL:
		c.emitOp(OP_LESS)
		c.emitOp(OP_NOT)
	case token.LESS:
		c.emitOp(OP_LESS)
	case token.LESS_EQUAL:
		c.emitOp(OP_GREATER)
		c.emitOp(OP_NOT)
	}
}

func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitOpByte(OP_CALL, argCount)
}

func (c *Compiler) argumentList() int {
	argCount := 0
	if !c.check(token.RPA) {
		for {
			c.expression()
			if argCount == maxParameters {
				c.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPA, "Expect ')' after arguments.")
	return argCount
}

func (c *Compiler) and_(_ bool) {
	endJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitOp(OP_POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(_ bool) {
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	endJump := c.emitJump(OP_JUMP)

	c.patchJump(elseJump)
	c.emitOp(OP_POP)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	getOp, setOp, arg := OP_GET_GLOBAL, OP_SET_GLOBAL, 0

	if slot := c.resolveLocal(c.fc, name); slot != -1 {
		getOp, setOp, arg = OP_GET_LOCAL, OP_SET_LOCAL, slot
	} else {
		arg = c.identifierConstant(name)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOpByte(setOp, arg)
	} else {
		c.emitOpByte(getOp, arg)
	}
}

func (c *Compiler) resolveLocal(fc *funcCompiler, name token.Token) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		local := fc.locals[i]
		if local.name.Lexeme == name.Lexeme {
			if local.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}
