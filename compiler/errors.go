package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"ember/token"
)

// CompileError is one reported compile-time failure, formatted the way
// the parser's own error reporter writes it to standard error.
type CompileError struct {
	Line    int
	Where   string // "", " at end", or " at 'lexeme'"
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

func newCompileError(tok token.Token, message string) *CompileError {
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.TokenType == token.EOF {
		where = " at end"
	}
	if tok.TokenType == token.ERROR {
		where = ""
	}
	return &CompileError{Line: tok.Line, Where: where, Message: message}
}

// errorSink accumulates every CompileError raised during one compile into
// a single *multierror.Error, the way the reference compiler keeps going
// after an error (to report as many problems as it can find in one pass)
// instead of aborting on the first one.
type errorSink struct {
	errs *multierror.Error
}

func (s *errorSink) add(tok token.Token, message string) {
	s.errs = multierror.Append(s.errs, newCompileError(tok, message))
}

func (s *errorSink) hasErrors() bool {
	return s.errs.ErrorOrNil() != nil
}

func (s *errorSink) asError() error {
	return s.errs.ErrorOrNil()
}
