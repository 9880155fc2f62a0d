// Package diag collects position-annotated compiler diagnostics.
//
// It plays the role the teacher's pkg/util.Error/Warn free functions play,
// restructured as a value so parsing can keep running after an error is
// recorded instead of exiting the process — the parser must still return
// whatever statements it managed to parse. The parser is the only stage
// that reports into a Sink; the lexer returns an error instead.
package diag

import (
	"fmt"

	"github.com/nullstitch/hyc/pkg/token"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one reported problem, optionally tied to a source position.
type Diagnostic struct {
	Severity Severity
	Pos      token.Pos
	HasPos   bool
	Message  string
}

func (d Diagnostic) String() string {
	prefix := "Error"
	if d.Severity == SeverityWarning {
		prefix = "Warning"
	}
	if d.HasPos {
		return fmt.Sprintf("%s at line %d, column %d: %s", prefix, d.Pos.Line, d.Pos.Column, d.Message)
	}
	return fmt.Sprintf("Parse error: %s", d.Message)
}

// Sink accumulates diagnostics for a single compilation.
type Sink struct {
	diagnostics []Diagnostic
}

func NewSink() *Sink { return &Sink{} }

// Errorf records a position-annotated error.
func (s *Sink) Errorf(pos token.Pos, format string, args ...interface{}) {
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Severity: SeverityError,
		Pos:      pos,
		HasPos:   true,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ErrorfNoPos records an error with no associated position (spec's
// "legacy" `Parse error: <message>` form).
func (s *Sink) ErrorfNoPos(format string, args ...interface{}) {
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (s *Sink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (s *Sink) Diagnostics() []Diagnostic { return s.diagnostics }

func (s *Sink) Count() int { return len(s.diagnostics) }
