package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/cmoon/ast"
	"github.com/thisisjab/cmoon/fault"
	"github.com/thisisjab/cmoon/token"
)

// SourceFile is the whole content of one file, as read by a source.
type SourceFile struct {
	Source  string    `json:"source"`
	Path    string    `json:"path"`
	Content []byte    `json:"-"`
	ReadAt  time.Time `json:"read_at"`
}

// Diagnostic is one problem found in a source file. Line is 0-indexed, or fault.NoLine.
type Diagnostic struct {
	Code    string `json:"code"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

const (
	LexStage   = "lex"
	ParseStage = "parse"
	LintStage  = "lint"
)

// Report is what the processor chain produces for one SourceFile.
type Report struct {
	ID          uuid.UUID     `json:"id"`
	Source      string        `json:"source"`
	Path        string        `json:"path"`
	Timestamp   time.Time     `json:"timestamp"`
	Content     []byte        `json:"-"`
	Tokens      []token.Token `json:"tokens"`
	Program     *ast.Program  `json:"program,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`

	// Stage is the last stage that failed, empty when every stage succeeded.
	Stage string `json:"stage,omitempty"`
}

func NewReport(f SourceFile) Report {
	return Report{
		Source:    f.Source,
		Path:      f.Path,
		Timestamp: f.ReadAt,
		Content:   f.Content,
	}
}

// Failed reports whether a lex or parse stage failed. Lint findings do not count.
func (r Report) Failed() bool {
	return r.Stage == LexStage || r.Stage == ParseStage
}

// AddError records err as diagnostics raised by stage.
func (r *Report) AddError(stage string, err error) {
	if err == nil {
		return
	}

	r.Diagnostics = append(r.Diagnostics, DiagnosticsFromError(err)...)
	if stage != LintStage {
		r.Stage = stage
	}
}

// DiagnosticsFromError converts err, including joined errors, into diagnostics.
func DiagnosticsFromError(err error) []Diagnostic {
	faults := fault.All(err)
	out := make([]Diagnostic, 0, len(faults))
	for _, f := range faults {
		out = append(out, Diagnostic{
			Code:    string(f.Code()),
			Line:    f.Line(),
			Message: f.Message(),
		})
	}
	return out
}
