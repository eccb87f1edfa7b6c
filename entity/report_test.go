package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/thisisjab/cmoon/fault"
)

func TestReportAddError(t *testing.T) {
	r := NewReport(SourceFile{Source: "files", Path: "main.c", Content: []byte("@"), ReadAt: time.Now()})
	assert.False(t, r.Failed())

	r.AddError(LintStage, fault.New(fault.BadInputCode, "style").WithLine(3))
	assert.False(t, r.Failed())
	assert.Len(t, r.Diagnostics, 1)

	r.AddError(LexStage, errors.Join(
		fault.New(fault.UnrecognizedCharacterCode, "unrecognized character '@'").WithLine(0),
		errors.New("boom"),
	))
	assert.True(t, r.Failed())
	assert.Equal(t, LexStage, r.Stage)

	assert.Equal(t, []Diagnostic{
		{Code: "bad_input", Line: 3, Message: "style"},
		{Code: "unrecognized_character", Line: 0, Message: "unrecognized character '@'"},
		{Code: "unknown", Line: fault.NoLine, Message: "boom"},
	}, r.Diagnostics)

	r.AddError(ParseStage, nil)
	assert.Equal(t, LexStage, r.Stage)
}
