package processor

import (
	"github.com/thisisjab/cmoon/entity"
	"github.com/thisisjab/cmoon/parser"
)

type ParseProcessorConfig struct {
	Name string `yaml:"-"`
}

// ParseProcessor builds the syntax tree from the report's tokens. Reports whose lexing
// failed are passed through untouched.
type ParseProcessor struct {
	cfg ParseProcessorConfig
}

func NewParseProcessor(cfg ParseProcessorConfig) (*ParseProcessor, error) {
	return &ParseProcessor{cfg: cfg}, nil
}

func (p *ParseProcessor) Name() string {
	return p.cfg.Name
}

func (p *ParseProcessor) Process(report entity.Report) (entity.Report, error) {
	if report.Failed() {
		return report, nil
	}

	program, err := parser.New(report.Tokens).ParseProgram()
	if err != nil {
		report.AddError(entity.ParseStage, err)
		return report, nil
	}

	report.Program = program
	return report, nil
}
