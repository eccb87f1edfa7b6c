package processor

import (
	"github.com/thisisjab/cmoon/entity"
	"github.com/thisisjab/cmoon/lexer"
)

type LexProcessorConfig struct {
	Name string `yaml:"-"`
	// Recover keeps scanning past lexical errors and reports all of them.
	Recover bool `yaml:"recover"`
}

// LexProcessor tokenizes the report's source text.
type LexProcessor struct {
	cfg LexProcessorConfig
}

func NewLexProcessor(cfg LexProcessorConfig) (*LexProcessor, error) {
	return &LexProcessor{cfg: cfg}, nil
}

func (p *LexProcessor) Name() string {
	return p.cfg.Name
}

func (p *LexProcessor) Process(report entity.Report) (entity.Report, error) {
	l := lexer.New(string(report.Content))

	if p.cfg.Recover {
		tokens, err := l.ScanAll()
		report.Tokens = tokens
		report.AddError(entity.LexStage, err)
		return report, nil
	}

	tokens, err := l.Scan()
	report.Tokens = tokens
	report.AddError(entity.LexStage, err)

	return report, nil
}
