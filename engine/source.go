package engine

import (
	"context"

	"github.com/thisisjab/cmoon/entity"
)

// Source is an interface that defines the contract for source file providers.
type Source interface {
	Name() string
	Provide(ctx context.Context, fileChan chan<- entity.SourceFile) error
	ProcessorNames() []string
}
