package application

import "context"

// UseCase is one application command: input in, result or error out.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
