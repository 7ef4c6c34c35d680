package run

import (
	"context"

	"github.com/google/uuid"
)

type RunRepository interface {
	Create(ctx context.Context, r *Run) error
	Finish(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}

//Personal.AI order the ending
