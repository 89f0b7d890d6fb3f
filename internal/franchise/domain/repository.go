package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Reader is the read-only port the compliance engine uses to resolve franchises.
type Reader interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Franchise, error)
	ListActive(ctx context.Context) ([]Franchise, error)
}
