package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the read-only contract for catalog storage.
type Repository interface {
	// Count returns the number of distinct books matching p.
	Count(ctx context.Context, p Predicate) (int, error)
	// List returns one window of the books matching p, most downloaded first.
	List(ctx context.Context, p Predicate, limit, offset int) ([]Book, error)

	Authors(ctx context.Context, bookID int) ([]Author, error)
	Languages(ctx context.Context, bookID int) ([]string, error)
	Subjects(ctx context.Context, bookID int) ([]string, error)
	Bookshelves(ctx context.Context, bookID int) ([]string, error)
	Formats(ctx context.Context, bookID int) ([]Format, error)
}
