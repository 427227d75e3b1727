package book

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const defaultAssembleWorkers = 8

// Service runs catalog searches against a Repository.
type Service struct {
	repo    Repository
	workers int
}

// NewService creates a new book service. workers bounds how many records of a
// page are assembled concurrently; values below 1 use the default.
func NewService(repo Repository, workers int) *Service {
	if workers < 1 {
		workers = defaultAssembleWorkers
	}
	return &Service{repo: repo, workers: workers}
}

// Search returns the requested page of books matching f together with the
// total number of matches.
func (s *Service) Search(ctx context.Context, f Filter, pr PageRequest) (Result, error) {
	pred := f.Compile()

	total, err := s.repo.Count(ctx, pred)
	if err != nil {
		return Result{}, fmt.Errorf("count books: %w", err)
	}

	page, numPages, offset := pr.Window(total)
	res := Result{
		Count:    total,
		Page:     page,
		PageSize: pr.Size,
		NumPages: numPages,
		Records:  []Record{},
	}
	if total == 0 {
		return res, nil
	}

	books, err := s.repo.List(ctx, pred, pr.Size, offset)
	if err != nil {
		return Result{}, fmt.Errorf("list books: %w", err)
	}

	records, err := s.assemble(ctx, dedupe(books))
	if err != nil {
		return Result{}, err
	}
	res.Records = records
	return res, nil
}

func dedupe(books []Book) []Book {
	seen := make(map[int]bool, len(books))
	out := books[:0:0]
	for _, b := range books {
		if seen[b.CatalogID] {
			continue
		}
		seen[b.CatalogID] = true
		out = append(out, b)
	}
	return out
}

// assemble builds one record per book, preserving order. Each record is
// written to its own slot only once all of its relations have been loaded.
func (s *Service) assemble(ctx context.Context, books []Book) ([]Record, error) {
	records := make([]Record, len(books))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, b := range books {
		i, b := i, b
		g.Go(func() error {
			rec, err := s.assembleOne(gctx, b)
			if err != nil {
				return fmt.Errorf("assemble book %d: %w", b.CatalogID, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) assembleOne(ctx context.Context, b Book) (Record, error) {
	authors, err := s.repo.Authors(ctx, b.ID)
	if err != nil {
		return Record{}, fmt.Errorf("authors: %w", err)
	}
	languages, err := s.repo.Languages(ctx, b.ID)
	if err != nil {
		return Record{}, fmt.Errorf("languages: %w", err)
	}
	subjects, err := s.repo.Subjects(ctx, b.ID)
	if err != nil {
		return Record{}, fmt.Errorf("subjects: %w", err)
	}
	shelves, err := s.repo.Bookshelves(ctx, b.ID)
	if err != nil {
		return Record{}, fmt.Errorf("bookshelves: %w", err)
	}
	formats, err := s.repo.Formats(ctx, b.ID)
	if err != nil {
		return Record{}, fmt.Errorf("formats: %w", err)
	}

	return Record{
		ID:            b.CatalogID,
		Title:         b.Title,
		Authors:       nonNil(authors),
		Languages:     nonNil(languages),
		Subjects:      nonNil(subjects),
		Bookshelves:   nonNil(shelves),
		DownloadLinks: nonNil(formats),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
