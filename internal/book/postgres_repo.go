package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Count(ctx context.Context, p Predicate) (int, error) {
	where, args := buildWhere(p, 1)

	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*) FROM books_book b "+where, args...).Scan(&total)
	return total, err
}

func (r *PostgresRepo) List(ctx context.Context, p Predicate, limit, offset int) ([]Book, error) {
	where, args := buildWhere(p, 1)
	argn := len(args) + 1

	dataSQL := fmt.Sprintf(`
		SELECT b.id, b.gutenberg_id, b.title, b.media_type, b.download_count
		FROM books_book b
		%s
		ORDER BY b.download_count DESC NULLS LAST, b.gutenberg_id ASC
		LIMIT $%d OFFSET $%d`,
		where, argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, limit, offset)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.CatalogID, &b.Title, &b.MediaType, &b.DownloadCount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Authors(ctx context.Context, bookID int) ([]Author, error) {
	const query = `
		SELECT a.name, a.birth_year, a.death_year
		FROM books_author a
		JOIN books_book_authors ba ON ba.author_id = a.id
		WHERE ba.book_id = $1
		ORDER BY ba.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.Name, &a.BirthYear, &a.DeathYear); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Languages(ctx context.Context, bookID int) ([]string, error) {
	return r.names(ctx, `
		SELECT l.code
		FROM books_language l
		JOIN books_book_languages bl ON bl.language_id = l.id
		WHERE bl.book_id = $1
		ORDER BY bl.id`, bookID)
}

func (r *PostgresRepo) Subjects(ctx context.Context, bookID int) ([]string, error) {
	return r.names(ctx, `
		SELECT s.name
		FROM books_subject s
		JOIN books_book_subjects bs ON bs.subject_id = s.id
		WHERE bs.book_id = $1
		ORDER BY bs.id`, bookID)
}

func (r *PostgresRepo) Bookshelves(ctx context.Context, bookID int) ([]string, error) {
	return r.names(ctx, `
		SELECT sh.name
		FROM books_bookshelf sh
		JOIN books_book_bookshelves bb ON bb.bookshelf_id = sh.id
		WHERE bb.book_id = $1
		ORDER BY bb.id`, bookID)
}

func (r *PostgresRepo) Formats(ctx context.Context, bookID int) ([]Format, error) {
	const query = `
		SELECT mime_type, url
		FROM books_format
		WHERE book_id = $1
		ORDER BY id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Format{}
	for rows.Next() {
		var f Format
		if err := rows.Scan(&f.MimeType, &f.URL); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) names(ctx context.Context, query string, bookID int) ([]string, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, bookID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// buildWhere renders p as a WHERE clause over books_book aliased as b. Each
// term is an id-set membership test so that a book reachable through several
// related rows is still counted once. Placeholders start at $argn.
func buildWhere(p Predicate, argn int) (string, []any) {
	if p.IsEmpty() {
		return "", nil
	}

	clauses := make([]string, 0, len(p.Clauses))
	args := []any{}
	for _, c := range p.Clauses {
		parts := make([]string, 0, len(c.Terms))
		for _, t := range c.Terms {
			sql, termArgs := termSQL(t, argn)
			parts = append(parts, sql)
			args = append(args, termArgs...)
			argn += len(termArgs)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func termSQL(t Term, argn int) (string, []any) {
	switch t.Source {
	case SourceCatalogID:
		return fmt.Sprintf("b.gutenberg_id = $%d", argn), []any{t.Number}
	case SourceLanguage:
		return fmt.Sprintf(`b.id IN (SELECT bl.book_id FROM books_book_languages bl JOIN books_language l ON l.id = bl.language_id WHERE LOWER(l.code) = LOWER($%d))`, argn), []any{t.Text}
	case SourceFormat:
		return fmt.Sprintf(`b.id IN (SELECT f.book_id FROM books_format f WHERE f.mime_type ILIKE $%d)`, argn), []any{containsPattern(t.Text)}
	case SourceSubject:
		return fmt.Sprintf(`b.id IN (SELECT bs.book_id FROM books_book_subjects bs JOIN books_subject s ON s.id = bs.subject_id WHERE s.name ILIKE $%d)`, argn), []any{containsPattern(t.Text)}
	case SourceBookshelf:
		return fmt.Sprintf(`b.id IN (SELECT bb.book_id FROM books_book_bookshelves bb JOIN books_bookshelf sh ON sh.id = bb.bookshelf_id WHERE sh.name ILIKE $%d)`, argn), []any{containsPattern(t.Text)}
	case SourceAuthor:
		return fmt.Sprintf(`b.id IN (SELECT ba.book_id FROM books_book_authors ba JOIN books_author a ON a.id = ba.author_id WHERE a.name ILIKE $%d)`, argn), []any{containsPattern(t.Text)}
	case SourceTitle:
		return fmt.Sprintf("b.title ILIKE $%d", argn), []any{containsPattern(t.Text)}
	}
	// Unknown sources never match.
	return "FALSE", nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
