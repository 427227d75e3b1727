package book

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names recognised as filters.
const (
	ParamBookIDs  = "book_ids"
	ParamLanguage = "language"
	ParamMimeType = "mime_type"
	ParamTopic    = "topic"
	ParamAuthor   = "author"
	ParamTitle    = "title"
)

// Filter is the normalized set of search criteria. An empty slice means the
// field was not supplied and places no constraint on the result.
type Filter struct {
	BookIDs   []int
	Languages []string
	MimeTypes []string
	Topics    []string
	Authors   []string
	Titles    []string
}

// ParseFilter reads the filter parameters from a query string. Every occurrence
// of a parameter is split on commas; blank and malformed tokens are dropped.
func ParseFilter(values url.Values) Filter {
	f := Filter{
		Languages: splitTokens(values[ParamLanguage], nil),
		MimeTypes: splitTokens(values[ParamMimeType], stripQuotes),
		Topics:    splitTokens(values[ParamTopic], nil),
		Authors:   splitTokens(values[ParamAuthor], nil),
		Titles:    splitTokens(values[ParamTitle], nil),
	}

	seen := make(map[int]bool)
	for _, tok := range splitTokens(values[ParamBookIDs], nil) {
		id, err := strconv.Atoi(tok)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		f.BookIDs = append(f.BookIDs, id)
	}
	return f
}

// IsEmpty reports whether no field carries a constraint.
func (f Filter) IsEmpty() bool {
	return len(f.BookIDs) == 0 && len(f.Languages) == 0 && len(f.MimeTypes) == 0 &&
		len(f.Topics) == 0 && len(f.Authors) == 0 && len(f.Titles) == 0
}

func splitTokens(raw []string, clean func(string) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range raw {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if clean != nil {
				tok = clean(tok)
			}
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

func stripQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// Source names the relation a Term is evaluated against.
type Source int

const (
	SourceCatalogID Source = iota + 1
	SourceLanguage
	SourceFormat
	SourceSubject
	SourceBookshelf
	SourceAuthor
	SourceTitle
)

func (s Source) String() string {
	switch s {
	case SourceCatalogID:
		return "catalog_id"
	case SourceLanguage:
		return "language"
	case SourceFormat:
		return "format"
	case SourceSubject:
		return "subject"
	case SourceBookshelf:
		return "bookshelf"
	case SourceAuthor:
		return "author"
	case SourceTitle:
		return "title"
	}
	return "unknown"
}

// Term selects the set of books related to Source by a single token.
// SourceCatalogID compares Number exactly, SourceLanguage compares Text
// case-insensitively, every other source matches Text as a case-insensitive
// substring.
type Term struct {
	Source Source
	Text   string
	Number int
}

// Clause is the union of the book sets selected by its terms.
type Clause struct {
	Field string
	Terms []Term
}

// Predicate is the intersection of its clauses. A predicate without clauses
// matches every book.
type Predicate struct {
	Clauses []Clause
}

// IsEmpty reports whether the predicate matches every book.
func (p Predicate) IsEmpty() bool {
	return len(p.Clauses) == 0
}

// Compile turns the filter into a predicate with one clause per supplied field.
func (f Filter) Compile() Predicate {
	var p Predicate

	if len(f.BookIDs) > 0 {
		c := Clause{Field: ParamBookIDs}
		for _, id := range f.BookIDs {
			c.Terms = append(c.Terms, Term{Source: SourceCatalogID, Number: id})
		}
		p.Clauses = append(p.Clauses, c)
	}

	p.add(ParamLanguage, f.Languages, SourceLanguage)
	p.add(ParamMimeType, f.MimeTypes, SourceFormat)
	p.add(ParamTopic, f.Topics, SourceSubject, SourceBookshelf)
	p.add(ParamAuthor, f.Authors, SourceAuthor)
	p.add(ParamTitle, f.Titles, SourceTitle)

	return p
}

func (p *Predicate) add(field string, tokens []string, sources ...Source) {
	if len(tokens) == 0 {
		return
	}
	c := Clause{Field: field}
	for _, tok := range tokens {
		for _, src := range sources {
			c.Terms = append(c.Terms, Term{Source: src, Text: tok})
		}
	}
	p.Clauses = append(p.Clauses, c)
}
