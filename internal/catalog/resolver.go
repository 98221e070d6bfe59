package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

var (
	ErrSubjectRequired = errors.New("subject is required")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidGrade    = errors.New("grade must be between 1 and 11")
)

// Strategy selects how a source format identifies its titles.
type Strategy int

const (
	// ByISBN matches on ISBN, then on title, then creates.
	ByISBN Strategy = iota
	// ByExternalKey matches on the (possibly year-suffixed) external key.
	ByExternalKey
	// ByTitle matches on the case-insensitive title only.
	ByTitle
)

// TitleRef is what a spreadsheet row says about a title.
type TitleRef struct {
	Grade       int
	SubjectID   int64
	ISBN        string
	ExternalKey string
	Title       string
	Authors     string
	Publisher   string
	Year        *int
}

// Resolver finds or creates canonical subjects and titles. Atomicity of
// each find-or-create is delegated to the store.
type Resolver struct {
	subjects domain.SubjectStore
	titles   domain.TitleStore
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(subjects domain.SubjectStore, titles domain.TitleStore) *Resolver {
	return &Resolver{subjects: subjects, titles: titles}
}

// Subject returns the subject named name, creating it on first use.
func (r *Resolver) Subject(ctx context.Context, name string) (domain.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Subject{}, ErrSubjectRequired
	}
	return r.subjects.FindOrCreateSubject(ctx, name)
}

// Resolve maps ref to a BookTitle using strategy. Descriptive fields of a
// matched title are overwritten with ref's values.
func (r *Resolver) Resolve(ctx context.Context, strategy Strategy, ref TitleRef) (domain.BookTitle, error) {
	ref.ISBN = strings.TrimSpace(ref.ISBN)
	ref.ExternalKey = strings.TrimSpace(ref.ExternalKey)
	ref.Title = strings.TrimSpace(ref.Title)

	if ref.Grade < 1 || ref.Grade > 11 {
		return domain.BookTitle{}, errors.Wrapf(ErrInvalidGrade, "got %d", ref.Grade)
	}
	if ref.Title == "" {
		return domain.BookTitle{}, ErrTitleRequired
	}

	switch strategy {
	case ByISBN:
		return r.byISBN(ctx, ref)
	case ByExternalKey:
		if ref.ExternalKey == "" {
			return r.upsert(ctx, domain.KeyTitle, ref.Title, ref)
		}
		return r.upsert(ctx, domain.KeyExternal, ref.ExternalKey, ref)
	default:
		return r.upsert(ctx, domain.KeyTitle, ref.Title, ref)
	}
}

func (r *Resolver) byISBN(ctx context.Context, ref TitleRef) (domain.BookTitle, error) {
	if ref.ISBN == "" {
		return r.upsert(ctx, domain.KeyTitle, ref.Title, ref)
	}

	_, found, err := r.titles.FindTitle(ctx, r.key(domain.KeyISBN, ref.ISBN, ref))
	if err != nil {
		return domain.BookTitle{}, err
	}
	if found {
		return r.upsert(ctx, domain.KeyISBN, ref.ISBN, ref)
	}

	// A title entered earlier without ISBN adopts this one.
	_, found, err = r.titles.FindTitle(ctx, r.key(domain.KeyTitle, ref.Title, ref))
	if err != nil {
		return domain.BookTitle{}, err
	}
	if found {
		return r.upsert(ctx, domain.KeyTitle, ref.Title, ref)
	}
	return r.upsert(ctx, domain.KeyISBN, ref.ISBN, ref)
}

func (r *Resolver) key(kind domain.KeyKind, value string, ref TitleRef) domain.TitleKey {
	return domain.TitleKey{Kind: kind, Value: value, Grade: ref.Grade, SubjectID: ref.SubjectID}
}

func (r *Resolver) upsert(ctx context.Context, kind domain.KeyKind, value string, ref TitleRef) (domain.BookTitle, error) {
	t, err := r.titles.UpsertTitle(ctx, r.key(kind, value, ref), domain.BookTitle{
		ISBN:        ref.ISBN,
		ExternalKey: ref.ExternalKey,
		Title:       ref.Title,
		Authors:     strings.TrimSpace(ref.Authors),
		Publisher:   strings.TrimSpace(ref.Publisher),
		Year:        ref.Year,
		Grade:       ref.Grade,
		SubjectID:   ref.SubjectID,
	})
	if err != nil {
		return domain.BookTitle{}, errors.Wrapf(err, "resolve title by %s", kind)
	}
	return t, nil
}
