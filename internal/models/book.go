package models

import (
	"errors"
	"strings"
	"time"
)

// Book.Quantity counts the copies currently available for checkout.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Language  string    `json:"language"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Book) Validate() error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Language = strings.TrimSpace(b.Language)
	if b.Title == "" {
		return errors.New("title is required")
	}
	if b.Author == "" {
		return errors.New("author is required")
	}
	if b.Language == "" {
		return errors.New("language is required")
	}
	if b.Price < 0 {
		return errors.New("price must be >= 0")
	}
	if b.Quantity < 0 {
		return errors.New("quantity must be >= 0")
	}
	return nil
}

type BookFilter struct {
	Title         string
	Author        string
	Language      string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// BookPatch lists the columns an edit touches; nil fields keep the stored
// value. Quantity, when set, replaces the available count outright.
type BookPatch struct {
	Title    *string
	Author   *string
	Language *string
	Price    *float64
	Quantity *int
}

func (p *BookPatch) Validate() error {
	for _, f := range []struct {
		v    *string
		name string
	}{{p.Title, "title"}, {p.Author, "author"}, {p.Language, "language"}} {
		if f.v == nil {
			continue
		}
		*f.v = strings.TrimSpace(*f.v)
		if *f.v == "" {
			return errors.New(f.name + " must not be empty")
		}
	}
	if p.Price != nil && *p.Price < 0 {
		return errors.New("price must be >= 0")
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return errors.New("quantity must be >= 0")
	}
	return nil
}
