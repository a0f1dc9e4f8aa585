// Package view maps loader state to what the user sees. Build is pure; the
// terminal and HTML front ends only draw the Model it returns.
package view

import (
	"strings"

	"github.com/jask/usercards/internal/loader"
	"github.com/jask/usercards/internal/users"
)

const (
	LoadingMessage  = "Loading items..."
	EmptyMessage    = "No items found."
	FallbackMessage = "Something went wrong."
	RetryLabel      = "Retry"
	RefreshLabel    = "Refresh"
	Missing         = "—"
)

// StatusKind selects what the status banner shows.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusLoading
	StatusError
)

// Status is the banner above the list.
type Status struct {
	Kind    StatusKind
	Message string
	Spinner bool
	// Retry is set when the banner carries a retry button.
	Retry bool
}

// Card is one user rendered for display. Fields hold raw text; escaping is
// the job of each front end.
type Card struct {
	Name     string
	Username string
	Email    string
	MailTo   string
	Company  string
	City     string
}

// Model is the full view derived from a state snapshot.
type Model struct {
	Status          Status
	Busy            bool
	RefreshDisabled bool
	// FocusRetry asks the front end to move input focus to the retry button.
	FocusRetry bool
	// ShowList is false while loading or errored; the list keeps whatever it
	// showed last.
	ShowList bool
	Cards    []Card
	// Empty is set when the list is shown with no users; front ends draw a
	// single EmptyMessage placeholder.
	Empty bool
}

// Build derives the view from s.
func Build(s loader.State) Model {
	m := Model{
		Busy:            s.Loading,
		RefreshDisabled: s.Loading,
	}
	switch {
	case s.Loading:
		m.Status = Status{Kind: StatusLoading, Message: LoadingMessage, Spinner: true}
	case s.Err != nil:
		msg := strings.TrimSpace(s.Err.Error())
		if msg == "" {
			msg = FallbackMessage
		}
		m.Status = Status{Kind: StatusError, Message: msg, Retry: true}
		m.FocusRetry = true
	default:
		m.ShowList = true
		m.Cards = Cards(s.Users)
		m.Empty = len(m.Cards) == 0
	}
	return m
}

// Cards converts users to cards in order.
func Cards(list []users.User) []Card {
	out := make([]Card, 0, len(list))
	for _, u := range list {
		c := Card{
			Name:     u.Name,
			Username: u.Username,
			Email:    u.Email,
			MailTo:   MailTo(u.Email),
			Company:  Missing,
			City:     Missing,
		}
		if u.Company != nil {
			c.Company = u.Company.Name
		}
		if u.Address != nil {
			c.City = u.Address.City
		}
		out = append(out, c)
	}
	return out
}

// MailTo builds a mailto link target with the address percent-encoded.
func MailTo(email string) string {
	return "mailto:" + EncodeURIComponent(email)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s as UTF-8, leaving only
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) unescaped.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
