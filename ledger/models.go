package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Circulation holds the lending state shared by every media category.
// A record is available exactly when it has no borrower and no due date.
type Circulation struct {
	Available   bool      `json:"available"`
	BorrowerID  string    `json:"borrower_id,omitempty"`
	DueDate     time.Time `json:"due_date,omitempty"` // zero while not on loan
	FineApplied bool      `json:"fine_applied,omitempty"`
}

// OnLoan reports whether the record is currently borrowed.
func (c *Circulation) OnLoan() bool { return !c.Available }

// Overdue reports whether the loan is past its due date as of today.
// Date granularity, zero grace: the first overdue day is due date + 1.
func (c *Circulation) Overdue() bool {
	return !c.Available && !c.DueDate.IsZero() && today().After(dateOnly(c.DueDate))
}

// release resets the record to the freshly-returned state.
func (c *Circulation) release() {
	c.Available = true
	c.BorrowerID = ""
	c.DueDate = time.Time{}
	c.FineApplied = false
}

// Lendable is the capability the generic ledger needs from a media record:
// stable identity, a display title, and access to its circulation state.
type Lendable interface {
	Key() string
	Label() string
	Circ() *Circulation
	Validate() error
	Matches(query string) bool
}

// Book is a lendable book, identified by its ISBN.
type Book struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Circulation
}

// NewBook returns an available book record.
func NewBook(title, author, isbn string) *Book {
	return &Book{Title: title, Author: author, ISBN: isbn, Circulation: Circulation{Available: true}}
}

func (b *Book) Key() string        { return b.ISBN }
func (b *Book) Label() string      { return b.Title }
func (b *Book) Circ() *Circulation { return &b.Circulation }

// Validate checks the required identifying fields.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" || strings.TrimSpace(b.ISBN) == "" {
		return fmt.Errorf("%w: title, author and ISBN are required", ErrValidation)
	}
	return nil
}

// Matches reports whether the lower-cased query occurs in the title,
// author or ISBN.
func (b *Book) Matches(query string) bool {
	return strings.Contains(strings.ToLower(b.Title), query) ||
		strings.Contains(strings.ToLower(b.Author), query) ||
		strings.Contains(strings.ToLower(b.ISBN), query)
}

// CD is a lendable disc, identified by its catalog ID.
type CD struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	CatalogID string `json:"catalog_id"`
	Circulation
}

// NewCD returns an available CD record.
func NewCD(title, artist, catalogID string) *CD {
	return &CD{Title: title, Artist: artist, CatalogID: catalogID, Circulation: Circulation{Available: true}}
}

func (c *CD) Key() string        { return c.CatalogID }
func (c *CD) Label() string      { return c.Title }
func (c *CD) Circ() *Circulation { return &c.Circulation }

func (c *CD) Validate() error {
	if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Artist) == "" || strings.TrimSpace(c.CatalogID) == "" {
		return fmt.Errorf("%w: title, artist and catalog ID are required", ErrValidation)
	}
	return nil
}

func (c *CD) Matches(query string) bool {
	return strings.Contains(strings.ToLower(c.Title), query) ||
		strings.Contains(strings.ToLower(c.Artist), query) ||
		strings.Contains(strings.ToLower(c.CatalogID), query)
}

// User is a registered borrower with a running fine balance.
type User struct {
	Name        string  `json:"name"`
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FineBalance float64 `json:"fine_balance"`
}

// NewUser returns a user with a zero fine balance.
func NewUser(name, id, email string) *User {
	return &User{Name: name, ID: id, Email: email}
}

// Validate checks the required identifying fields.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: name and ID are required", ErrValidation)
	}
	return nil
}

// CanBorrow reports whether the user's balance alone permits borrowing.
// Per-category overdue holdings are checked by the media ledger.
func (u *User) CanBorrow() bool { return u.FineBalance == 0 }

// today returns the current calendar date at midnight local time.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// OverdueDays returns how many whole days past due the date is, or 0.
func OverdueDays(due time.Time) int {
	if due.IsZero() {
		return 0
	}
	days := int(today().Sub(dateOnly(due)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
