package ledger

import (
	"fmt"
	"log"
	"strings"

	"github.com/pkg/errors"
)

// MediaLedger owns the full collection of one media category: CRUD plus the
// lending lifecycle. It holds no cache; every operation re-reads the
// category file so that state survives process restarts and operations
// never act on a stale snapshot.
type MediaLedger[T Lendable] struct {
	label     string
	loanDays  int
	strategy  FineStrategy
	store     *FileStore[T]
	users     *UserLedger
	receipts  ReceiptSink
	observers []Observer
}

// NewMediaLedger wires a category ledger. label names the category in
// messages ("book", "CD"), loanDays is the category's borrowing window.
func NewMediaLedger[T Lendable](label string, loanDays int, strategy FineStrategy, store *FileStore[T], users *UserLedger) *MediaLedger[T] {
	return &MediaLedger[T]{
		label:    label,
		loanDays: loanDays,
		strategy: strategy,
		store:    store,
		users:    users,
	}
}

// AddObserver registers a notification sink for overdue and fine events.
func (l *MediaLedger[T]) AddObserver(o Observer) {
	l.observers = append(l.observers, o)
}

// SetReceipts attaches the audit collaborator invoked after fine posting.
func (l *MediaLedger[T]) SetReceipts(rs ReceiptSink) { l.receipts = rs }

// Label returns the category name used in messages.
func (l *MediaLedger[T]) Label() string { return l.label }

// LoanDays returns the category's borrowing window in days.
func (l *MediaLedger[T]) LoanDays() int { return l.loanDays }

// All returns every record in the category.
func (l *MediaLedger[T]) All() ([]T, error) {
	items, err := l.store.ReadAll()
	return items, errors.Wrapf(err, "load %s records", l.label)
}

// Add appends a new record and persists the category. The record must pass
// validation and carry an identity not already present.
func (l *MediaLedger[T]) Add(item T) (T, error) {
	var zero T
	if err := item.Validate(); err != nil {
		return zero, err
	}
	items, err := l.All()
	if err != nil {
		return zero, err
	}
	for _, existing := range items {
		if existing.Key() == item.Key() {
			return zero, fmt.Errorf("%w: %s with ID %s already exists", ErrDuplicateID, l.label, item.Key())
		}
	}
	items = append(items, item)
	if err := l.store.WriteAll(items); err != nil {
		return zero, errors.Wrapf(err, "persist %s records", l.label)
	}
	return item, nil
}

// Borrow lends the record with the given identity to the user, setting the
// due date to today plus the category window.
func (l *MediaLedger[T]) Borrow(user *User, id string) (T, error) {
	var zero T
	if user == nil {
		return zero, fmt.Errorf("%w: user is required", ErrValidation)
	}
	items, err := l.All()
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.Key() != id {
			continue
		}
		circ := item.Circ()
		if !circ.Available {
			return zero, fmt.Errorf("%w: %s %s", ErrAlreadyBorrowed, l.label, id)
		}
		if !l.canBorrow(user, items) {
			return zero, fmt.Errorf("%w: overdue %ss or unpaid fines", ErrIneligible, l.label)
		}
		circ.Available = false
		circ.BorrowerID = user.ID
		circ.DueDate = today().AddDate(0, 0, l.loanDays)
		circ.FineApplied = false
		if err := l.store.WriteAll(items); err != nil {
			return zero, errors.Wrapf(err, "persist %s records", l.label)
		}
		return item, nil
	}
	return zero, fmt.Errorf("%w: %s %s", ErrNotFound, l.label, id)
}

// Search returns records whose title or identifying fields contain the
// query, case-insensitively. An empty query matches nothing.
func (l *MediaLedger[T]) Search(query string) ([]T, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []T{}, nil
	}
	items, err := l.All()
	if err != nil {
		return nil, err
	}
	var matched []T
	for _, item := range items {
		if item.Matches(query) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Overdue returns the records currently past their due date. Read-only:
// the fineApplied flag is untouched.
func (l *MediaLedger[T]) Overdue() ([]T, error) {
	items, err := l.All()
	if err != nil {
		return nil, err
	}
	var overdue []T
	for _, item := range items {
		circ := item.Circ()
		if circ.BorrowerID != "" && circ.Overdue() {
			overdue = append(overdue, item)
		}
	}
	return overdue, nil
}

// CanBorrow reports whether the user may borrow in this category right now.
func (l *MediaLedger[T]) CanBorrow(user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	items, err := l.All()
	if err != nil {
		return false, err
	}
	return l.canBorrow(user, items), nil
}

// canBorrow checks eligibility against a holdings snapshot: no unpaid
// fines, and no overdue holding of this category.
func (l *MediaLedger[T]) canBorrow(user *User, items []T) bool {
	if !user.CanBorrow() {
		return false
	}
	for _, item := range items {
		circ := item.Circ()
		if circ.OnLoan() && circ.BorrowerID == user.ID && circ.Overdue() {
			return false
		}
	}
	return true
}

// HasActiveLoans reports whether the user currently holds any record of
// this category. Gates user unregistration.
func (l *MediaLedger[T]) HasActiveLoans(user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	items, err := l.All()
	if err != nil {
		return false, err
	}
	for _, item := range items {
		circ := item.Circ()
		if circ.OnLoan() && circ.BorrowerID == user.ID {
			return true, nil
		}
	}
	return false, nil
}

// ReleaseAllFor resets every record borrowed by the user to available,
// clearing borrower, due date and fine flag. Invoked when the user's fine
// balance reaches zero.
func (l *MediaLedger[T]) ReleaseAllFor(user *User) error {
	if user == nil {
		return nil
	}
	items, err := l.All()
	if err != nil {
		return err
	}
	changed := false
	for _, item := range items {
		circ := item.Circ()
		if circ.BorrowerID == user.ID {
			circ.release()
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return errors.Wrapf(l.store.WriteAll(items), "persist %s records", l.label)
}

// PostFine charges the borrower of an overdue record exactly once. The
// fineApplied flag is the idempotency boundary: once set and persisted,
// repeated invocations are no-ops. Returns the amount charged, 0 when
// nothing was posted.
func (l *MediaLedger[T]) PostFine(item T) (int, error) {
	items, err := l.All()
	if err != nil {
		return 0, err
	}
	for _, rec := range items {
		if rec.Key() != item.Key() {
			continue
		}
		circ := rec.Circ()
		if circ.FineApplied || circ.Available || circ.BorrowerID == "" {
			return 0, nil
		}
		days := OverdueDays(circ.DueDate)
		if days <= 0 {
			return 0, nil
		}
		amount := l.strategy.CalculateFine(days)
		if amount <= 0 {
			return 0, nil
		}
		borrower, err := l.users.Find(circ.BorrowerID)
		if err != nil {
			return 0, errors.Wrapf(err, "fine for %s %q", l.label, rec.Label())
		}
		if err := l.users.ApplyFine(borrower, float64(amount)); err != nil {
			return 0, errors.Wrapf(err, "fine for %s %q", l.label, rec.Label())
		}
		circ.FineApplied = true
		if err := l.store.WriteAll(items); err != nil {
			return 0, errors.Wrapf(err, "persist %s records", l.label)
		}
		l.notifyObservers(borrower, fmt.Sprintf("A fine of %d NIS was issued for the overdue %s %q.", amount, l.label, rec.Label()))
		if l.receipts != nil {
			if err := l.receipts.RecordFineReceipt(borrower, float64(amount), false, rec.Label(), l.label); err != nil {
				log.Printf("warning: fine receipt for %s not recorded: %v", borrower.Name, err)
			}
		}
		return amount, nil
	}
	return 0, fmt.Errorf("%w: %s %s", ErrNotFound, l.label, item.Key())
}

// PostOverdueFines sweeps the category and posts the fine for every
// overdue record that has not been charged yet. Safe to re-run: records
// already charged are skipped. Returns the total amount posted.
func (l *MediaLedger[T]) PostOverdueFines() (int, error) {
	overdue, err := l.Overdue()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, item := range overdue {
		amount, err := l.PostFine(item)
		if err != nil {
			return total, err
		}
		total += amount
	}
	return total, nil
}

// SendReminders notifies each listed user holding overdue records of this
// category how many they have.
func (l *MediaLedger[T]) SendReminders(users []*User) error {
	overdue, err := l.Overdue()
	if err != nil {
		return err
	}
	for _, user := range users {
		count := 0
		for _, item := range overdue {
			if item.Circ().BorrowerID == user.ID {
				count++
			}
		}
		if count > 0 {
			l.notifyObservers(user, fmt.Sprintf("You have %d overdue %s(s).", count, l.label))
		}
	}
	return nil
}

// notifyObservers fans an event out to every sink. Sinks handle their own
// failures; a broken sink cannot roll back work already persisted.
func (l *MediaLedger[T]) notifyObservers(user *User, message string) {
	for _, o := range l.observers {
		o.Notify(user, message)
	}
}
