package ledger

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
)

// HoldingsReleaser is the slice of a media ledger the user ledger needs:
// releasing a user's holdings when their balance clears, and checking for
// active loans before unregistration.
type HoldingsReleaser interface {
	ReleaseAllFor(user *User) error
	HasActiveLoans(user *User) (bool, error)
}

// UserLedger owns the registered borrowers and their fine balances. Like
// the media ledgers it keeps no cache: every operation is a whole-file
// read-modify-write cycle.
type UserLedger struct {
	store    *FileStore[*User]
	receipts ReceiptSink
}

// NewUserLedger wraps the user file store.
func NewUserLedger(store *FileStore[*User]) *UserLedger {
	return &UserLedger{store: store}
}

// SetReceipts attaches the audit collaborator invoked after payments.
func (ul *UserLedger) SetReceipts(rs ReceiptSink) { ul.receipts = rs }

// All returns every registered user.
func (ul *UserLedger) All() ([]*User, error) {
	users, err := ul.store.ReadAll()
	return users, errors.Wrap(err, "load users")
}

// Add registers a user. Registration is idempotent: an existing ID is
// silently ignored.
func (ul *UserLedger) Add(user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user is required", ErrValidation)
	}
	if err := user.Validate(); err != nil {
		return err
	}
	users, err := ul.All()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == user.ID {
			return nil
		}
	}
	users = append(users, user)
	return errors.Wrap(ul.store.WriteAll(users), "persist users")
}

// Find returns the persisted user with the given ID.
func (ul *UserLedger) Find(id string) (*User, error) {
	users, err := ul.All()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
}

// ApplyFine increases the user's persisted fine balance. A nil user or a
// non-positive amount is a no-op, as is an ID not on file: fine posting
// must never fail the sweep over a charge that cannot land.
func (ul *UserLedger) ApplyFine(user *User, amount float64) error {
	if user == nil || amount <= 0 {
		return nil
	}
	users, err := ul.All()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == user.ID {
			u.FineBalance += amount
			if err := ul.store.WriteAll(users); err != nil {
				return errors.Wrap(err, "persist users")
			}
			user.FineBalance = u.FineBalance
			return nil
		}
	}
	log.Printf("warning: fine of %s not applied, user %s is not registered", formatAmount(amount), user.ID)
	return nil
}

// PayFine reduces the user's fine balance. When the balance reaches
// exactly zero, every supplied media ledger releases the user's holdings;
// payment routes through here precisely because the release spans
// categories.
func (ul *UserLedger) PayFine(user *User, amount float64, holders ...HoldingsReleaser) error {
	if user == nil {
		return fmt.Errorf("%w: user is required", ErrValidation)
	}
	users, err := ul.All()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID != user.ID {
			continue
		}
		if amount <= 0 {
			return fmt.Errorf("%w: payment must be positive", ErrInvalidAmount)
		}
		if amount > u.FineBalance {
			return fmt.Errorf("%w: payment exceeds fine balance of %s", ErrInvalidAmount, formatAmount(u.FineBalance))
		}
		u.FineBalance -= amount
		if err := ul.store.WriteAll(users); err != nil {
			return errors.Wrap(err, "persist users")
		}
		user.FineBalance = u.FineBalance
		if ul.receipts != nil {
			if err := ul.receipts.RecordFineReceipt(u, amount, true, "", ""); err != nil {
				log.Printf("warning: payment receipt for %s not recorded: %v", u.Name, err)
			}
		}
		if u.FineBalance == 0 {
			for _, h := range holders {
				if err := h.ReleaseAllFor(u); err != nil {
					return errors.Wrapf(err, "release holdings for %s", u.ID)
				}
			}
		}
		return nil
	}
	return fmt.Errorf("%w: user %s", ErrNotFound, user.ID)
}

// Unregister removes the user if present and reports whether a removal
// occurred. Preconditions (no fines, no active loans) belong to the
// calling admin workflow, not here.
func (ul *UserLedger) Unregister(user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	users, err := ul.All()
	if err != nil {
		return false, err
	}
	kept := users[:0]
	removed := false
	for _, u := range users {
		if u.ID == user.ID {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	if !removed {
		return false, nil
	}
	return true, errors.Wrap(ul.store.WriteAll(kept), "persist users")
}
