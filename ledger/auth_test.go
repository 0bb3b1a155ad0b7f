package ledger

import (
	"errors"
	"path/filepath"
	"testing"
)

func tempCredentialFile(t *testing.T) *CredentialFile {
	t.Helper()
	cf, err := NewCredentialFile(filepath.Join(t.TempDir(), "staff.txt"))
	if err != nil {
		t.Fatalf("new credential file: %v", err)
	}
	return cf
}

func TestRegisterAndAuthenticate(t *testing.T) {
	cf := tempCredentialFile(t)

	empty, err := cf.Empty()
	if err != nil || !empty {
		t.Fatalf("fresh file: empty=%v err=%v", empty, err)
	}
	if err := cf.Register("admin", "secret123", RoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}

	sess, err := cf.Authenticate("admin", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sess.Username != "admin" || sess.Role != RoleAdmin {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := cf.Authenticate("admin", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong password: want ErrUnauthorized, got %v", err)
	}
	if _, err := cf.Authenticate("nobody", "secret123"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown user: want ErrUnauthorized, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	cf := tempCredentialFile(t)
	if err := cf.Register("admin", "secret123", RoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := cf.Register("admin", "other", RoleLibrarian); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate: want ErrDuplicateID, got %v", err)
	}
	if err := cf.Register("", "pw", RoleAdmin); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty username: want ErrValidation, got %v", err)
	}
	if err := cf.Register("a,b", "pw", RoleAdmin); !errors.Is(err, ErrValidation) {
		t.Fatalf("comma username: want ErrValidation, got %v", err)
	}
}

func TestUnregisterUserRequiresAdminRole(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	sess := Session{Username: "lib1", Role: RoleLibrarian}
	if _, err := UnregisterUser(sess, alice, users); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestUnregisterUserBlockedByUnpaidFines(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")
	users.ApplyFine(alice, 20)

	sess := Session{Username: "root", Role: RoleAdmin}
	if _, err := UnregisterUser(sess, alice, users); !errors.Is(err, ErrIneligible) {
		t.Fatalf("want ErrIneligible, got %v", err)
	}
	if _, err := users.Find("U1"); err != nil {
		t.Fatalf("user was removed despite fines: %v", err)
	}
}

func TestUnregisterUserBlockedByActiveLoans(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	books := tempBookLedger(t, users)
	books.Add(NewBook("Dune", "Frank Herbert", "111"))
	books.Borrow(alice, "111")

	sess := Session{Username: "root", Role: RoleAdmin}
	if _, err := UnregisterUser(sess, alice, users, books); !errors.Is(err, ErrIneligible) {
		t.Fatalf("want ErrIneligible, got %v", err)
	}
}

func TestUnregisterUserSucceedsWhenClear(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	books := tempBookLedger(t, users)
	books.Add(NewBook("Dune", "Frank Herbert", "111"))

	sess := Session{Username: "root", Role: RoleAdmin}
	removed, err := UnregisterUser(sess, alice, users, books)
	if err != nil || !removed {
		t.Fatalf("unregister: removed=%v err=%v", removed, err)
	}
	if _, err := users.Find("U1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user still present: %v", err)
	}
}
