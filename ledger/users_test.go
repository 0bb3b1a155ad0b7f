package ledger

import (
	"errors"
	"testing"
)

func TestAddUserIsIdempotent(t *testing.T) {
	users := tempUserLedger(t)
	if err := users.Add(NewUser("Alice", "U1", "alice@example.com")); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Same ID again: silently ignored, first record wins.
	if err := users.Add(NewUser("Alice Again", "U1", "other@example.com")); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	all, err := users.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Alice" {
		t.Fatalf("got %d users, first %q", len(all), all[0].Name)
	}
}

func TestAddUserValidates(t *testing.T) {
	users := tempUserLedger(t)
	if err := users.Add(nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("nil user: want ErrValidation, got %v", err)
	}
	if err := users.Add(NewUser("", "U1", "a@b.c")); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty name: want ErrValidation, got %v", err)
	}
}

func TestApplyFineNoops(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	if err := users.ApplyFine(nil, 10); err != nil {
		t.Fatalf("nil user: %v", err)
	}
	if err := users.ApplyFine(alice, 0); err != nil {
		t.Fatalf("zero amount: %v", err)
	}
	if err := users.ApplyFine(alice, -5); err != nil {
		t.Fatalf("negative amount: %v", err)
	}
	if err := users.ApplyFine(NewUser("Ghost", "U9", ""), 10); err != nil {
		t.Fatalf("unregistered user: %v", err)
	}

	u, _ := users.Find("U1")
	if u.FineBalance != 0 {
		t.Fatalf("balance mutated to %v by no-op calls", u.FineBalance)
	}
}

func TestApplyFineAccumulates(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	users.ApplyFine(alice, 30)
	users.ApplyFine(alice, 20)

	u, _ := users.Find("U1")
	if u.FineBalance != 50 {
		t.Fatalf("balance = %v, want 50", u.FineBalance)
	}
	if alice.FineBalance != 50 {
		t.Fatalf("caller's copy not refreshed: %v", alice.FineBalance)
	}
}

func TestPayFineValidation(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")
	users.ApplyFine(alice, 40)

	for _, amount := range []float64{0, -10, 41} {
		if err := users.PayFine(alice, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: want ErrInvalidAmount, got %v", amount, err)
		}
	}
	if err := users.PayFine(nil, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("nil user: want ErrValidation, got %v", err)
	}
	if err := users.PayFine(NewUser("Ghost", "U9", ""), 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: want ErrNotFound, got %v", err)
	}

	u, _ := users.Find("U1")
	if u.FineBalance != 40 {
		t.Fatalf("balance mutated to %v by rejected payments", u.FineBalance)
	}
}

func TestPayFinePartialKeepsHoldings(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	books := tempBookLedger(t, users)
	books.Add(NewBook("Dune", "Frank Herbert", "111"))
	books.Borrow(alice, "111")
	users.ApplyFine(alice, 40)

	if err := users.PayFine(alice, 15, books); err != nil {
		t.Fatalf("pay: %v", err)
	}
	u, _ := users.Find("U1")
	if u.FineBalance != 25 {
		t.Fatalf("balance = %v, want 25", u.FineBalance)
	}
	items, _ := books.All()
	if items[0].Available {
		t.Fatal("partial payment released holdings")
	}
}

func TestFullPaymentReleasesAcrossCategories(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	books := tempBookLedger(t, users)
	books.Add(NewBook("Dune", "Frank Herbert", "111"))
	books.Borrow(alice, "111")

	cds := tempCDLedger(t, users)
	cds.Add(NewCD("Kind of Blue", "Miles Davis", "CL1"))
	cds.Borrow(alice, "CL1")

	users.ApplyFine(alice, 40)
	if err := users.PayFine(alice, 40, books, cds); err != nil {
		t.Fatalf("pay: %v", err)
	}

	u, _ := users.Find("U1")
	if u.FineBalance != 0 {
		t.Fatalf("balance = %v, want 0", u.FineBalance)
	}
	bookItems, _ := books.All()
	cdItems, _ := cds.All()
	if !bookItems[0].Available || !cdItems[0].Available {
		t.Fatal("holdings not released in every category")
	}
	if bookItems[0].BorrowerID != "" || !bookItems[0].DueDate.IsZero() {
		t.Fatalf("released record still carries loan state: %+v", bookItems[0])
	}
}

func TestUnregister(t *testing.T) {
	users := tempUserLedger(t)
	alice := registerUser(t, users, "Alice", "U1")

	removed, err := users.Unregister(alice)
	if err != nil || !removed {
		t.Fatalf("unregister: removed=%v err=%v", removed, err)
	}
	removed, err = users.Unregister(alice)
	if err != nil || removed {
		t.Fatalf("second unregister: removed=%v err=%v", removed, err)
	}
	if _, err := users.Find("U1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user still findable: %v", err)
	}
}
