package main

import (
	"fmt"
	"os"

	"library-ledger/ledger"
)

// Seeds a fresh data directory with a sample catalog, a few users and a
// default admin login, so the dashboard has something to work with.
func main() {
	cfg := ledger.LoadConfig()

	fmt.Println("Cleaning up existing data files...")
	for _, file := range []string{cfg.BookFile(), cfg.CDFile(), cfg.UserFile(), cfg.StaffFile(), cfg.ReceiptDB()} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: could not remove %s: %v\n", file, err)
		}
	}

	sys, err := ledger.NewSystem(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data directory: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	books := []*ledger.Book{
		ledger.NewBook("1984", "George Orwell", "9780451524935"),
		ledger.NewBook("Animal Farm", "George Orwell", "9780451526342"),
		ledger.NewBook("The Art of War", "Sun Tzu", "9781590302255"),
		ledger.NewBook("Clean Code", "Robert C. Martin", "9780132350884"),
		ledger.NewBook("The Diary of a Young Girl", "Anne Frank", "9780553296983"),
	}
	for _, b := range books {
		if _, err := sys.Books.Add(b); err != nil {
			fmt.Printf("Warning: skipping book %q: %v\n", b.Title, err)
		}
	}

	cds := []*ledger.CD{
		ledger.NewCD("Kind of Blue", "Miles Davis", "CL1355"),
		ledger.NewCD("Abbey Road", "The Beatles", "PCS7088"),
		ledger.NewCD("The Dark Side of the Moon", "Pink Floyd", "SHVL804"),
	}
	for _, c := range cds {
		if _, err := sys.CDs.Add(c); err != nil {
			fmt.Printf("Warning: skipping CD %q: %v\n", c.Title, err)
		}
	}

	users := []*ledger.User{
		ledger.NewUser("Alice Cohen", "U001", "alice@example.com"),
		ledger.NewUser("Bob Levi", "U002", "bob@example.com"),
		ledger.NewUser("Carol Mizrahi", "U003", "carol@example.com"),
	}
	for _, u := range users {
		if err := sys.Users.Add(u); err != nil {
			fmt.Printf("Warning: skipping user %s: %v\n", u.Name, err)
		}
	}

	if err := sys.Staff.Register("admin", "admin123", ledger.RoleAdmin); err != nil {
		fmt.Printf("Warning: default admin not registered: %v\n", err)
	} else {
		fmt.Println("Registered staff login admin/admin123 (change it).")
	}

	fmt.Printf("Seeded %d books, %d CDs and %d users under %s.\n", len(books), len(cds), len(users), cfg.DataDir)
}
