package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"library-ledger/ledger"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	root := &cobra.Command{
		Use:   "library-ledger",
		Short: "Lending and fine ledger for books and CDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard()
		},
	}
	root.AddCommand(overdueCmd(), postFinesCmd(), remindCmd(), staffAddCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openSystem() (*ledger.System, ledger.Config, error) {
	cfg := ledger.LoadConfig()
	sys, err := ledger.NewSystem(cfg)
	return sys, cfg, err
}

// overdueCmd prints the overdue report for both categories.
func overdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue media with the fine each would incur",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, _, err := openSystem()
			if err != nil {
				return err
			}
			defer sys.Close()
			return printOverdue(sys)
		},
	}
}

// postFinesCmd runs the idempotent fine sweep.
func postFinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-fines",
		Short: "Charge every overdue item that has not been fined yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, cfg, err := openSystem()
			if err != nil {
				return err
			}
			defer sys.Close()
			sys.AddObserver(ledger.ConsoleNotifier{})
			if cfg.SenderEmail != "" {
				sys.AddObserver(ledger.NewEmailNotifier(ledger.NewSMTPEmailService(cfg)))
			}
			total, err := sys.PostOverdueFines()
			if err != nil {
				return err
			}
			fmt.Printf("Posted fines totaling %d NIS.\n", total)
			return nil
		},
	}
}

// remindCmd emails every user holding overdue media.
func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send overdue reminders to users",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, cfg, err := openSystem()
			if err != nil {
				return err
			}
			defer sys.Close()
			sys.AddObserver(ledger.ConsoleNotifier{})
			if cfg.SenderEmail != "" {
				sys.AddObserver(ledger.NewEmailNotifier(ledger.NewSMTPEmailService(cfg)))
			}
			return sys.SendReminders()
		},
	}
}

// staffAddCmd registers a staff login. The first login may be created
// freely; after that an admin has to sign in.
func staffAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "staff-add <username> <admin|librarian>",
		Short: "Register a staff login",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, _, err := openSystem()
			if err != nil {
				return err
			}
			defer sys.Close()

			role := ledger.Role(args[1])
			if role != ledger.RoleAdmin && role != ledger.RoleLibrarian {
				return fmt.Errorf("unknown role %q", args[1])
			}
			empty, err := sys.Staff.Empty()
			if err != nil {
				return err
			}
			if !empty {
				sc := bufio.NewScanner(os.Stdin)
				if _, err := loginStaff(sc, sys, ledger.RoleAdmin); err != nil {
					return err
				}
			}
			password, err := readPassword(fmt.Sprintf("Password for %s: ", args[0]))
			if err != nil {
				return err
			}
			return sys.Staff.Register(args[0], password, role)
		},
	}
}

// readPassword reads a password with terminal echo disabled.
func readPassword(promptText string) (string, error) {
	fmt.Print(promptText)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

func loginStaff(sc *bufio.Scanner, sys *ledger.System, need ledger.Role) (ledger.Session, error) {
	username := prompt(sc, "Staff username: ")
	password, err := readPassword("Password: ")
	if err != nil {
		return ledger.Session{}, err
	}
	sess, err := sys.Staff.Authenticate(username, password)
	if err != nil {
		return ledger.Session{}, err
	}
	if need == ledger.RoleAdmin && sess.Role != ledger.RoleAdmin {
		return ledger.Session{}, errors.New("admin login required")
	}
	return sess, nil
}

func runDashboard() error {
	sys, cfg, err := openSystem()
	if err != nil {
		return err
	}
	defer sys.Close()

	sys.AddObserver(ledger.ConsoleNotifier{})
	if cfg.SenderEmail != "" {
		sys.AddObserver(ledger.NewEmailNotifier(ledger.NewSMTPEmailService(cfg)))
	}

	sc := bufio.NewScanner(os.Stdin)
	var session *ledger.Session

	fmt.Println("Welcome to the Lending & Fine Ledger!")
	fmt.Println("Available commands:")
	fmt.Println("  Catalog: add book, add cd, list books, list cds, search")
	fmt.Println("  Users: register user, list users, pay fine, receipts")
	fmt.Println("  Circulation: borrow book, borrow cd, overdue, post fines, remind")
	fmt.Println("  Staff: login, logout, unregister user")
	fmt.Println("  System: exit")

	for {
		fmt.Print("\n> ")
		if !sc.Scan() {
			break
		}
		switch cmd := strings.TrimSpace(sc.Text()); cmd {
		case "add book":
			handleAddBook(sc, sys)
		case "add cd":
			handleAddCD(sc, sys)
		case "list books":
			handleListBooks(sys)
		case "list cds":
			handleListCDs(sys)
		case "search":
			handleSearch(sc, sys)
		case "register user":
			handleRegisterUser(sc, sys)
		case "list users":
			handleListUsers(sys)
		case "borrow book":
			handleBorrow(sc, sys, "book")
		case "borrow cd":
			handleBorrow(sc, sys, "cd")
		case "overdue":
			if err := printOverdue(sys); err != nil {
				fail(err)
			}
		case "post fines":
			total, err := sys.PostOverdueFines()
			if err != nil {
				fail(err)
			} else {
				fmt.Printf("Posted fines totaling %d NIS.\n", total)
			}
		case "remind":
			if err := sys.SendReminders(); err != nil {
				fail(err)
			}
		case "pay fine":
			handlePayFine(sc, sys)
		case "receipts":
			handleReceipts(sc, sys)
		case "login":
			if sess, err := loginStaff(sc, sys, ""); err != nil {
				fail(err)
			} else {
				session = &sess
				fmt.Printf("Logged in as %s (%s).\n", sess.Username, sess.Role)
			}
		case "logout":
			session = nil
			fmt.Println("Logged out.")
		case "unregister user":
			handleUnregister(sc, sys, session)
		case "exit", "quit":
			return nil
		case "":
		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}
	}
	return nil
}

func prompt(sc *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
}

func handleAddBook(sc *bufio.Scanner, sys *ledger.System) {
	title := prompt(sc, "Title: ")
	author := prompt(sc, "Author: ")
	isbn := prompt(sc, "ISBN: ")
	if _, err := sys.Books.Add(ledger.NewBook(title, author, isbn)); err != nil {
		fail(err)
		return
	}
	fmt.Printf("Added book %q.\n", title)
}

func handleAddCD(sc *bufio.Scanner, sys *ledger.System) {
	title := prompt(sc, "Title: ")
	artist := prompt(sc, "Artist: ")
	id := prompt(sc, "Catalog ID: ")
	if _, err := sys.CDs.Add(ledger.NewCD(title, artist, id)); err != nil {
		fail(err)
		return
	}
	fmt.Printf("Added CD %q.\n", title)
}

func handleListBooks(sys *ledger.System) {
	books, err := sys.Books.All()
	if err != nil {
		fail(err)
		return
	}
	fmt.Printf("%-30s %-20s %-15s %-10s %-12s %s\n", "TITLE", "AUTHOR", "ISBN", "AVAILABLE", "DUE", "BORROWER")
	for _, b := range books {
		fmt.Printf("%-30s %-20s %-15s %-10t %-12s %s\n",
			b.Title, b.Author, b.ISBN, b.Available, dueLabel(b), b.BorrowerID)
	}
}

func handleListCDs(sys *ledger.System) {
	cds, err := sys.CDs.All()
	if err != nil {
		fail(err)
		return
	}
	fmt.Printf("%-30s %-20s %-15s %-10s %-12s %s\n", "TITLE", "ARTIST", "CATALOG", "AVAILABLE", "DUE", "BORROWER")
	for _, c := range cds {
		fmt.Printf("%-30s %-20s %-15s %-10t %-12s %s\n",
			c.Title, c.Artist, c.CatalogID, c.Available, dueLabel(c), c.BorrowerID)
	}
}

func dueLabel(item ledger.Lendable) string {
	circ := item.Circ()
	if circ.DueDate.IsZero() {
		return "-"
	}
	return circ.DueDate.Format("2006-01-02")
}

func handleSearch(sc *bufio.Scanner, sys *ledger.System) {
	query := prompt(sc, "Search: ")
	books, err := sys.Books.Search(query)
	if err != nil {
		fail(err)
		return
	}
	cds, err := sys.CDs.Search(query)
	if err != nil {
		fail(err)
		return
	}
	for _, b := range books {
		fmt.Printf("book  %-30s %-20s %s\n", b.Title, b.Author, b.ISBN)
	}
	for _, c := range cds {
		fmt.Printf("cd    %-30s %-20s %s\n", c.Title, c.Artist, c.CatalogID)
	}
	if len(books)+len(cds) == 0 {
		fmt.Println("No matches.")
	}
}

func handleRegisterUser(sc *bufio.Scanner, sys *ledger.System) {
	name := prompt(sc, "Name: ")
	id := prompt(sc, "User ID: ")
	email := prompt(sc, "Email: ")
	if err := sys.Users.Add(ledger.NewUser(name, id, email)); err != nil {
		fail(err)
		return
	}
	fmt.Printf("Registered %s (%s).\n", name, id)
}

func handleListUsers(sys *ledger.System) {
	users, err := sys.Users.All()
	if err != nil {
		fail(err)
		return
	}
	fmt.Printf("%-25s %-10s %-30s %s\n", "NAME", "ID", "EMAIL", "FINE")
	for _, u := range users {
		fmt.Printf("%-25s %-10s %-30s %.2f\n", u.Name, u.ID, u.Email, u.FineBalance)
	}
}

func handleBorrow(sc *bufio.Scanner, sys *ledger.System, kind string) {
	userID := prompt(sc, "User ID: ")
	user, err := sys.Users.Find(userID)
	if err != nil {
		fail(err)
		return
	}
	if kind == "book" {
		isbn := prompt(sc, "ISBN: ")
		b, err := sys.Books.Borrow(user, isbn)
		if err != nil {
			fail(err)
			return
		}
		fmt.Printf("%s borrowed %q, due %s.\n", user.Name, b.Title, b.DueDate.Format("2006-01-02"))
		return
	}
	id := prompt(sc, "Catalog ID: ")
	c, err := sys.CDs.Borrow(user, id)
	if err != nil {
		fail(err)
		return
	}
	fmt.Printf("%s borrowed %q, due %s.\n", user.Name, c.Title, c.DueDate.Format("2006-01-02"))
}

func printOverdue(sys *ledger.System) error {
	books, err := sys.Books.Overdue()
	if err != nil {
		return err
	}
	cds, err := sys.CDs.Overdue()
	if err != nil {
		return err
	}
	if len(books)+len(cds) == 0 {
		fmt.Println("No overdue media.")
		return nil
	}
	for _, b := range books {
		fmt.Printf("book  %-30s borrower=%s due=%s fine=%d NIS\n",
			b.Title, b.BorrowerID, b.DueDate.Format("2006-01-02"), ledger.BookFineRate.CalculateFine(daysLate(b)))
	}
	for _, c := range cds {
		fmt.Printf("cd    %-30s borrower=%s due=%s fine=%d NIS\n",
			c.Title, c.BorrowerID, c.DueDate.Format("2006-01-02"), ledger.CDFineRate.CalculateFine(daysLate(c)))
	}
	return nil
}

func daysLate(item ledger.Lendable) int {
	return ledger.OverdueDays(item.Circ().DueDate)
}

func handlePayFine(sc *bufio.Scanner, sys *ledger.System) {
	userID := prompt(sc, "User ID: ")
	user, err := sys.Users.Find(userID)
	if err != nil {
		fail(err)
		return
	}
	fmt.Printf("Current fine balance: %.2f NIS\n", user.FineBalance)
	amount, err := strconv.ParseFloat(prompt(sc, "Amount: "), 64)
	if err != nil {
		fail(fmt.Errorf("invalid amount: %w", err))
		return
	}
	if err := sys.PayFine(user, amount); err != nil {
		fail(err)
		return
	}
	fmt.Printf("Payment accepted. Remaining balance: %.2f NIS\n", user.FineBalance)
	if user.FineBalance == 0 {
		fmt.Println("All holdings released.")
	}
}

func handleReceipts(sc *bufio.Scanner, sys *ledger.System) {
	userID := prompt(sc, "User ID: ")
	receipts, err := sys.Receipts.ReceiptsFor(userID)
	if err != nil {
		fail(err)
		return
	}
	if len(receipts) == 0 {
		fmt.Println("No receipts.")
		return
	}
	for _, r := range receipts {
		fmt.Printf("%s  %-6s %8.2f NIS  %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.Amount, r.MediaTitle)
	}
}

func handleUnregister(sc *bufio.Scanner, sys *ledger.System, session *ledger.Session) {
	if session == nil {
		fmt.Println("Login first: only admins may unregister users.")
		return
	}
	userID := prompt(sc, "User ID: ")
	user, err := sys.Users.Find(userID)
	if err != nil {
		fail(err)
		return
	}
	removed, err := sys.UnregisterUser(*session, user)
	if err != nil {
		fail(err)
		return
	}
	if removed {
		fmt.Printf("User %s unregistered.\n", user.Name)
	}
}
