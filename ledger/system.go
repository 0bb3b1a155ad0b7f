package ledger

// System is a thin façade wiring both media categories, the user ledger,
// staff credentials and the receipt store, keeping CLI code simple.
type System struct {
	Books    *MediaLedger[*Book]
	CDs      *MediaLedger[*CD]
	Users    *UserLedger
	Staff    *CredentialFile
	Receipts *ReceiptStore
}

// NewSystem opens (or creates) all backing files under the configured data
// directory and wires the category ledgers to the user ledger and receipt
// store.
func NewSystem(cfg Config) (*System, error) {
	userStore, err := NewUserStore(cfg.UserFile())
	if err != nil {
		return nil, err
	}
	bookStore, err := NewBookStore(cfg.BookFile())
	if err != nil {
		return nil, err
	}
	cdStore, err := NewCDStore(cfg.CDFile())
	if err != nil {
		return nil, err
	}
	staff, err := NewCredentialFile(cfg.StaffFile())
	if err != nil {
		return nil, err
	}
	receipts, err := NewReceiptStore(cfg.ReceiptDB(), cfg.ReceiptDir)
	if err != nil {
		return nil, err
	}

	users := NewUserLedger(userStore)
	users.SetReceipts(receipts)

	books := NewMediaLedger("book", BookLoanDays, BookFineRate, bookStore, users)
	books.SetReceipts(receipts)

	cds := NewMediaLedger("CD", CDLoanDays, CDFineRate, cdStore, users)
	cds.SetReceipts(receipts)

	return &System{Books: books, CDs: cds, Users: users, Staff: staff, Receipts: receipts}, nil
}

// Close releases the receipt store.
func (s *System) Close() error { return s.Receipts.Close() }

// AddObserver registers a notification sink with both category ledgers.
func (s *System) AddObserver(o Observer) {
	s.Books.AddObserver(o)
	s.CDs.AddObserver(o)
}

// PayFine routes a payment through the user ledger with both categories
// supplied for the zero-balance release.
func (s *System) PayFine(user *User, amount float64) error {
	return s.Users.PayFine(user, amount, s.Books, s.CDs)
}

// UnregisterUser runs the admin unregistration workflow across both
// categories.
func (s *System) UnregisterUser(sess Session, user *User) (bool, error) {
	return UnregisterUser(sess, user, s.Users, s.Books, s.CDs)
}

// PostOverdueFines sweeps both categories and returns the total amount
// posted. Safe to re-run; already-charged records are skipped.
func (s *System) PostOverdueFines() (int, error) {
	total, err := s.Books.PostOverdueFines()
	if err != nil {
		return total, err
	}
	cdTotal, err := s.CDs.PostOverdueFines()
	return total + cdTotal, err
}

// SendReminders notifies every registered user with overdue holdings in
// either category.
func (s *System) SendReminders() error {
	users, err := s.Users.All()
	if err != nil {
		return err
	}
	if err := s.Books.SendReminders(users); err != nil {
		return err
	}
	return s.CDs.SendReminders(users)
}
