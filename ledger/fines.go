package ledger

// FineStrategy computes the fine for a number of overdue days. Strategies
// must be pure: no I/O, no mutation, same output for the same input.
type FineStrategy interface {
	CalculateFine(overdueDays int) int
}

// PerDayFine charges a flat rate per overdue day.
type PerDayFine int

func (r PerDayFine) CalculateFine(overdueDays int) int {
	if overdueDays <= 0 {
		return 0
	}
	return int(r) * overdueDays
}

// Fine rates per category, in whole currency units per day.
const (
	BookFineRate PerDayFine = 20
	CDFineRate   PerDayFine = 10
)

// Loan windows per category, in days, applied at borrow time.
const (
	BookLoanDays = 28
	CDLoanDays   = 7
)
