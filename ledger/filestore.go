package ledger

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

// FileStore persists one category's records as a flat delimited text file,
// one record per line with fields joined by ";". It exclusively owns the
// on-disk representation; reads and writes are always whole-file.
type FileStore[T any] struct {
	path   string
	encode func(T) []string
	decode func(fields []string) (T, bool)
}

// newFileStore ensures the backing file exists, creating parent
// directories on first run.
func newFileStore[T any](path string, encode func(T) []string, decode func([]string) (T, bool)) (*FileStore[T], error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "create dir for", Path: path, Err: err}
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}
	f.Close()
	return &FileStore[T]{path: path, encode: encode, decode: decode}, nil
}

// Path returns the location of the backing file.
func (s *FileStore[T]) Path() string { return s.path }

// ReadAll parses the backing file. Lines with too few fields are skipped;
// malformed optional fields are tolerated rather than aborting the read.
func (s *FileStore[T]) ReadAll() ([]T, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	defer f.Close()

	var records []T
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if rec, ok := s.decode(strings.Split(line, ";")); ok {
			records = append(records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	return records, nil
}

// WriteAll overwrites the backing file with the given records. There is no
// append or patch mode; every mutation is a whole-file rewrite.
func (s *FileStore[T]) WriteAll(records []T) error {
	f, err := os.Create(s.path)
	if err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	bw := bufio.NewWriter(f)
	for _, rec := range records {
		if _, err := bw.WriteString(strings.Join(s.encode(rec), ";") + "\n"); err != nil {
			f.Close()
			return &StorageError{Op: "write", Path: s.path, Err: err}
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// NewBookStore opens the book file.
// Line format: title;author;isbn;available;dueDate|"null";borrowerId|"null";fineApplied(0|1)
func NewBookStore(path string) (*FileStore[*Book], error) {
	s, err := newFileStore(path, encodeBook, decodeBook)
	return s, errors.Wrap(err, "open book store")
}

// NewCDStore opens the CD file.
// Line format: title;artist;catalogId;available;dueDate|"null";borrowerId|"null";fineApplied(0|1)
func NewCDStore(path string) (*FileStore[*CD], error) {
	s, err := newFileStore(path, encodeCD, decodeCD)
	return s, errors.Wrap(err, "open cd store")
}

// NewUserStore opens the user file.
// Line format: name;id;email;fineBalance
func NewUserStore(path string) (*FileStore[*User], error) {
	s, err := newFileStore(path, encodeUser, decodeUser)
	return s, errors.Wrap(err, "open user store")
}

func encodeBook(b *Book) []string {
	return append([]string{b.Title, b.Author, b.ISBN}, encodeCirc(&b.Circulation)...)
}

func decodeBook(fields []string) (*Book, bool) {
	if len(fields) < 5 {
		return nil, false
	}
	b := &Book{
		Title:  strings.TrimSpace(fields[0]),
		Author: strings.TrimSpace(fields[1]),
		ISBN:   strings.TrimSpace(fields[2]),
	}
	decodeCirc(&b.Circulation, fields[3:], "book "+b.Title)
	return b, true
}

func encodeCD(c *CD) []string {
	return append([]string{c.Title, c.Artist, c.CatalogID}, encodeCirc(&c.Circulation)...)
}

func decodeCD(fields []string) (*CD, bool) {
	if len(fields) < 5 {
		return nil, false
	}
	c := &CD{
		Title:     strings.TrimSpace(fields[0]),
		Artist:    strings.TrimSpace(fields[1]),
		CatalogID: strings.TrimSpace(fields[2]),
	}
	decodeCirc(&c.Circulation, fields[3:], "cd "+c.Title)
	return c, true
}

func encodeCirc(c *Circulation) []string {
	borrower := c.BorrowerID
	if borrower == "" {
		borrower = "null"
	}
	fineFlag := "0"
	if c.FineApplied {
		fineFlag = "1"
	}
	return []string{
		strconv.FormatBool(c.Available),
		formatDateField(c.DueDate),
		borrower,
		fineFlag,
	}
}

// decodeCirc fills circulation state from the trailing fields of a media
// line. The due date and borrower are optional; fineApplied defaults to 0.
func decodeCirc(c *Circulation, fields []string, label string) {
	c.Available, _ = strconv.ParseBool(strings.TrimSpace(fields[0]))
	c.DueDate = parseDateField(fields[1], label)
	if len(fields) >= 3 {
		if v := strings.TrimSpace(fields[2]); v != "" && v != "null" {
			c.BorrowerID = v
		}
	}
	if len(fields) >= 4 {
		c.FineApplied = strings.TrimSpace(fields[3]) == "1"
	}
}

func encodeUser(u *User) []string {
	return []string{u.Name, u.ID, u.Email, strconv.FormatFloat(u.FineBalance, 'f', -1, 64)}
}

func decodeUser(fields []string) (*User, bool) {
	if len(fields) != 4 {
		return nil, false
	}
	u := &User{
		Name:  strings.TrimSpace(fields[0]),
		ID:    strings.TrimSpace(fields[1]),
		Email: strings.TrimSpace(fields[2]),
	}
	fine, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		log.Printf("warning: invalid fine balance %q for user %s, treating as 0", fields[3], u.Name)
		fine = 0
	}
	u.FineBalance = fine
	return u, true
}

// parseDateField parses an ISO calendar date, treating "null", blanks and
// unparsable values as unset. Bad dates are logged, not fatal.
func parseDateField(s, label string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return time.Time{}
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		log.Printf("warning: invalid date %q for %s, leaving unset", s, label)
		return time.Time{}
	}
	return d
}

func formatDateField(t time.Time) string {
	if t.IsZero() {
		return "null"
	}
	return t.Format(dateLayout)
}

// formatAmount renders a fine amount the way the console and receipts show
// it: whole units without a decimal point when possible.
func formatAmount(amount float64) string {
	return fmt.Sprintf("%s NIS", strconv.FormatFloat(amount, 'f', -1, 64))
}
