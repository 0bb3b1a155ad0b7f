package ledger

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings the ledger and its collaborators need.
// Values come from environment variables, with a .env file honored when
// present.
type Config struct {
	DataDir        string // directory holding the flat data files
	ReceiptDir     string // directory receiving rendered PDF receipts
	SMTPHost       string
	SMTPPort       string
	SenderEmail    string
	SenderPassword string
}

// LoadConfig reads configuration from the environment. A missing .env file
// is fine; explicit environment variables always win.
func LoadConfig() Config {
	_ = godotenv.Load()
	return Config{
		DataDir:        getenv("LIBRARY_DATA_DIR", "data"),
		ReceiptDir:     getenv("LIBRARY_RECEIPT_DIR", "receipts"),
		SMTPHost:       getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getenv("SMTP_PORT", "587"),
		SenderEmail:    os.Getenv("SENDER_EMAIL"),
		SenderPassword: os.Getenv("SENDER_PASSWORD"),
	}
}

// BookFile returns the path of the book data file.
func (c Config) BookFile() string { return filepath.Join(c.DataDir, "books.txt") }

// CDFile returns the path of the CD data file.
func (c Config) CDFile() string { return filepath.Join(c.DataDir, "cds.txt") }

// UserFile returns the path of the user data file.
func (c Config) UserFile() string { return filepath.Join(c.DataDir, "users.txt") }

// StaffFile returns the path of the staff credential file.
func (c Config) StaffFile() string { return filepath.Join(c.DataDir, "staff.txt") }

// ReceiptDB returns the path of the receipt audit database.
func (c Config) ReceiptDB() string { return filepath.Join(c.DataDir, "receipts.db") }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
