package ledger

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	_ "github.com/mattn/go-sqlite3"
)

// ReceiptSink is the audit collaborator invoked after a successful fine
// post (paid=false) or payment (paid=true). The core never depends on its
// success; callers log failures and move on.
type ReceiptSink interface {
	RecordFineReceipt(user *User, amount float64, paid bool, mediaTitle, mediaKind string) error
}

// Receipt is one audited fine event.
type Receipt struct {
	ID         string
	UserID     string
	UserName   string
	Amount     float64
	Kind       string // "issued" or "paid"
	MediaTitle string
	MediaKind  string
	CreatedAt  time.Time
}

// ReceiptStore indexes fine receipts in a SQLite database and renders a
// PDF copy of each into the receipt directory.
type ReceiptStore struct {
	db     *sql.DB
	pdfDir string

	insertStmt *sql.Stmt
}

// NewReceiptStore opens (or creates) the receipt database at dbPath and
// ensures the PDF output directory exists.
func NewReceiptStore(dbPath, pdfDir string) (*ReceiptStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create receipt db dir: %w", err)
		}
	}
	if err := os.MkdirAll(pdfDir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipt dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open receipt db: %w", err)
	}
	if err := applyReceiptMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &ReceiptStore{db: db, pdfDir: pdfDir}
	store.insertStmt, err = db.Prepare(`INSERT INTO receipts(id,user_id,user_name,amount,kind,media_title,media_kind,created_at) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the prepared statement and closes the database.
func (rs *ReceiptStore) Close() error {
	if rs.insertStmt != nil {
		rs.insertStmt.Close()
	}
	return rs.db.Close()
}

const receiptSchemaVersion = 1

func applyReceiptMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}
	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= receiptSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            user_name TEXT NOT NULL,
            amount REAL NOT NULL,
            kind TEXT NOT NULL,
            media_title TEXT,
            media_kind TEXT,
            created_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_user ON receipts(user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply receipt migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, receiptSchemaVersion); err != nil {
		return fmt.Errorf("apply receipt migration: %w", err)
	}
	return tx.Commit()
}

// RecordFineReceipt stores the audit row and renders the PDF copy. A
// failed render is logged and does not fail the record: the row is the
// durable audit trail, the PDF a convenience.
func (rs *ReceiptStore) RecordFineReceipt(user *User, amount float64, paid bool, mediaTitle, mediaKind string) error {
	if user == nil {
		return nil
	}
	r := Receipt{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		UserName:   user.Name,
		Amount:     amount,
		Kind:       "issued",
		MediaTitle: mediaTitle,
		MediaKind:  mediaKind,
		CreatedAt:  time.Now(),
	}
	if paid {
		r.Kind = "paid"
	}
	if _, err := rs.insertStmt.Exec(r.ID, r.UserID, r.UserName, r.Amount, r.Kind, r.MediaTitle, r.MediaKind, r.CreatedAt); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	if err := rs.renderPDF(r); err != nil {
		log.Printf("warning: receipt PDF for %s not rendered: %v", r.UserName, err)
	}
	return nil
}

// ReceiptsFor returns the audited receipts for one user, newest first.
func (rs *ReceiptStore) ReceiptsFor(userID string) ([]Receipt, error) {
	rows, err := rs.db.Query(`SELECT id,user_id,user_name,amount,kind,media_title,media_kind,created_at FROM receipts WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var r Receipt
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.Amount, &r.Kind, &r.MediaTitle, &r.MediaKind, &r.CreatedAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

func (rs *ReceiptStore) renderPDF(r Receipt) error {
	heading, kindLabel := "Fine Issued", "Issued"
	if r.Kind == "paid" {
		heading, kindLabel = "Fine Payment Receipt", "Paid"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, heading, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("User: %s | ID: %s", r.UserName, r.UserID), "", 1, "L", false, 0, "")
	if r.MediaTitle != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("Media: %s | Type: %s", r.MediaTitle, r.MediaKind), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 8, "Amount: "+formatAmount(r.Amount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Date: "+r.CreatedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Receipt: "+r.ID, "", 1, "L", false, 0, "")

	name := fmt.Sprintf("%s_Fine_%s_%s.pdf",
		kindLabel,
		strings.Join(strings.Fields(r.UserName), "_"),
		r.CreatedAt.Format("20060102_150405"))
	return pdf.OutputFileAndClose(filepath.Join(rs.pdfDir, name))
}
