package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the capability level a staff session carries.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
)

// Session is the capability a successful login yields. Admin-only
// operations take it explicitly; there is no process-wide logged-in state.
type Session struct {
	Username string
	Role     Role
}

// CredentialFile stores staff logins, one per line:
// username,role,bcrypt-hash. Passwords are never stored in the clear.
type CredentialFile struct {
	path string
}

// NewCredentialFile ensures the credential file exists.
func NewCredentialFile(path string) (*CredentialFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "create dir for", Path: path, Err: err}
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}
	f.Close()
	return &CredentialFile{path: path}, nil
}

type staffEntry struct {
	username string
	role     Role
	hash     string
}

func (cf *CredentialFile) readAll() ([]staffEntry, error) {
	f, err := os.Open(cf.path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: cf.path, Err: err}
	}
	defer f.Close()

	var entries []staffEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.Split(sc.Text(), ",")
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, staffEntry{
			username: strings.TrimSpace(parts[0]),
			role:     Role(strings.TrimSpace(parts[1])),
			hash:     strings.TrimSpace(parts[2]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &StorageError{Op: "read", Path: cf.path, Err: err}
	}
	return entries, nil
}

// Register adds a staff login with a hashed password.
func (cf *CredentialFile) Register(username, password string, role Role) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if strings.Contains(username, ",") {
		return fmt.Errorf("%w: username must not contain a comma", ErrValidation)
	}
	entries, err := cf.readAll()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.username == username {
			return fmt.Errorf("%w: staff login %s", ErrDuplicateID, username)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	f, err := os.OpenFile(cf.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return &StorageError{Op: "write", Path: cf.path, Err: err}
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s,%s,%s\n", username, role, hash); err != nil {
		return &StorageError{Op: "write", Path: cf.path, Err: err}
	}
	return nil
}

// Authenticate verifies the credentials and yields the session capability.
func (cf *CredentialFile) Authenticate(username, password string) (Session, error) {
	entries, err := cf.readAll()
	if err != nil {
		return Session{}, err
	}
	for _, e := range entries {
		if e.username != strings.TrimSpace(username) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(e.hash), []byte(password)) != nil {
			break
		}
		return Session{Username: e.username, Role: e.role}, nil
	}
	return Session{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
}

// Empty reports whether no staff logins exist yet (first run).
func (cf *CredentialFile) Empty() (bool, error) {
	entries, err := cf.readAll()
	return len(entries) == 0, err
}

// UnregisterUser removes a user through the admin workflow: the session
// must carry the admin role, the user must have no unpaid fines, and no
// supplied ledger may hold an active loan for them.
func UnregisterUser(sess Session, user *User, users *UserLedger, holders ...HoldingsReleaser) (bool, error) {
	if sess.Role != RoleAdmin {
		return false, fmt.Errorf("%w: admin role required", ErrUnauthorized)
	}
	if user == nil {
		return false, fmt.Errorf("%w: user is required", ErrValidation)
	}
	current, err := users.Find(user.ID)
	if err != nil {
		return false, err
	}
	if current.FineBalance > 0 {
		return false, fmt.Errorf("%w: user has unpaid fines", ErrIneligible)
	}
	for _, h := range holders {
		active, err := h.HasActiveLoans(current)
		if err != nil {
			return false, err
		}
		if active {
			return false, fmt.Errorf("%w: user still holds borrowed media", ErrIneligible)
		}
	}
	return users.Unregister(current)
}
