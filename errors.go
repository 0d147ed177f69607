package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	errLabel    = color.New(color.FgRed, color.Bold)
	fieldLabel  = color.New(color.FgCyan, color.Bold)
	adviceLabel = color.New(color.FgYellow)
)

// DatabaseError wraps a failed statement or connection attempt with enough
// context for an operator to act on it without reading the code.
type DatabaseError struct {
	Operation string
	Target    string
	Detail    string
	Code      string // SQLSTATE, when the server produced one
	Advice    string
	Err       error
}

func (e *DatabaseError) Error() string {
	var sb strings.Builder
	sb.WriteString("\n" + errLabel.Sprintf("%s FAILURE", strings.ToUpper(e.Operation)) + "\n")
	if e.Target != "" {
		sb.WriteString(fmt.Sprintf("├─ %s %s\n", fieldLabel.Sprint("Target:"), e.Target))
	}
	if e.Code != "" {
		sb.WriteString(fmt.Sprintf("├─ %s %s\n", fieldLabel.Sprint("Code:"), e.Code))
	}
	sb.WriteString(fmt.Sprintf("├─ %s %s\n", fieldLabel.Sprint("Reason:"), e.Detail))
	if e.Advice != "" {
		sb.WriteString(fmt.Sprintf("╰─ %s\n", adviceLabel.Sprint(e.Advice)))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error:\n%v\n", e.Err))
	}
	return sb.String()
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// newDatabaseError classifies err by SQLSTATE and attaches targeted advice.
func newDatabaseError(operation, target, detail string, err error) *DatabaseError {
	dbErr := &DatabaseError{
		Operation: operation,
		Target:    target,
		Detail:    detail,
		Err:       err,
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		dbErr.Code = pgErr.Code
		switch pgErr.Code {
		case "28P01":
			dbErr.Advice = "Verify the admin password"
		case "28000":
			dbErr.Advice = "Verify the admin login and the server's pg_hba.conf rules"
		case "3D000":
			dbErr.Advice = "Verify the database name exists on the server"
		case "42501":
			dbErr.Advice = "The admin role lacks the required privilege (CREATEROLE/CREATEDB or ownership)"
		}
	}

	return dbErr
}

// PolicyError reports a pre-existing target role that carries SUPERUSER.
// It aborts the run before any mutating statement is issued.
type PolicyError struct {
	Role string
}

func (e *PolicyError) Error() string {
	var sb strings.Builder
	sb.WriteString("\n" + errLabel.Sprint("SUPERUSER POLICY VIOLATION") + "\n")
	sb.WriteString(fmt.Sprintf("├─ %s %s\n", fieldLabel.Sprint("Role:"), e.Role))
	sb.WriteString(fmt.Sprintf("├─ %s the role already exists with SUPERUSER, which this tool refuses to manage\n",
		fieldLabel.Sprint("Reason:")))
	sb.WriteString(fmt.Sprintf("╰─ %s\n", adviceLabel.Sprintf(
		"Demote it manually first: ALTER ROLE %s NOSUPERUSER;", quoteIdent(e.Role))))
	return sb.String()
}

// InputError marks failures of the input stream itself (EOF, broken
// terminal). Invalid values never produce one; those re-prompt locally.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input collection failed: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
