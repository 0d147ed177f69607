package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	statusColor = color.New(color.FgGreen)
	headerColor = color.New(color.FgMagenta, color.Bold)
	secretColor = color.New(color.FgYellow, color.Bold)
)

func printBanner(w io.Writer) {
	headerColor.Fprintln(w, "=== PostgreSQL provisioning: role, database, and public schema grants ===")
}

func statusLine(w io.Writer, format string, args ...any) {
	statusColor.Fprintf(w, format+"\n", args...)
}

// printGeneratedPassword is the only place a generated credential is ever
// written. It runs at generation time, before the statement that uses the
// password, so the operator has it even if a later step fails.
func printGeneratedPassword(w io.Writer, pw string) {
	fmt.Fprintln(w)
	secretColor.Fprintln(w, "=== generated password ===")
	fmt.Fprintln(w, pw)
	secretColor.Fprintln(w, "=== end of password ===")
	fmt.Fprintln(w)
}

// connString renders a key=value DSN for verifying access as the target
// role. The password field appears only when one was generated this run.
func connString(target ConnectionTarget, req ProvisionRequest, result *ProvisionResult) string {
	s := fmt.Sprintf("host=%s port=%d dbname=%s user=%s",
		target.Host, target.Port, req.Database, req.Role)
	if result.Password != "" {
		s += " password=" + result.Password
	}
	return s
}

func printReport(w io.Writer, target ConnectionTarget, req ProvisionRequest, result *ProvisionResult) {
	fmt.Fprintln(w)
	statusLine(w, "✅ Provisioning completed")
	if result.RoleCreated {
		statusLine(w, "   role %s created (not superuser)", req.Role)
	}
	if result.DatabaseCreated {
		statusLine(w, "   database %s created (owner %s)", req.Database, req.Role)
	}
	fmt.Fprintln(w, "\nVerify access with:")
	fmt.Fprintf(w, "  psql \"%s\"\n", connString(target, req, result))
}
