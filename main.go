package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes follow the convention of the shell scripts this tool replaces:
// 1 for anything that prevents the run from starting (unreadable input
// stream, usage errors), 3 for failures surfaced by the server once
// provisioning has begun.
const (
	exitInput     = 1
	exitProvision = 3
)

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var inputErr *InputError
		if errors.As(err, &inputErr) {
			os.Exit(exitInput)
		}
		os.Exit(exitProvision)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pgprovision",
		Short: "Provision a PostgreSQL login role, database, and schema grants",
		Long: `pgprovision interactively provisions a PostgreSQL login role and database.

It connects as an administrator, creates the target role with a generated
password (or optionally rotates the password of an existing role), creates
the target database or reassigns its ownership, and grants the role full
privileges on the database and the public schema, including default
privileges for future objects. A pre-existing role with SUPERUSER is
refused outright.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	printBanner(os.Stdout)

	prompter := NewPrompter(os.Stdin, os.Stdout)

	target, req, err := collectInputs(prompter)
	if err != nil {
		return &InputError{Err: err}
	}

	prov := &Provisioner{
		Target:  target,
		Request: req,
		Out:     os.Stdout,
		ConfirmRotate: func() bool {
			ok, err := prompter.Confirm(fmt.Sprintf("Role %q already exists. Rotate its password?", req.Role))
			return err == nil && ok
		},
	}

	result, err := prov.Run(ctx)
	if err != nil {
		return err
	}

	printReport(os.Stdout, target, req, result)
	return nil
}

// collectInputs gathers everything the run needs up front, so the only
// prompt that can appear mid-sequence is the rotate-password confirmation.
func collectInputs(p *Prompter) (ConnectionTarget, ProvisionRequest, error) {
	var (
		target ConnectionTarget
		req    ProvisionRequest
		err    error
	)

	if target.Host, err = p.String("PostgreSQL host", "localhost"); err != nil {
		return target, req, err
	}
	if target.Port, err = p.Int("PostgreSQL port", 5432, 1, 65535); err != nil {
		return target, req, err
	}
	if target.AdminUser, err = p.String("Admin login (needs CREATE ROLE/DB)", ""); err != nil {
		return target, req, err
	}
	if target.AdminPass, err = p.Secret("Admin password"); err != nil {
		return target, req, err
	}
	if req.Database, err = p.String("Database to create", ""); err != nil {
		return target, req, err
	}
	if req.Role, err = p.String("Role to grant it to (created if missing)", ""); err != nil {
		return target, req, err
	}
	if req.PasswordLength, err = p.Int("Generated password length", 24, MinPasswordLength, 128); err != nil {
		return target, req, err
	}

	return target, req, nil
}
