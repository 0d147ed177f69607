package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// maintenanceDB is where roles and databases are managed; CREATE DATABASE
// cannot run from inside the database being created.
const maintenanceDB = "postgres"

// ConnectionTarget identifies the server and the admin credentials for one
// run. It exists only in memory for the duration of the process.
type ConnectionTarget struct {
	Host      string
	Port      int
	AdminUser string
	AdminPass string
}

// ProvisionRequest names what the run should leave behind on the server.
type ProvisionRequest struct {
	Role           string
	Database       string
	PasswordLength int
}

// ProvisionResult records what actually happened, for the final report.
// Password is empty when no credential was generated this run.
type ProvisionResult struct {
	Password        string
	RoleCreated     bool
	DatabaseCreated bool
}

// PgxConn is the subset of *pgx.Conn the provisioning statements need.
// pgxmock's connection mock satisfies it.
type PgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Provisioner drives the fixed statement sequence: role, then database, on
// the maintenance connection; schema privileges on a second connection to
// the target database. Statements run with auto-commit and any failure
// aborts the rest of the sequence without cleanup.
type Provisioner struct {
	Target  ConnectionTarget
	Request ProvisionRequest
	Out     io.Writer

	// ConfirmRotate is consulted when the role already exists (and is not
	// a superuser) to decide whether to generate a new password for it.
	ConfirmRotate func() bool

	// GenPassword overrides GeneratePassword in tests.
	GenPassword func(length int) (string, error)
}

func (p *Provisioner) Run(ctx context.Context) (*ProvisionResult, error) {
	if p.Out == nil {
		p.Out = os.Stdout
	}

	result := &ProvisionResult{}

	err := func() error {
		admin, err := p.connect(ctx, maintenanceDB)
		if err != nil {
			return err
		}
		defer admin.Close(ctx)

		if err := p.ensureRole(ctx, admin, result); err != nil {
			return err
		}
		return p.ensureDatabase(ctx, admin, result)
	}()
	if err != nil {
		return nil, err
	}

	// Ownership changes on the maintenance connection do not select the new
	// database; schema-level grants need their own connection.
	target, err := p.connect(ctx, p.Request.Database)
	if err != nil {
		return nil, err
	}
	defer target.Close(ctx)

	if err := p.grantSchemaPrivileges(ctx, target); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Provisioner) connect(ctx context.Context, dbname string) (*pgx.Conn, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(p.Target.AdminUser),
		url.QueryEscape(p.Target.AdminPass),
		p.Target.Host,
		p.Target.Port,
		url.QueryEscape(dbname),
	)

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, newDatabaseError("connection",
			fmt.Sprintf("%s@%s:%d/%s", p.Target.AdminUser, p.Target.Host, p.Target.Port, dbname),
			"could not connect to the server", err)
	}

	statusLine(p.Out, "✅ Connected to %s:%d (%s)", p.Target.Host, p.Target.Port, dbname)
	return conn, nil
}

// ensureRole creates the target role with a generated password, or, when it
// already exists, optionally rotates the password. A pre-existing superuser
// aborts the run before anything is mutated. The no-superuser flag is
// re-asserted in every surviving branch.
func (p *Provisioner) ensureRole(ctx context.Context, db PgxConn, result *ProvisionResult) error {
	role := p.Request.Role

	var superuser bool
	err := db.QueryRow(ctx,
		"SELECT rolsuper FROM pg_roles WHERE rolname = $1", role,
	).Scan(&superuser)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		pw, err := p.generatePassword()
		if err != nil {
			return err
		}
		statusLine(p.Out, "👤 Creating role %s...", role)
		printGeneratedPassword(p.Out, pw)

		sql := fmt.Sprintf(
			"CREATE ROLE %s WITH LOGIN PASSWORD %s NOSUPERUSER NOCREATEDB NOCREATEROLE NOINHERIT NOREPLICATION NOBYPASSRLS",
			quoteIdent(role), quoteLiteral(pw),
		)
		if _, err := db.Exec(ctx, sql); err != nil {
			return newDatabaseError("role creation", role,
				fmt.Sprintf("failed to create role %s", quoteIdent(role)), err)
		}
		result.Password = pw
		result.RoleCreated = true

	case err != nil:
		return newDatabaseError("role check", role,
			fmt.Sprintf("failed to look up role %q in pg_roles", role), err)

	case superuser:
		return &PolicyError{Role: role}

	default:
		statusLine(p.Out, "👤 Role %s already exists (not superuser)", role)
		if p.ConfirmRotate != nil && p.ConfirmRotate() {
			pw, err := p.generatePassword()
			if err != nil {
				return err
			}
			printGeneratedPassword(p.Out, pw)

			sql := fmt.Sprintf("ALTER ROLE %s WITH PASSWORD %s NOSUPERUSER",
				quoteIdent(role), quoteLiteral(pw))
			if _, err := db.Exec(ctx, sql); err != nil {
				return newDatabaseError("password rotation", role,
					fmt.Sprintf("failed to rotate password for role %s", quoteIdent(role)), err)
			}
			result.Password = pw
			statusLine(p.Out, "🔑 Password rotated for %s", role)
		} else {
			statusLine(p.Out, "🔒 Password left unchanged")
		}
	}

	// Re-assert the policy even when nothing else changed.
	if _, err := db.Exec(ctx, fmt.Sprintf("ALTER ROLE %s NOSUPERUSER", quoteIdent(role))); err != nil {
		return newDatabaseError("role hardening", role,
			fmt.Sprintf("failed to re-assert NOSUPERUSER on %s", quoteIdent(role)), err)
	}
	return nil
}

// ensureDatabase creates the target database owned by the role, or, when it
// already exists, reassigns ownership to the role. Reassignment strips the
// previous owner's implicit privileges, so it is announced rather than
// silent. Database-level grants are reapplied either way.
func (p *Provisioner) ensureDatabase(ctx context.Context, db PgxConn, result *ProvisionResult) error {
	dbname, role := p.Request.Database, p.Request.Role

	var one int
	err := db.QueryRow(ctx,
		"SELECT 1 FROM pg_database WHERE datname = $1", dbname,
	).Scan(&one)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		statusLine(p.Out, "📦 Creating database %s (owner %s)...", dbname, role)
		sql := fmt.Sprintf("CREATE DATABASE %s OWNER %s", quoteIdent(dbname), quoteIdent(role))
		if _, err := db.Exec(ctx, sql); err != nil {
			return newDatabaseError("database creation", dbname,
				fmt.Sprintf("failed to create database %s", quoteIdent(dbname)), err)
		}
		result.DatabaseCreated = true

	case err != nil:
		return newDatabaseError("database check", dbname,
			fmt.Sprintf("failed to look up database %q in pg_database", dbname), err)

	default:
		statusLine(p.Out, "📦 Database %s already exists; reassigning owner to %s "+
			"(previous owner loses implicit privileges)", dbname, role)
		sql := fmt.Sprintf("ALTER DATABASE %s OWNER TO %s", quoteIdent(dbname), quoteIdent(role))
		if _, err := db.Exec(ctx, sql); err != nil {
			return newDatabaseError("ownership change", dbname,
				fmt.Sprintf("failed to reassign owner of %s", quoteIdent(dbname)), err)
		}
	}

	// Redundant with ownership, kept explicit for auditability.
	statusLine(p.Out, "🔑 Granting all privileges on %s to %s...", dbname, role)
	sql := fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", quoteIdent(dbname), quoteIdent(role))
	if _, err := db.Exec(ctx, sql); err != nil {
		return newDatabaseError("database grant", dbname,
			fmt.Sprintf("failed to grant privileges on %s", quoteIdent(dbname)), err)
	}
	return nil
}

// grantSchemaPrivileges runs on a connection to the target database. It
// covers existing objects in the public schema and installs default
// privileges for future ones. The default-privilege statements name the
// role as both creator and grantee: a no-op while the role owns what it
// creates, but it keeps privileges intact if objects are ever created by a
// different role on its behalf.
func (p *Provisioner) grantSchemaPrivileges(ctx context.Context, db PgxConn) error {
	role := quoteIdent(p.Request.Role)

	statements := []string{
		fmt.Sprintf("GRANT USAGE, CREATE ON SCHEMA public TO %s", role),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL TABLES IN SCHEMA public TO %s", role),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL SEQUENCES IN SCHEMA public TO %s", role),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL FUNCTIONS IN SCHEMA public TO %s", role),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s IN SCHEMA public GRANT ALL PRIVILEGES ON TABLES TO %s", role, role),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s IN SCHEMA public GRANT ALL PRIVILEGES ON SEQUENCES TO %s", role, role),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s IN SCHEMA public GRANT ALL PRIVILEGES ON FUNCTIONS TO %s", role, role),
	}

	statusLine(p.Out, "🔑 Configuring public schema privileges for %s...", p.Request.Role)
	for _, sql := range statements {
		if _, err := db.Exec(ctx, sql); err != nil {
			return newDatabaseError("schema grants", p.Request.Database,
				fmt.Sprintf("failed statement: %s", sql), err)
		}
	}
	return nil
}

func (p *Provisioner) generatePassword() (string, error) {
	if p.GenPassword != nil {
		return p.GenPassword(p.Request.PasswordLength)
	}
	return GeneratePassword(p.Request.PasswordLength)
}

// quoteIdent makes an operator-supplied name safe to splice into DDL.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteLiteral makes a value safe to splice into DDL, which cannot take
// bind parameters. The generator never emits quotes or backslashes, but
// quoting is not conditional on that.
func quoteLiteral(literal string) string {
	return "'" + strings.ReplaceAll(literal, "'", "''") + "'"
}
