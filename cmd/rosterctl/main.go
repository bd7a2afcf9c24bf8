// Command rosterctl runs maintenance tasks for the roster database and
// configuration.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/config"
	"github.com/example/mowing-roster/internal/logging"
	"github.com/example/mowing-roster/internal/persistence/sqlite"
	"github.com/example/mowing-roster/internal/seed"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const usage = `usage: rosterctl <command> [flags]

commands:
  hash-password   print an argon2id hash for ROSTER_ADMIN_PASSWORD_HASH
  migrate         apply database migrations
  check-seed      validate a seed plan file
`

var errUsage = errors.New("invalid usage")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "hash-password":
		err = hashPassword(args[1:], stdin, stdout, stderr)
	case "migrate":
		err = migrate(ctx, args[1:], stderr)
	case "check-seed":
		err = checkSeed(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(stderr, "rosterctl %s: %v\n", args[0], err)
		return 1
	}
}

func hashPassword(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := promptPassword(stdin, stderr)
	if err != nil {
		return err
	}
	hash, err := application.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

// promptPassword reads the password twice from a terminal, or a single line
// when stdin is piped.
func promptPassword(stdin io.Reader, prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if stdin != os.Stdin || !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return nonEmpty(strings.TrimRight(line, "\r\n"))
	}

	fmt.Fprint(prompt, "Admin password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(prompt, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return nonEmpty(string(first))
}

func nonEmpty(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}

func migrate(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dsn := fs.String("dsn", defaultDSN(), "SQLite data source name")
	level := fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lvl, err := logging.ParseLevel(*level)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, lvl)

	storage, err := sqlite.OpenWithConfig(sqlite.DefaultConfig(*dsn), logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database is up to date", slog.String("dsn", *dsn))
	return nil
}

func defaultDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("ROSTER_SQLITE_DSN")); dsn != "" {
		return dsn
	}
	return config.DefaultSQLiteDSN
}

func checkSeed(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("check-seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: rosterctl check-seed <file>")
		return errUsage
	}

	plan, err := seed.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d users, %d sessions\n", len(plan.Users), len(plan.Sessions))
	return nil
}
