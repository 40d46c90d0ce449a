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
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/movielib/config"
	redisadapter "github.com/target/movielib/internal/adapters/redis"
	"github.com/target/movielib/internal/bootstrap"
	"github.com/target/movielib/internal/data"
	"github.com/target/movielib/internal/data/cryptoutil"
	domainauth "github.com/target/movielib/internal/domain/auth"
	"github.com/target/movielib/internal/ports"
	"github.com/target/movielib/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	In     io.Reader
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute
)

func main() {
	logger := bootstrap.InitLogger(false)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"create-user": {
			name:        "create-user",
			description: "Register an account; the password is read from stdin",
			run:         runCreateUser,
		},
		"list-login-throttles": {
			name:        "list-login-throttles",
			description: "Inspect failed-login counters in Redis",
			run:         runListLoginThrottles,
		},
		"clear-login-throttles": {
			name:        "clear-login-throttles",
			description: "Delete every failed-login counter from Redis",
			run:         runClearLoginThrottles,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: movielib-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(w, "  %-24s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

type createUserOptions struct {
	Username string
	Email    string
}

type clearThrottleOptions struct {
	Yes bool
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, _, err := connectInfraWithOptions(&connectInfraOptions{Logger: cmdCtx.Logger, Config: &cmdCtx.Config, WantDB: true})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runCreateUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateUserFlags(args)
	if err != nil {
		return err
	}
	password, err := readPassword(cmdCtx.In)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	users, closeUsers, err := openUserRepository(cmdCtx)
	if err != nil {
		return err
	}
	defer closeUsers()

	user, err := createUser(ctx, cmdCtx, users, service.RegisterInput{
		Username: opts.Username,
		Password: password,
		Email:    opts.Email,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid account: %s", strings.Join(verr.Details, "; "))
		}
		return err
	}
	return writef(cmdCtx.Out, "created user %s (%s)\n", user.Username, user.ID)
}

func createUser(
	ctx context.Context,
	cmdCtx *commandContext,
	users ports.UserRepository,
	in service.RegisterInput,
) (domainauth.User, error) {
	credentials, err := service.NewCredentialService(service.CredentialServiceOptions{
		Hasher:  cryptoutil.NewPBKDF2Hasher(cmdCtx.Config.Auth.HashIterations),
		Workers: 1,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return domainauth.User{}, err
	}
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Users:       users,
		Credentials: credentials,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return domainauth.User{}, err
	}
	return auth.Register(ctx, in)
}

//nolint:ireturn // the repository backend follows AUTH_USER_STORE.
func openUserRepository(cmdCtx *commandContext) (ports.UserRepository, func(), error) {
	if cmdCtx.Config.Auth.UserStore == config.UserStoreMemory {
		return nil, nil, errors.New("create-user needs a persistent user store; set AUTH_USER_STORE=postgres")
	}
	db, _, err := connectInfraWithOptions(&connectInfraOptions{Logger: cmdCtx.Logger, Config: &cmdCtx.Config, WantDB: true})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}
	return data.NewUserRepo(db), closeFn, nil
}

func readPassword(r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("password must be provided on stdin")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must be provided on stdin")
	}
	return password, nil
}

func runListLoginThrottles(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	limiter, closeFn, err := openLoginLimiter(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := limiter.Entries(ctx)
	if err != nil {
		return fmt.Errorf("list login throttles: %w", err)
	}
	return printThrottleEntries(cmdCtx.Out, entries)
}

func runClearLoginThrottles(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearThrottleFlags(args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if confirmErr := confirmAction(cmdCtx.In, cmdCtx.Out, "delete every failed-login counter"); confirmErr != nil {
			return confirmErr
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	limiter, closeFn, err := openLoginLimiter(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := limiter.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear login throttles: %w", err)
	}
	return writef(cmdCtx.Out, "deleted %d counter(s)\n", n)
}

func openLoginLimiter(cmdCtx *commandContext) (*redisadapter.LoginLimiter, func(), error) {
	_, client, err := connectInfraWithOptions(&connectInfraOptions{Logger: cmdCtx.Logger, Config: &cmdCtx.Config, WantRedis: true})
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, errRedisNotConfigured
	}
	throttle := cmdCtx.Config.Auth.LoginThrottle
	limiter := redisadapter.NewLoginLimiter(client, redisadapter.LoginLimiterOptions{
		MaxAttempts: throttle.MaxAttempts,
		Cooldown:    throttle.Cooldown,
	})
	closeFn := func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}
	return limiter, closeFn, nil
}

func printThrottleEntries(w io.Writer, entries []redisadapter.ThrottleEntry) error {
	if len(entries) == 0 {
		return writeln(w, "No failed-login counters.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "KIND\tSUBJECT\tFAILURES\tLOCKED\tTTL"); err != nil {
		return fmt.Errorf("write throttle header row: %w", err)
	}
	for _, e := range entries {
		if err := writef(tw, "%s\t%s\t%d\t%t\t%s\n", e.Kind, e.Subject, e.Failures, e.Locked, renderTTL(e.TTL)); err != nil {
			return fmt.Errorf("write throttle row %q: %w", e.Subject, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush throttle table: %w", err)
	}
	return nil
}

func renderTTL(d time.Duration) string {
	switch {
	case d == -1*time.Second:
		return "no expiry"
	case d == -2*time.Second:
		return "key missing"
	default:
		return d.String()
	}
}

func confirmAction(in io.Reader, out io.Writer, action string) error {
	if err := writef(out, "About to %s.\nContinue? [y/N]: ", action); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.New("aborted by user")
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseCreateUserFlags(args []string) (createUserOptions, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts createUserOptions
	fs.StringVar(&opts.Username, "username", "", "Account username (required)")
	fs.StringVar(&opts.Email, "email", "", "Optional email address")

	if err := fs.Parse(args); err != nil {
		return createUserOptions{}, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Username == "" {
		return createUserOptions{}, errors.New("--username is required")
	}
	return opts, nil
}

func parseClearThrottleFlags(args []string) (clearThrottleOptions, error) {
	fs := flag.NewFlagSet("clear-login-throttles", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearThrottleOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearThrottleOptions{}, err
	}
	return opts, nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
