// Package cli implements the dochubctl command tree on top of the client SDK.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/client"
	"github.com/ivankudzin/dochub/internal/infra/logger"
)

const (
	envBaseURL   = "DOCHUB_BASE_URL"
	envTokenFile = "DOCHUB_TOKEN_FILE"
	envPassword  = "DOCHUB_PASSWORD"
)

type app struct {
	baseURL   string
	tokenFile string
	timeout   time.Duration
	verbose   bool

	stdout io.Writer
	log    *zap.Logger
	api    *client.Client
}

// NewRootCommand builds the dochubctl command tree writing results to stdout.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	root := &cobra.Command{
		Use:           "dochubctl",
		Short:         "Command-line client for the dochub document portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.baseURL, "base-url", envOr(envBaseURL, "http://localhost:8080"), "API base URL")
	flags.StringVar(&a.tokenFile, "token-file", envOr(envTokenFile, defaultTokenFile()), "where the session tokens are kept")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "per-request timeout")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.meCommand(),
		a.documentsCommand(),
		a.categoriesCommand(),
		a.likeCommand(true),
		a.likeCommand(false),
		a.viewCommand(),
		a.commentsCommand(),
		a.rolesCommand(),
	)
	return root
}

// Execute runs the command tree with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (a *app) init() error {
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	log, err := logger.New("local", level)
	if err != nil {
		return err
	}
	a.log = log

	api, err := client.New(a.baseURL,
		client.WithTokenStore(client.NewFileStore(a.tokenFile)),
		client.WithTimeout(a.timeout),
		client.WithLogger(log),
	)
	if err != nil {
		return err
	}
	a.api = api
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".dochub-tokens.json"
	}
	return filepath.Join(dir, "dochub", "tokens.json")
}
