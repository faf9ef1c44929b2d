// Command docapprove is the command-line front-end of the document approval
// backend: browse, create, approve and delete items, fetch their photos and
// PDFs, and manage user accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/pkg/config"
	"github.com/docflow/approvals/pkg/logger"
)

const usage = `Usage: docapprove [-v] <command> [flags]

Commands:
  login -email <email> -password <password>
  logout
  whoami
  profile update [-first <name>] [-last <name>] [-company <name>]

  items list [-code <code>]
  items show <id>
  items create -title <t> -code <c> -pdf <url> [-neto <n>] [-registracija <r>] [-created <time>]
  items approve <id> [-code <code>]
  items delete <id> [-code <code>]
  items photo <id> [-slot front|back] [-thumb] [-o <file>]
  items pdf <id> [-o <file>]

  users list
  users create -email <e> -password <p> -first <n> -last <n> -role admin|user|bot [-company <c>] [-codes A1,B2]
  users update <id> [-first <n>] [-last <n>] [-company <c>] [-role <r>] [-codes <list>]
  users delete <id>

Configuration is read from the environment (API_BASE_URL, SESSION_BACKEND, ...).
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], envconfig.OsLookuper(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status: 0 on
// success, 1 when the command failed, 2 on a usage error.
func run(ctx context.Context, args []string, env envconfig.Lookuper, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("docapprove", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var verbose bool
	fs.BoolVar(&verbose, "v", false, "")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.LoadFrom(ctx, env)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.Init(logger.Options{Level: level, Pretty: cfg.Env == "development", Output: stderr})

	a, cleanup, err := newApp(ctx, cfg, stdout, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()
	defer exportMetrics(cfg.Metrics.File, log)

	if err := a.dispatch(ctx, fs.Args()); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "%s\n\n%s", ue, usage)
			return 2
		}
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintln(stderr, domain.UserMessage(err))
		return 1
	}
	return 0
}

// exportMetrics writes the process metrics to path. A failed write is logged
// and never changes the exit status.
func exportMetrics(path string, log zerolog.Logger) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to write metrics file")
	}
}

// usageError is a malformed command line.
type usageError string

func (e usageError) Error() string { return string(e) }
