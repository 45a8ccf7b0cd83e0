package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grantcarthew/cdpwire/internal/config"
	"github.com/grantcarthew/cdpwire/internal/logger"
	"github.com/grantcarthew/cdpwire/internal/transport"
)

// Version is set at build time.
var Version = "dev"

// NoColor disables color output.
var NoColor bool

// ConfigPath overrides the configuration file location.
var ConfigPath string

// ConnectTimeout limits how long to wait for the target. Zero waits until interrupted.
var ConnectTimeout time.Duration

// AttemptTimeout overrides the per-attempt connection timeout when set.
var AttemptTimeout time.Duration

// log is the process logger; its level is set by --verbosity or the config file.
var log = logger.New("cdpwire")

// cfg is loaded before every command runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:               "cdpwire",
	Short:             "Raw Chrome DevTools Protocol frames over WebSocket",
	Long:              "cdpwire opens a WebSocket to a DevTools endpoint, waiting for it to come up, and relays text frames between the terminal and the target.",
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "Path to config file (default is the user config directory)")
	rootCmd.PersistentFlags().BoolVar(&NoColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().DurationVar(&ConnectTimeout, "timeout", 0, "Give up connecting after this long (default waits until interrupted)")
	rootCmd.PersistentFlags().DurationVar(&AttemptTimeout, "attempt-timeout", 0, "Timeout for each connection attempt (default 2s)")
	log.AddLevelFlag(rootCmd.PersistentFlags())
	rootCmd.SetVersionTemplate(`cdpwire version {{.Version}}
`)
}

// Execute runs the root command.
func Execute() error {
	defer log.Flush()
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies values not overridden by flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	path := ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			log.V(1).Info("No config directory, using defaults", "error", err.Error())
			cfg = config.Default()
			return nil
		}
		path = p
	}

	loaded, err := config.Load(path)
	if err != nil {
		return outputError(cmd.ErrOrStderr(), err.Error())
	}
	cfg = loaded

	if !cmd.Flags().Changed("verbosity") && cfg.Verbosity != "" {
		level, err := logger.StringToLevel(cfg.Verbosity, log.Level())
		if err != nil {
			return outputError(cmd.ErrOrStderr(), fmt.Sprintf("config %s: %v", path, err))
		}
		log.SetLevel(level)
	}
	return nil
}

// transportOptions merges config file and flag settings.
func transportOptions() transport.Options {
	opts := cfg.TransportOptions()
	if AttemptTimeout > 0 {
		opts.AttemptTimeout = AttemptTimeout
	}
	opts.Log = log.Logger
	return opts
}

// connect waits for the target named by url and opens a transport to it.
func connect(ctx context.Context, w io.Writer, url string) (*transport.Transport, error) {
	if ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ConnectTimeout)
		defer cancel()
	}

	log.V(1).Info("Connecting", "url", url)
	tr, err := transport.ConnectWithOptions(ctx, url, transportOptions())
	if err != nil {
		var connectErr *transport.ConnectError
		if errors.As(err, &connectErr) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, outputError(w, fmt.Sprintf("timed out waiting for %s", connectErr.URL))
		}
		return nil, outputError(w, err.Error())
	}
	return tr, nil
}

// closeTransport closes tr and waits until its last frame has been printed.
func closeTransport(tr *transport.Transport) error {
	err := tr.Close()
	<-tr.Done()
	return err
}

// printedError marks errors that have already been written to the user.
type printedError struct {
	msg string
}

func (e *printedError) Error() string {
	return e.msg
}

// IsPrintedError reports whether err was already reported by a command.
func IsPrintedError(err error) bool {
	var pe *printedError
	return errors.As(err, &pe)
}

// outputError writes an error message to w and returns an error.
func outputError(w io.Writer, msg string) error {
	if shouldUseColor(w) {
		color.New(color.FgRed).Fprint(w, "Error:")
		fmt.Fprintf(w, " %s\n", msg)
	} else {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
	return &printedError{msg: msg}
}

// shouldUseColor determines if color output should be used for w.
func shouldUseColor(w io.Writer) bool {
	if NoColor || !cfg.Color {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
