package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/grantcarthew/cdpwire/internal/hrtime"
)

var (
	connectRaw    bool
	connectLinger time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect <ws-url>",
	Short: "Relay frames between stdin/stdout and a DevTools endpoint",
	Long: `Waits for the endpoint to accept a WebSocket connection, then sends each
line read from stdin as a text frame and prints every frame received.

Exits when the remote side closes the connection, on interrupt, or once stdin
ends and the linger period has passed.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().BoolVar(&connectRaw, "raw", false, "Print received payloads only")
	connectCmd.Flags().DurationVar(&connectLinger, "linger", time.Second, "How long to keep receiving after stdin ends")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	tr, err := connect(ctx, cmd.ErrOrStderr(), args[0])
	if err != nil {
		return err
	}
	defer tr.Close()

	fw := newFrameWriter(cmd.OutOrStdout(), connectRaw, hrtime.Now())
	fw.notice("connected to %s", tr.URL())
	tr.OnMessage(fw.inbound)

	send := func(line string) {
		fw.outbound(line)
		tr.Send(line)
	}

	in := cmd.InOrStdin()
	readInput := func() { scanLines(in, send) }
	if isTerminal(in) {
		// Restores the terminal even if a prompt is still blocked on input.
		state := liner.NewLiner()
		defer state.Close()
		state.SetCtrlCAborts(true)
		readInput = func() { promptLines(state, send) }
	}

	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		readInput()
	}()

	select {
	case <-tr.Done():
		fw.notice("connection closed by remote")
		return nil
	case <-ctx.Done():
	case <-inputDone:
		lingerFor(ctx, tr.Done(), connectLinger)
	}

	return closeTransport(tr)
}

// scanLines calls emit with each non-blank line of r.
func scanLines(r io.Reader, emit func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			emit(line)
		}
	}
}

// promptLines reads frames interactively with line editing and history until
// Ctrl-C or Ctrl-D.
func promptLines(state *liner.State, emit func(string)) {
	for {
		input, err := state.Prompt("cdp> ")
		if err != nil {
			if err != liner.ErrPromptAborted && err != io.EOF {
				log.V(1).Info("Prompt failed", "error", err.Error())
			}
			return
		}

		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}
		state.AppendHistory(line)
		emit(line)
	}
}

// lingerFor waits for d unless ctx or done finishes first.
func lingerFor(ctx context.Context, done <-chan struct{}, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-done:
	case <-ctx.Done():
	}
}
