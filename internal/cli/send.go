package cli

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/grantcarthew/cdpwire/internal/hrtime"
)

var (
	sendRaw  bool
	sendWait time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <ws-url> <frame>...",
	Short: "Send frames to a DevTools endpoint and print what comes back",
	Long: `Connects to the endpoint, sends each frame argument in order, prints
received frames for the wait period, then closes the connection.

Example:
  cdpwire send ws://127.0.0.1:9222/devtools/browser/ID '{"id":1,"method":"Browser.getVersion"}'`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendRaw, "raw", false, "Print received payloads only")
	sendCmd.Flags().DurationVar(&sendWait, "wait", time.Second, "How long to print received frames after sending")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	tr, err := connect(ctx, cmd.ErrOrStderr(), args[0])
	if err != nil {
		return err
	}
	defer tr.Close()

	fw := newFrameWriter(cmd.OutOrStdout(), sendRaw, hrtime.Now())
	tr.OnMessage(fw.inbound)

	for _, frame := range args[1:] {
		fw.outbound(frame)
		tr.Send(frame)
	}

	lingerFor(ctx, tr.Done(), sendWait)
	return closeTransport(tr)
}
