package cli

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/grantcarthew/cdpwire/internal/config"
)

// newEchoServer answers every frame with a CDP response carrying the same id.
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()

		ctx := context.Background()
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"method":"Target.targetCreated","params":{}}`))
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			if strings.Contains(string(data), `"id":1`) {
				_ = c.Write(ctx, websocket.MessageText, []byte(`{"id":1,"result":{"product":"Chrome/120"}}`))
			}
			if strings.Contains(string(data), "bye") {
				_ = c.Close(websocket.StatusNormalClosure, "bye")
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/devtools/browser/test"
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	// Reset global flag state between runs.
	NoColor = true
	ConfigPath = ""
	ConnectTimeout = 0
	AttemptTimeout = 0
	connectRaw = false
	connectLinger = time.Second
	sendRaw = false
	sendWait = time.Second
	cfg = config.Default()
	for _, cmd := range []*cobra.Command{rootCmd, connectCmd, sendCmd} {
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))

	// Keep the developer's own config file out of the tests.
	if !slices.Contains(args, "--config") {
		args = append(args, "--config", filepath.Join(t.TempDir(), "none.toml"))
	}
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSend_PrintsLabelledFrames(t *testing.T) {
	server := newEchoServer(t)

	stdout, stderr, err := run(t, "", "send", wsURL(server), `{"id":1,"method":"Browser.getVersion"}`, "--wait", "300ms")
	require.NoError(t, err, stderr)

	require.Contains(t, stdout, `[command #1 Browser.getVersion] {"id":1,"method":"Browser.getVersion"}`)
	require.Contains(t, stdout, `[event Target.targetCreated]`)
	require.Contains(t, stdout, `[response #1] {"id":1,"result":{"product":"Chrome/120"}}`)
}

func TestSend_RawPrintsPayloadsOnly(t *testing.T) {
	server := newEchoServer(t)

	stdout, _, err := run(t, "", "send", "--raw", "--wait", "300ms", wsURL(server), `{"id":1,"method":"Browser.getVersion"}`)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Equal(t, []string{
		`{"method":"Target.targetCreated","params":{}}`,
		`{"id":1,"result":{"product":"Chrome/120"}}`,
	}, lines)
}

func TestSend_RequiresFrame(t *testing.T) {
	_, _, err := run(t, "", "send", "ws://127.0.0.1:1/")
	require.Error(t, err)
}

func TestConnect_RelaysStdin(t *testing.T) {
	server := newEchoServer(t)

	stdout, stderr, err := run(t, "{\"id\":1,\"method\":\"Browser.getVersion\"}\n\n", "connect", "--linger", "300ms", wsURL(server))
	require.NoError(t, err, stderr)

	require.Contains(t, stdout, "-- connected to "+wsURL(server))
	require.Contains(t, stdout, `> `)
	require.Contains(t, stdout, `[response #1]`)
}

func TestConnect_ExitsWhenRemoteCloses(t *testing.T) {
	server := newEchoServer(t)

	start := time.Now()
	_, _, err := run(t, "bye\n", "connect", "--linger", "10s", wsURL(server))
	require.NoError(t, err)

	require.Less(t, time.Since(start), 5*time.Second, "should not wait for the linger period")
}

func TestConnect_TimeoutReportsURL(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	target := "ws://" + addr + "/devtools/page/1"
	_, stderr, err := run(t, "", "connect", "--timeout", "150ms", target)
	require.Error(t, err)
	require.True(t, IsPrintedError(err))
	require.Contains(t, stderr, "Error: timed out waiting for "+target)
}

func TestRoot_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`attempt_timeout = "never"`), 0o600))

	_, stderr, err := run(t, "", "send", "ws://127.0.0.1:1/", "{}", "--config", path)
	require.Error(t, err)
	require.True(t, IsPrintedError(err))
	require.Contains(t, stderr, "invalid duration")
}

func TestRoot_ConfigFileSetsAttemptTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`attempt_timeout = "750ms"`), 0o600))

	server := newEchoServer(t)
	_, stderr, err := run(t, "", "send", "--wait", "50ms", "--config", path, wsURL(server), "{}")
	require.NoError(t, err, stderr)
	require.Equal(t, 750*time.Millisecond, transportOptions().AttemptTimeout)

	AttemptTimeout = 300 * time.Millisecond
	require.Equal(t, 300*time.Millisecond, transportOptions().AttemptTimeout, "flag overrides file")
	AttemptTimeout = 0
}

func TestOutputError_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	err := outputError(&buf, "something failed")

	require.Equal(t, "Error: something failed\n", buf.String())
	require.True(t, IsPrintedError(err))
	require.False(t, IsPrintedError(io.EOF))
}

func TestScanLines_SkipsBlankLines(t *testing.T) {
	in := strings.NewReader("  {\"id\":1}  \n\n\t\n{\"id\":2}")

	var got []string
	scanLines(in, func(line string) { got = append(got, line) })

	require.Equal(t, []string{`{"id":1}`, `{"id":2}`}, got)
}

func TestIsTerminal_PipedInput(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.False(t, isTerminal(r), "a pipe uses the line scanner")
	require.False(t, isTerminal(strings.NewReader("")))
	require.False(t, isTerminal(nil))
}
