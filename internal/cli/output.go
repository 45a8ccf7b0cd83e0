package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/grantcarthew/cdpwire/internal/cdp"
	"github.com/grantcarthew/cdpwire/internal/hrtime"
	"github.com/grantcarthew/cdpwire/internal/transport"
)

// frameWriter prints frames as they cross the transport.
// Inbound frames are written from the dispatch goroutine and outbound frames
// from the command goroutine, so writes are serialised.
type frameWriter struct {
	mu     sync.Mutex
	w      io.Writer
	raw    bool
	opened hrtime.Time

	in    *color.Color
	out   *color.Color
	label *color.Color
}

func newFrameWriter(w io.Writer, raw bool, opened hrtime.Time) *frameWriter {
	fw := &frameWriter{
		w:      w,
		raw:    raw,
		opened: opened,
		in:     color.New(color.FgGreen),
		out:    color.New(color.FgCyan),
		label:  color.New(color.Faint),
	}
	if !shouldUseColor(w) {
		fw.in.DisableColor()
		fw.out.DisableColor()
		fw.label.DisableColor()
	}
	return fw
}

// inbound prints a received frame.
func (fw *frameWriter) inbound(m transport.Message) {
	fw.print(fw.in, "<", m.ReceivedAt, m.Data)
}

// outbound prints a frame about to be sent.
func (fw *frameWriter) outbound(data string) {
	fw.print(fw.out, ">", hrtime.Now(), data)
}

func (fw *frameWriter) print(c *color.Color, arrow string, at hrtime.Time, data string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.raw {
		if arrow == "<" {
			fmt.Fprintln(fw.w, data)
		}
		return
	}

	elapsed := at.Sub(fw.opened)
	fmt.Fprintf(fw.w, "%s %s %s\n",
		c.Sprintf("%s %10.3fms", arrow, float64(elapsed.Microseconds())/1000),
		fw.label.Sprintf("[%s]", cdp.Describe(data).Label()),
		data,
	)
}

// notice prints an informational line that is not a frame.
func (fw *frameWriter) notice(format string, args ...any) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.raw {
		return
	}
	fmt.Fprintln(fw.w, fw.label.Sprintf("-- "+format, args...))
}
