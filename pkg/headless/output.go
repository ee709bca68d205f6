package headless

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/fieldwise/bridge/pkg/events"
)

var (
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true)
	citationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)

// Output renders consumer updates as styled console lines.
type Output struct {
	w io.Writer
}

// NewOutput creates a new output handler
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Delta prints an incremental text fragment inline, unstyled.
func (o *Output) Delta(text string) {
	fmt.Fprint(o.w, text)
}

// Status prints an agent status line.
func (o *Output) Status(status events.AgentStatus) {
	line := string(status.Current)
	if status.Thinking != "" {
		line = fmt.Sprintf("%s: %s", status.Current, status.Thinking)
	}
	if status.Progress != nil {
		line = fmt.Sprintf("%s (%d%%)", line, *status.Progress)
	}
	fmt.Fprintln(o.w, statusStyle.Render("["+line+"]"))
}

// Citation prints an attached source reference.
func (o *Output) Citation(c events.Citation) {
	line := fmt.Sprintf("  » %s", c.Source)
	if c.Page > 0 {
		line = fmt.Sprintf("%s p.%d", line, c.Page)
	}
	if c.URL != "" {
		line = fmt.Sprintf("%s <%s>", line, c.URL)
	}
	fmt.Fprintln(o.w, citationStyle.Render(line))
}

// Message prints a completed assistant message footer with its agent tag.
func (o *Output) Message(msg events.ChatMessage) {
	fmt.Fprintln(o.w)
	if msg.AgentType != "" {
		fmt.Fprintln(o.w, agentStyle.Render(fmt.Sprintf("— %s", msg.AgentType)))
	}
	for _, c := range msg.Citations {
		o.Citation(c)
	}
}

// Error prints an error line.
func (o *Output) Error(err error) {
	fmt.Fprintln(o.w, errorStyle.Render(fmt.Sprintf("error: %v", err)))
}
