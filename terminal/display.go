// Package terminal renders a docchat conversation in a terminal.
package terminal

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/itish2003/docchat/chat"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const defaultWidth = 80

// Conversation is the read side of a chat.Orchestrator.
type Conversation interface {
	State() chat.ConversationState
	Err() string
}

// Display prints a conversation incrementally. It implements chat.View:
// ScrollToBottom prints every message not printed yet and the current error
// banner.
type Display struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	color    bool

	mu      sync.Mutex
	conv    Conversation
	shown   int
	lastErr string
}

var _ chat.View = (*Display)(nil)

// NewDisplay creates a display writing to out. When out is a terminal the
// markdown style follows its background and wraps at its width; otherwise
// plain styling is used.
func NewDisplay(out io.Writer) (*Display, error) {
	width, isTTY := terminalWidth(out)

	style := glamour.WithStandardStyle("notty")
	if isTTY {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}

	return &Display{
		out:      out,
		renderer: renderer,
		color:    isTTY,
	}, nil
}

// Attach sets the conversation the display reads from.
func (d *Display) Attach(conv Conversation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conv = conv
}

// ScrollToBottom prints what changed since the last call.
func (d *Display) ScrollToBottom() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conv == nil {
		return
	}

	state := d.conv.State()
	if d.shown > len(state.Messages) {
		d.shown = 0
	}
	for _, m := range state.Messages[d.shown:] {
		// A new question starts a new submission; its failure gets its own banner.
		if m.Type == chat.UserMessage {
			d.lastErr = ""
		}
		d.printMessage(m)
	}
	d.shown = len(state.Messages)

	errMsg := d.conv.Err()
	if errMsg != "" && errMsg != d.lastErr {
		d.printf(colorRed, "✗ %s  (/dismiss to hide)\n", errMsg)
	}
	d.lastErr = errMsg
}

// Redraw prints the whole conversation again, e.g. after a reset.
func (d *Display) Redraw() {
	d.mu.Lock()
	d.shown = 0
	d.lastErr = ""
	d.mu.Unlock()
	d.printf(colorGray, "── conversation cleared ──\n")
	d.ScrollToBottom()
}

// SuggestedQuestions are offered in the welcome banner.
var SuggestedQuestions = []string{
	"What's the Soroban-RPC?",
	"What's the assert_with_error module?",
}

// PrintWelcome displays the banner.
func (d *Display) PrintWelcome(server string) {
	d.printf(colorCyan, "Soroban Documentation AI Assistant\n")
	d.printf(colorGray, "Server: %s\n", server)
	d.printf(colorGray, "Ask me questions like:\n")
	for _, q := range SuggestedQuestions {
		d.printf(colorGray, "  • %s\n", q)
	}
	d.printf(colorGray, "Commands: /copy [n], /reset, /dismiss, /exit\n\n")
}

// PrintWaiting shows that a question is being answered.
func (d *Display) PrintWaiting() {
	d.printf(colorGray, "Waiting for response...\n")
}

// PrintValidation shows an input validation prompt.
func (d *Display) PrintValidation(msg string) {
	d.printf(colorYellow, "⚠ %s\n", msg)
}

// PrintInfo shows an informational line.
func (d *Display) PrintInfo(msg string) {
	d.printf(colorCyan, "ℹ %s\n", msg)
}

// PrintPrompt displays the user input prompt.
func (d *Display) PrintPrompt() {
	d.printf(colorGreen, "> ")
}

// Copy places text on the terminal clipboard using the OSC 52 escape
// sequence.
func (d *Display) Copy(text string) {
	fmt.Fprintf(d.out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
}

func (d *Display) printMessage(m chat.Message) {
	if m.Type == chat.UserMessage {
		d.printf(colorGreen, "You: ")
		fmt.Fprintln(d.out, m.Text)
		return
	}

	rendered, err := d.renderer.Render(m.Text)
	if err != nil {
		rendered = m.Text + "\n"
	}
	fmt.Fprint(d.out, rendered)

	if len(m.SourceDocuments) > 0 {
		fmt.Fprint(d.out, FormatSources(m.SourceDocuments))
	}
}

func (d *Display) printf(color, format string, args ...any) {
	if d.color {
		fmt.Fprint(d.out, color)
		defer fmt.Fprint(d.out, colorReset)
	}
	fmt.Fprintf(d.out, format, args...)
}

// FormatSources renders a numbered list of distinct sources.
func FormatSources(docs []chat.SourceDocument) string {
	docs = chat.DedupeSources(docs)
	var sb strings.Builder
	sb.WriteString("Sources:\n")
	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.Source
		}
		fmt.Fprintf(&sb, "  %d. %s", i+1, title)
		if doc.Source != "" && doc.Source != title {
			fmt.Fprintf(&sb, " <%s>", doc.Source)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 20 {
		return defaultWidth, true
	}
	return width, true
}
