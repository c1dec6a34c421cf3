package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itish2003/docchat/chat"
	"github.com/itish2003/docchat/config"
	"github.com/itish2003/docchat/terminal"
)

var (
	chatServer  string
	chatTimeout string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the documentation assistant in the terminal",
	Long: `Start an interactive chat against a running docchat server.

Commands inside the chat:
  /copy [n]   copy the last (or nth) answer to the clipboard
  /reset      start a new conversation
  /dismiss    hide the current error
  /exit       quit

Examples:
  docchat chat
  docchat chat --server http://localhost:8080 --timeout 60s`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatServer, "server", "s", "", "server base URL (default DOCCHAT_SERVER_URL)")
	chatCmd.Flags().StringVar(&chatTimeout, "timeout", "", "request timeout, 0 waits forever (default CHAT_REQUEST_TIMEOUT)")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatServer != "" {
		cfg.ServerURL = chatServer
	}
	if chatTimeout != "" {
		d, err := config.ParseDuration(chatTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}

	chatLogger, closeFile := chatFileLogger(cfg.LogFile, cfg.LogLevel)
	defer closeFile()

	display, err := terminal.NewDisplay(os.Stdout)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}

	client := chat.NewHTTPClient(cfg.ServerURL, &http.Client{}, chatLogger)
	orch := chat.NewOrchestrator(chat.NewStore(cfg.Greeting), client,
		chat.WithView(display),
		chat.WithLogger(chatLogger),
		chat.WithTimeout(cfg.RequestTimeout),
	)
	display.Attach(orch)

	display.PrintWelcome(cfg.ServerURL)
	display.ScrollToBottom()

	return chatLoop(cmd, orch, display, os.Stdin)
}

func chatLoop(cmd *cobra.Command, orch *chat.Orchestrator, display *terminal.Display, in io.Reader) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		display.PrintPrompt()
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := scanner.Text()

		if c, ok := parseCommand(line); ok {
			switch c.name {
			case "exit", "quit":
				return nil
			case "reset":
				_, _ = orch.Dispatch(ctx, chat.ResetRequested{})
				display.Redraw()
			case "dismiss":
				_, _ = orch.Dispatch(ctx, chat.ErrorDismissed{})
				display.PrintInfo("Error dismissed")
			case "copy":
				text, err := answerToCopy(orch.State(), c.arg)
				if err != nil {
					display.PrintValidation(err.Error())
					continue
				}
				display.Copy(chat.CleanCopy(text))
				display.PrintInfo("Copied to clipboard")
			}
			continue
		}

		_, _ = orch.Dispatch(ctx, chat.TextChanged{Text: line})
		if strings.TrimSpace(line) != "" {
			display.PrintWaiting()
		}
		_, err := orch.Dispatch(ctx, chat.KeyPressed{Key: chat.KeyEnter})
		switch {
		case errors.Is(err, chat.ErrEmptyQuestion):
			display.PrintValidation("Please input a question.")
		case errors.Is(err, chat.ErrSubmissionInFlight):
			display.PrintValidation(err.Error())
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

type command struct {
	name string
	arg  string
}

var chatCommands = map[string]bool{
	"copy":    true,
	"reset":   true,
	"dismiss": true,
	"exit":    true,
	"quit":    true,
}

// parseCommand recognises lines of the form "/name [arg]" for the chat
// commands. Any other line, including one starting with "/", is a question.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") || len(line) == 1 {
		return command{}, false
	}
	fields := strings.Fields(line[1:])
	c := command{name: strings.ToLower(fields[0])}
	if !chatCommands[c.name] {
		return command{}, false
	}
	if len(fields) > 1 {
		c.arg = fields[1]
	}
	return c, true
}

// answerToCopy returns the nth assistant message, counting from 1, or the
// last one when arg is empty.
func answerToCopy(state chat.ConversationState, arg string) (string, error) {
	var answers []string
	for _, m := range state.Messages {
		if m.Type == chat.APIMessage {
			answers = append(answers, m.Text)
		}
	}
	if arg == "" {
		return answers[len(answers)-1], nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(answers) {
		return "", fmt.Errorf("no answer number %s (1-%d)", arg, len(answers))
	}
	return answers[n-1], nil
}

// chatFileLogger logs only to the log file so that stderr stays free for the
// conversation.
func chatFileLogger(path string, level slog.Level) (*slog.Logger, func() error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }
	}
	return config.SetupLoggerWithWriters(io.Discard, f, level), f.Close
}
