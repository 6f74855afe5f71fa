// Package cli is the interactive terminal front-end of the chat session
// manager.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	chatModel "github.com/zaviye/zaviye/internal/model/chat"
	"github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/service/chat"
	"github.com/zaviye/zaviye/internal/service/completion"
	"github.com/zaviye/zaviye/internal/service/settings"
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E")).Bold(true)
)

const promptLabel = "you> "

// App drives one chat session from line input.
type App struct {
	manager  *chat.Manager
	settings *settings.Store
	personas persona.Store
	out      io.Writer
	logger   *slog.Logger
}

// NewApp creates the terminal front-end.
func NewApp(manager *chat.Manager, settingsStore *settings.Store, personas persona.Store, out io.Writer) *App {
	return &App{
		manager:  manager,
		settings: settingsStore,
		personas: personas,
		out:      out,
		logger:   slog.Default().With("component", "cli"),
	}
}

// Run reads lines until EOF, an aborted prompt, /quit or ctx is done.
// An interrupt while a reply is pending stops that request.
func (a *App) Run(ctx context.Context, in LineReader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				if a.manager.IsLoading() {
					a.manager.Stop()
				}
			}
		}
	}()

	a.printWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := in.Prompt(a.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !a.Handle(ctx, input) {
			return nil
		}
	}
}

// Handle processes one line of input and reports whether to keep going.
func (a *App) Handle(ctx context.Context, input string) bool {
	if strings.HasPrefix(input, "/") {
		keepGoing, err := a.handleCommand(ctx, input)
		if err != nil {
			a.printError(err)
		}
		return keepGoing
	}

	reply, err := a.manager.Send(ctx, input)
	a.printOutcome(reply, err)
	return true
}

// prompt is handed to liner, which rejects control characters, so it
// stays unstyled.
func (a *App) prompt() string {
	return promptLabel
}

func (a *App) assistantName() string {
	s, err := a.manager.Settings()
	if err != nil || s.Name == "" {
		return a.manager.PersonaID()
	}
	return s.Name
}

func (a *App) printWelcome() {
	fmt.Fprintln(a.out, infoStyle.Render("Type a message, or /help for commands. Ctrl+C stops a pending reply."))
	a.printSession()
}

// printSession shows the intro before the first exchange and the history after.
func (a *App) printSession() {
	if a.manager.PersonaID() == "" {
		return
	}

	fmt.Fprintf(a.out, "%s\n", infoStyle.Render(fmt.Sprintf("Talking to %s (%s)", a.assistantName(), a.manager.PersonaID())))
	if !a.manager.HasStarted() {
		a.printAssistant(a.manager.Intro())
		if s, err := a.manager.Settings(); err == nil && s.Placeholder != "" {
			fmt.Fprintln(a.out, infoStyle.Render(s.Placeholder))
		}
		return
	}
	a.printHistory()
}

func (a *App) printHistory() {
	messages := a.manager.Messages()
	if len(messages) == 0 {
		fmt.Fprintln(a.out, infoStyle.Render("(no messages)"))
		return
	}
	for _, msg := range messages {
		ts := time.UnixMilli(msg.Timestamp).Format("15:04")
		switch msg.Role {
		case chatModel.RoleUser:
			fmt.Fprintf(a.out, "%s %s%s\n", infoStyle.Render(ts), promptStyle.Render(promptLabel), msg.Content)
		default:
			fmt.Fprintf(a.out, "%s %s%s\n", infoStyle.Render(ts), assistantStyle.Render(a.assistantName()+"> "), msg.Content)
		}
	}
}

func (a *App) printAssistant(text string) {
	fmt.Fprintf(a.out, "%s%s\n", assistantStyle.Render(a.assistantName()+"> "), text)
}

func (a *App) printOutcome(reply chatModel.Message, err error) {
	switch {
	case err == nil:
		a.printAssistant(reply.Content)
	case errors.Is(err, completion.ErrCancelled):
		fmt.Fprintln(a.out, warningStyle.Render("[Cancelled]"))
	default:
		a.logger.Debug("request_failed", "error", err)
		a.printError(err)
	}
}

func (a *App) printError(err error) {
	fmt.Fprintf(a.out, "%s %v\n", errorStyle.Render("[Error]"), err)
}
