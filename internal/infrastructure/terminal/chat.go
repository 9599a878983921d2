// Package terminal runs the chat UI in a terminal.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/adapters/resources"
	"github.com/0xcro3dile/ragchat/internal/adapters/session"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/usecases"
)

// Commands understood at the prompt.
const (
	CmdExit    = "/exit"
	CmdQuit    = "/quit"
	CmdHistory = "/history"
	CmdClear   = "/clear"
)

// Options tune rendering.
type Options struct {
	Spinner   bool   // animate while waiting for an answer
	Formatter string // chroma formatter for code blocks
	Style     string // chroma style for code blocks
}

// DefaultOptions returns the options used for an interactive terminal.
func DefaultOptions() Options {
	return Options{
		Spinner:   true,
		Formatter: "terminal256",
		Style:     "monokai",
	}
}

// Chat is an interactive prompt loop over one session at a time.
type Chat struct {
	chat     *usecases.ChatUseCase
	sessions *session.Registry
	messages resources.Messages
	opts     Options
	in       io.Reader
	out      io.Writer
	logger   zerolog.Logger

	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
	errorStyle     lipgloss.Style
	hintStyle      lipgloss.Style
}

// New creates a terminal chat reading prompts from in and writing to out.
func New(
	chat *usecases.ChatUseCase,
	sessions *session.Registry,
	messages resources.Messages,
	in io.Reader,
	out io.Writer,
	opts Options,
	logger zerolog.Logger,
) *Chat {
	r := lipgloss.NewRenderer(out)
	return &Chat{
		chat:           chat,
		sessions:       sessions,
		messages:       messages,
		opts:           opts,
		in:             in,
		out:            out,
		logger:         logger.With().Str("component", "terminal").Logger(),
		userLabel:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistantLabel: r.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		errorStyle:     r.NewStyle().Foreground(lipgloss.Color("196")),
		hintStyle:      r.NewStyle().Faint(true),
	}
}

// Run shows the greeting and answers prompts until /exit, end of input or ctx is cancelled.
func (c *Chat) Run(ctx context.Context) error {
	sess, err := c.sessions.Create()
	if err != nil {
		return err
	}
	defer func() { c.sessions.Remove(sess.ID) }()

	c.printHistory(sess)
	fmt.Fprintln(c.out, c.hintStyle.Render(fmt.Sprintf("%s  (%s %s %s)", c.messages.UserInputPlaceholder, CmdHistory, CmdClear, CmdExit)))

	lines := c.readLines(ctx)
	for {
		fmt.Fprint(c.out, c.userLabel.Render("> "))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case CmdExit, CmdQuit:
			return nil
		case CmdHistory:
			c.printHistory(sess)
			continue
		case CmdClear:
			c.sessions.Remove(sess.ID)
			if sess, err = c.sessions.Create(); err != nil {
				return err
			}
			c.printHistory(sess)
			continue
		}

		c.exchange(ctx, sess, line)
	}
}

// readLines delivers input lines until EOF. The reader goroutine may outlive Run while blocked on input.
func (c *Chat) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.logger.Warn().Err(err).Msg("reading input failed")
		}
	}()
	return lines
}

func (c *Chat) exchange(ctx context.Context, sess *session.Session, prompt string) {
	stop := c.startSpinner()

	sess.Lock()
	reply, err := c.chat.Exchange(ctx, sess.Store, prompt)
	sess.Unlock()

	stop()
	if err != nil {
		fmt.Fprintln(c.out, c.errorStyle.Render(fmt.Sprintf("Error (%s): %v", apperr.Kind(err), err)))
		fmt.Fprintln(c.out)
		return
	}
	c.printMessage(reply)
}

func (c *Chat) startSpinner() func() {
	if !c.opts.Spinner {
		return func() {}
	}
	spinner, err := pterm.DefaultSpinner.
		WithWriter(c.out).
		WithRemoveWhenDone(true).
		Start(c.messages.WaitSpinner)
	if err != nil {
		c.logger.Debug().Err(err).Msg("spinner unavailable")
		return func() {}
	}
	return func() { _ = spinner.Stop() }
}

func (c *Chat) printHistory(sess *session.Session) {
	for _, m := range sess.Store.All() {
		c.printMessage(m)
	}
}

func (c *Chat) printMessage(m entities.Message) {
	label := c.assistantLabel
	if m.Role == entities.RoleUser {
		label = c.userLabel
	}
	fmt.Fprintln(c.out, label.Render(m.Role.Label()+":"))

	if m.Role == entities.RoleAssistant {
		c.renderMarkdown(m.Content)
	} else {
		fmt.Fprintln(c.out, m.Content)
	}
	fmt.Fprintln(c.out)
}

// renderMarkdown prints prose as is and highlights fenced code blocks.
// An unterminated fence is highlighted up to the end of the text.
func (c *Chat) renderMarkdown(text string) {
	var (
		code   strings.Builder
		lang   string
		inCode bool
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				c.highlight(code.String(), lang)
				inCode = false
				continue
			}
			inCode = true
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			code.Reset()
			continue
		}
		if inCode {
			code.WriteString(line)
			code.WriteByte('\n')
			continue
		}
		fmt.Fprintln(c.out, line)
	}
	if inCode {
		c.highlight(code.String(), lang)
	}
}

func (c *Chat) highlight(code, lang string) {
	if err := quick.Highlight(c.out, code, lang, c.opts.Formatter, c.opts.Style); err != nil {
		c.logger.Debug().Err(err).Str("lang", lang).Msg("highlighting failed")
		fmt.Fprint(c.out, code)
	}
}
