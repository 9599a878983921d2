package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat/internal/adapters/resources"
	"github.com/0xcro3dile/ragchat/internal/adapters/session"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/usecases"
)

type stubFacade struct {
	answer  string
	err     error
	queries []string
}

func (f *stubFacade) Answer(ctx context.Context, query string, history []entities.Message) (string, error) {
	f.queries = append(f.queries, query)
	return f.answer, f.err
}

var testMessages = resources.Messages{
	Greeting:             "Hi, ask me anything.",
	UserInputPlaceholder: "Type a question",
	WaitSpinner:          "Thinking...",
}

func newChat(facade *stubFacade, in io.Reader, out io.Writer) (*Chat, *session.Registry) {
	sessions := session.NewRegistry(testMessages.Greeting, time.Hour, zerolog.Nop())
	opts := Options{Formatter: "noop", Style: "monokai"}
	chat := New(usecases.NewChatUseCase(facade, zerolog.Nop()), sessions, testMessages, in, out, opts, zerolog.Nop())
	return chat, sessions
}

func TestRun_Exchange(t *testing.T) {
	facade := &stubFacade{answer: "Here you go:\n```go\nfmt.Println(1)\n```\nDone."}
	var out bytes.Buffer
	chat, sessions := newChat(facade, strings.NewReader("how do I print?\n/exit\nignored\n"), &out)

	require.NoError(t, chat.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Hi, ask me anything.")
	assert.Contains(t, text, "Type a question")
	assert.Contains(t, text, "Here you go:")
	assert.Contains(t, text, "fmt.Println(1)")
	assert.Contains(t, text, "Done.")
	assert.NotContains(t, text, "```")
	assert.Equal(t, []string{"how do I print?"}, facade.queries)
	assert.Zero(t, sessions.Len())
}

func TestRun_HistoryAndClear(t *testing.T) {
	facade := &stubFacade{answer: "forty-two"}
	var out bytes.Buffer
	chat, _ := newChat(facade, strings.NewReader("question\n/history\n/clear\n/history\n"), &out)

	require.NoError(t, chat.Run(context.Background()))

	text := out.String()
	// Greeting at start, in /history, after /clear and in the second /history.
	assert.Equal(t, 4, strings.Count(text, "Hi, ask me anything."))
	// Answer printed once after the exchange and once by the first /history.
	assert.Equal(t, 2, strings.Count(text, "forty-two"))
	assert.Equal(t, 1, strings.Count(text, "User:"))
}

func TestRun_ProviderErrorKeepsGoing(t *testing.T) {
	facade := &stubFacade{err: apperr.Provider("groq", errors.New("429 rate limited"))}
	var out bytes.Buffer
	chat, _ := newChat(facade, strings.NewReader("first\nsecond\n"), &out)

	require.NoError(t, chat.Run(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), "Error (provider)"))
	assert.Equal(t, []string{"first", "second"}, facade.queries)
}

func TestRun_SkipsBlankLines(t *testing.T) {
	facade := &stubFacade{answer: "ok"}
	var out bytes.Buffer
	chat, _ := newChat(facade, strings.NewReader("\n   \n"), &out)

	require.NoError(t, chat.Run(context.Background()))
	assert.Empty(t, facade.queries)
}

func TestRun_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	chat, _ := newChat(&stubFacade{}, pr, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- chat.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRenderMarkdown_UnterminatedFence(t *testing.T) {
	var out bytes.Buffer
	chat, _ := newChat(&stubFacade{}, strings.NewReader(""), &out)

	chat.renderMarkdown("intro\n```\nx := 1")
	assert.Contains(t, out.String(), "intro\n")
	assert.Contains(t, out.String(), "x := 1")
}
