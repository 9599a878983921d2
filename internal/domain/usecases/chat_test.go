package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

type stubFacade struct {
	answer  string
	err     error
	query   string
	history []entities.Message
}

func (f *stubFacade) Answer(ctx context.Context, query string, history []entities.Message) (string, error) {
	f.query = query
	f.history = history
	return f.answer, f.err
}

func TestChatUseCase_Exchange(t *testing.T) {
	session := &memorySession{messages: []entities.Message{{Role: entities.RoleAssistant, Content: "Hi!"}}}
	facade := &stubFacade{answer: "Paris."}
	uc := NewChatUseCase(facade, zerolog.Nop())

	reply, err := uc.Exchange(context.Background(), session, "  Capital of France?  ")
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAssistant, reply.Role)
	assert.Equal(t, "Paris.", reply.Content)

	assert.Equal(t, "Capital of France?", facade.query)
	// History excludes the message being asked.
	require.Len(t, facade.history, 1)
	assert.Equal(t, "Hi!", facade.history[0].Content)

	all := session.All()
	require.Len(t, all, 3)
	assert.Equal(t, entities.RoleUser, all[1].Role)
	assert.Equal(t, "Capital of France?", all[1].Content)
	assert.Equal(t, entities.RoleAssistant, all[2].Role)
}

func TestChatUseCase_ProviderErrorKeepsUserMessage(t *testing.T) {
	session := &memorySession{}
	facade := &stubFacade{err: apperr.Provider("groq", errors.New("429"))}
	uc := NewChatUseCase(facade, zerolog.Nop())

	_, err := uc.Exchange(context.Background(), session, "question")
	require.Error(t, err)
	assert.True(t, apperr.IsProvider(err))

	all := session.All()
	require.Len(t, all, 1)
	assert.Equal(t, entities.RoleUser, all[0].Role)
	assert.Equal(t, "question", all[0].Content)
}

func TestChatUseCase_EmptyPrompt(t *testing.T) {
	session := &memorySession{}
	uc := NewChatUseCase(&stubFacade{}, zerolog.Nop())

	_, err := uc.Exchange(context.Background(), session, "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, session.All())
}

func TestChatUseCase_AppendFailure(t *testing.T) {
	session := &memorySession{appendErr: errBoom}
	facade := &stubFacade{answer: "unused"}
	uc := NewChatUseCase(facade, zerolog.Nop())

	_, err := uc.Exchange(context.Background(), session, "hi")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, facade.query)
}
