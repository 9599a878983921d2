package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// ErrEmptyPrompt is returned for blank user input.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ChatUseCase runs one user turn against a session.
type ChatUseCase struct {
	facade ports.QueryFacade
	logger zerolog.Logger
}

// NewChatUseCase creates a ChatUseCase.
func NewChatUseCase(facade ports.QueryFacade, logger zerolog.Logger) *ChatUseCase {
	return &ChatUseCase{
		facade: facade,
		logger: logger.With().Str("component", "chat").Logger(),
	}
}

// Exchange records the user's prompt, asks the facade and records the answer.
// When the facade fails the user message stays in the session and the error is returned for display;
// nothing is rolled back and nothing is retried.
func (uc *ChatUseCase) Exchange(ctx context.Context, session ports.ChatSessionStore, prompt string) (entities.Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return entities.Message{}, ErrEmptyPrompt
	}

	history := session.All()
	if err := session.Append(entities.Message{Role: entities.RoleUser, Content: prompt}); err != nil {
		return entities.Message{}, fmt.Errorf("recording user message: %w", err)
	}

	answer, err := uc.facade.Answer(ctx, prompt, history)
	if err != nil {
		uc.logger.Error().Err(err).Str("kind", apperr.Kind(err)).Msg("exchange failed")
		return entities.Message{}, err
	}

	reply := entities.Message{Role: entities.RoleAssistant, Content: answer}
	if err := session.Append(reply); err != nil {
		return entities.Message{}, fmt.Errorf("recording assistant message: %w", err)
	}

	all := session.All()
	return all[len(all)-1], nil
}
