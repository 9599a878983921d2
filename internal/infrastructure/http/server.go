// Package http provides the web chat UI and its JSON API.
package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/0xcro3dile/ragchat/internal/adapters/resources"
	"github.com/0xcro3dile/ragchat/internal/adapters/session"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/usecases"
)

//go:embed templates/*
var templatesFS embed.FS

// SessionCookie carries the chat session id.
const SessionCookie = "ragchat_session"

// IndexStatus exposes the currently cached index, if any. Acquired handles are released by the server.
type IndexStatus interface {
	Acquire() (*usecases.IndexHandle, bool)
}

// Server is the HTTP server for the chat UI and API.
type Server struct {
	chat     *usecases.ChatUseCase
	sessions *session.Registry
	bundle   *resources.Bundle
	indexes  IndexStatus
	md       goldmark.Markdown
	addr     string
	started  time.Time
	logger   zerolog.Logger
	engine   *gin.Engine
}

// NewServer creates a new HTTP server.
func NewServer(
	chat *usecases.ChatUseCase,
	sessions *session.Registry,
	bundle *resources.Bundle,
	indexes IndexStatus,
	addr string,
	logger zerolog.Logger,
) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		chat:     chat,
		sessions: sessions,
		bundle:   bundle,
		indexes:  indexes,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		addr:     addr,
		started:  time.Now(),
		logger:   logger.With().Str("component", "http").Logger(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.loggingMiddleware())
	engine.SetHTMLTemplate(tmpl)
	s.registerRoutes(engine)
	s.engine = engine

	return s, nil
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/", s.handleIndex)

	api := r.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/history", s.handleHistory)
	api.GET("/health", s.handleHealth)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // LLM calls can be slow
	}

	s.logger.Info().Str("addr", s.addr).Msg("ragchat server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type messageView struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	HTML      template.HTML `json:"html"`
	CreatedAt time.Time     `json:"created_at"`
}

// session returns the caller's session, creating one and setting the cookie when needed.
func (s *Server) session(c *gin.Context) (*session.Session, error) {
	id, _ := c.Cookie(SessionCookie)
	sess, created, err := s.sessions.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
	}
	return sess, nil
}

// handleIndex renders the chat page with the session history.
func (s *Server) handleIndex(c *gin.Context) {
	sess, err := s.session(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":       s.bundle.Title(),
		"Header":      template.HTML(s.bundle.Header()),
		"Placeholder": s.bundle.Messages.UserInputPlaceholder,
		"WaitSpinner": s.bundle.Messages.WaitSpinner,
		"Messages":    s.views(sess.Store.All()),
	})
}

type chatRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// handleChat runs one exchange for the caller's session.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	sess, err := s.session(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	sess.Lock()
	reply, err := s.chat.Exchange(c.Request.Context(), sess.Store, req.Prompt)
	sess.Unlock()
	if err != nil {
		if errors.Is(err, usecases.ErrEmptyPrompt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": s.view(reply)})
}

// handleHistory returns the caller's messages.
func (s *Server) handleHistory(c *gin.Context) {
	sess, err := s.session(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.ID, "messages": s.views(sess.Store.All())})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"sessions": s.sessions.Len(),
	}
	if h, ok := s.indexes.Acquire(); ok {
		defer h.Release()
		index := gin.H{
			"fingerprint": h.Fingerprint,
			"origin":      h.Origin,
			"loaded_at":   h.LoadedAt,
		}
		if n, err := h.Index.Count(c.Request.Context()); err == nil {
			index["chunks"] = n
		} else {
			s.logger.Warn().Err(err).Msg("counting indexed chunks")
		}
		body["index"] = index
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if apperr.IsProvider(err) {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": apperr.Kind(err)})
}

func (s *Server) views(msgs []entities.Message) []messageView {
	out := make([]messageView, len(msgs))
	for i, m := range msgs {
		out[i] = s.view(m)
	}
	return out
}

func (s *Server) view(m entities.Message) messageView {
	return messageView{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		HTML:      s.render(m),
		CreatedAt: m.CreatedAt,
	}
}

// render converts assistant markdown to HTML. User text is escaped as is.
// Raw HTML inside markdown is not passed through.
func (s *Server) render(m entities.Message) template.HTML {
	if m.Role != entities.RoleAssistant {
		return template.HTML(template.HTMLEscapeString(m.Content))
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(m.Content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(m.Content))
	}
	return template.HTML(buf.String())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
