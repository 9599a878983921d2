package usecases

import (
	"strings"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

// Template variables.
const (
	ContextVar = "{context_str}"
	QueryVar   = "{query_str}"
)

// DefaultPromptTemplate is used when no template file is configured.
const DefaultPromptTemplate = `Context information is below.
---------------------
{context_str}
---------------------
Given the context information and not prior knowledge, answer the query.
Query: {query_str}
Answer: `

// PromptTemplate interpolates retrieved context and the query into a verbatim template text.
type PromptTemplate struct {
	text string
}

// NewPromptTemplate wraps template text; an empty text falls back to DefaultPromptTemplate.
func NewPromptTemplate(text string) *PromptTemplate {
	if strings.TrimSpace(text) == "" {
		text = DefaultPromptTemplate
	}
	return &PromptTemplate{text: text}
}

// Format substitutes both variables in a single pass, so values containing a variable name are left alone.
// "{{" and "}}" in the template stand for literal braces.
func (p *PromptTemplate) Format(context, query string) string {
	r := strings.NewReplacer("{{", "{", "}}", "}", ContextVar, context, QueryVar, query)
	return r.Replace(p.text)
}

// HasQuery reports whether the template references the query at all. Escaped "{{query_str}}" does not count.
func (p *PromptTemplate) HasQuery() bool {
	unescaped := strings.NewReplacer("{{", "", "}}", "").Replace(p.text)
	return strings.Contains(unescaped, QueryVar)
}

// ConversationPrompt flattens history into "User: ..." / "Assistant: ..." lines followed by the new query.
func ConversationPrompt(history []entities.Message, query string) string {
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(m.Role.Label())
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(query)
	return sb.String()
}
