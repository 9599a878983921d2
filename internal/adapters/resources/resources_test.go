package resources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat/internal/config"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad_Bundle(t *testing.T) {
	dir := t.TempDir()
	logo := write(t, dir, "logo.png", "PNGDATA")
	paths := config.PathsConfig{
		TemplateFile: write(t, dir, "template.txt", "Ctx: {context_str}\nQ: {query_str}\n"),
		MessagesFile: write(t, dir, "messages.json", `{"greeting":"Hi!","user_input_placeholder":"Ask...","wait_spinner":"Thinking..."}`),
		UIConfigFile: write(t, dir, "ui.json", `{"logo_path":"`+filepath.ToSlash(logo)+`","html_template":"<img src=\"{logo}\"> <h1>Docs</h1>","title":"Docs chat"}`),
	}

	b, err := Load(paths)
	require.NoError(t, err)

	assert.Equal(t, "Ctx: {context_str}\nQ: {query_str}\n", b.Template)
	assert.Equal(t, "Hi!", b.Messages.Greeting)
	assert.Equal(t, "Ask...", b.Messages.UserInputPlaceholder)
	assert.Equal(t, "Thinking...", b.Messages.WaitSpinner)
	assert.Equal(t, "data:image/png;base64,UE5HREFUQQ==", b.Logo)
	assert.Equal(t, `<img src="data:image/png;base64,UE5HREFUQQ=="> <h1>Docs</h1>`, b.Header())
	assert.Equal(t, "Docs chat", b.Title())
}

func TestLoadMessages_MissingKey(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "messages.json", `{"greeting":"Hi!","wait_spinner":"..."}`)

	_, err := LoadMessages(p)
	require.Error(t, err)
	assert.True(t, apperr.IsConfig(err))
	assert.Contains(t, err.Error(), "user_input_placeholder")
}

func TestLoadUIConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadUIConfig(write(t, dir, "bad.json", `{"logo_path": 3, "html_template": "x"}`))
	assert.True(t, apperr.IsConfig(err))

	_, err = LoadUIConfig(write(t, dir, "broken.json", `{not json`))
	assert.True(t, apperr.IsConfig(err))
}

func TestMissingFilesAreNotFound(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent")

	_, err := LoadTemplate(missing)
	assert.True(t, apperr.IsNotFound(err))
	_, err = LoadMessages(missing)
	assert.True(t, apperr.IsNotFound(err))
	_, err = LoadUIConfig(missing)
	assert.True(t, apperr.IsNotFound(err))
	_, err = LoadLogo(missing)
	assert.True(t, apperr.IsNotFound(err))
}

func TestBundle_TitleDefault(t *testing.T) {
	b := &Bundle{UI: UIConfig{HTMLTemplate: "no logo here"}, Logo: "data:x"}
	assert.Equal(t, "ragchat", b.Title())
	assert.False(t, strings.Contains(b.Header(), "data:x"))
}

func TestBundle_HeaderDoubledBraces(t *testing.T) {
	b := &Bundle{
		UI:   UIConfig{HTMLTemplate: `<style>h1 {{color:red}}</style><img src="{logo}">`},
		Logo: "data:x",
	}
	assert.Equal(t, `<style>h1 {color:red}</style><img src="data:x">`, b.Header())

	b.UI.HTMLTemplate = "{{logo}} {logo}"
	assert.Equal(t, "{logo} data:x", b.Header())
}
