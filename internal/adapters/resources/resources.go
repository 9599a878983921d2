// Package resources loads the UI resource files: prompt template, UI messages, UI config and logo.
package resources

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/0xcro3dile/ragchat/internal/config"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

// LogoPlaceholder is replaced with the logo data URI in UIConfig.HTMLTemplate.
const LogoPlaceholder = "{logo}"

const messagesSchema = `{
	"type": "object",
	"required": ["greeting", "user_input_placeholder", "wait_spinner"],
	"properties": {
		"greeting": {"type": "string"},
		"user_input_placeholder": {"type": "string"},
		"wait_spinner": {"type": "string"}
	}
}`

const uiConfigSchema = `{
	"type": "object",
	"required": ["logo_path", "html_template"],
	"properties": {
		"logo_path": {"type": "string", "minLength": 1},
		"html_template": {"type": "string"},
		"title": {"type": "string"}
	}
}`

var (
	messagesLoader = gojsonschema.NewStringLoader(messagesSchema)
	uiConfigLoader = gojsonschema.NewStringLoader(uiConfigSchema)
)

// Messages are the user-facing strings from messages.json.
type Messages struct {
	Greeting             string `json:"greeting"`
	UserInputPlaceholder string `json:"user_input_placeholder"`
	WaitSpinner          string `json:"wait_spinner"`
}

// UIConfig is the content of ui.json.
type UIConfig struct {
	LogoPath     string `json:"logo_path"`
	HTMLTemplate string `json:"html_template"`
	Title        string `json:"title,omitempty"`
}

// Bundle holds every resource a front end needs.
type Bundle struct {
	Template string
	Messages Messages
	UI       UIConfig
	Logo     string // data URI
}

// Header renders the UI HTML template with the inline logo.
// "{{" and "}}" stand for literal braces, so inline CSS writes its blocks doubled.
func (b *Bundle) Header() string {
	r := strings.NewReplacer("{{", "{", "}}", "}", LogoPlaceholder, b.Logo)
	return r.Replace(b.UI.HTMLTemplate)
}

// Title returns the configured page title, defaulting to "ragchat".
func (b *Bundle) Title() string {
	if b.UI.Title != "" {
		return b.UI.Title
	}
	return "ragchat"
}

// Load reads every resource named in paths.
func Load(paths config.PathsConfig) (*Bundle, error) {
	tmpl, err := LoadTemplate(paths.TemplateFile)
	if err != nil {
		return nil, err
	}
	msgs, err := LoadMessages(paths.MessagesFile)
	if err != nil {
		return nil, err
	}
	ui, err := LoadUIConfig(paths.UIConfigFile)
	if err != nil {
		return nil, err
	}
	logo, err := LoadLogo(ui.LogoPath)
	if err != nil {
		return nil, err
	}
	return &Bundle{Template: tmpl, Messages: *msgs, UI: *ui, Logo: logo}, nil
}

// LoadTemplate reads the prompt template verbatim.
func LoadTemplate(path string) (string, error) {
	data, err := readResource("prompt template", path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LoadMessages reads and validates messages.json.
func LoadMessages(path string) (*Messages, error) {
	var m Messages
	if err := loadJSON("messages file", path, messagesLoader, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadUIConfig reads and validates ui.json.
func LoadUIConfig(path string) (*UIConfig, error) {
	var c UIConfig
	if err := loadJSON("ui config", path, uiConfigLoader, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadLogo reads an image and returns it as a base64 PNG data URI.
func LoadLogo(path string) (string, error) {
	data, err := readResource("logo", path)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func readResource(what, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound(what+" "+path, err)
		}
		return nil, fmt.Errorf("reading %s %s: %w", what, path, err)
	}
	return data, nil
}

func loadJSON(what, path string, schema gojsonschema.JSONLoader, out any) error {
	data, err := readResource(what, path)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return apperr.Config("%s %s is not valid JSON: %v", what, path, err)
	}
	if !result.Valid() {
		var errMsg string
		for i, e := range result.Errors() {
			if i > 0 {
				errMsg += "; "
			}
			errMsg += e.String()
		}
		return apperr.Config("%s %s: %s", what, path, errMsg)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Config("%s %s: %v", what, path, err)
	}
	return nil
}
