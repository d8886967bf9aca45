package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"sort"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name     string `json:"Name"`
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Type     string `json:"Type"`

	AppName    string `json:"AppName"`
	SupportURL string `json:"SupportURL"`

	Time           string `json:"Time"`
	Status         string `json:"Status"`
	PreviousStatus string `json:"PreviousStatus"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().UTC() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

const (
	Welcome              = "welcome"
	PasswordChanged      = "password_changed"
	AccountStatusChanged = "account_status_changed"
)

// Every template is parsed once at init; a broken file fails the binary at startup.
var (
	textSet = texttpl.Must(texttpl.New("").Funcs(texttpl.FuncMap(baseFuncs())).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	htmlSet = htmpl.Must(htmpl.New("").Funcs(htmpl.FuncMap(baseFuncs())).ParseFS(FS, "*.html.tmpl"))
)

// Names lists the renderable template base names.
func Names() []string {
	var names []string
	for _, t := range htmlSet.Templates() {
		if base, ok := strings.CutSuffix(t.Name(), ".html.tmpl"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
	Lookup(name string) bool
}

type textExec struct{ *texttpl.Template }

func (t textExec) Lookup(name string) bool { return t.Template.Lookup(name) != nil }

type htmlExec struct{ *htmpl.Template }

func (t htmlExec) Lookup(name string) bool { return t.Template.Lookup(name) != nil }

func execute(set executor, name string, data any) (string, error) {
	if !set.Lookup(name) {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

// Render produces the subject, plain-text and HTML bodies for the template base name.
func Render(name string, data any) (subject, text, html string, err error) {
	if subject, err = execute(textExec{textSet}, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execute(textExec{textSet}, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(htmlExec{htmlSet}, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
