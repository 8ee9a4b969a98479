package template

import (
	"fmt"
	"maps"
	"os"
	"strings"
	texttemplate "text/template"
)

// Template wraps a text/template used to format one markup fragment.
// Output is not HTML-escaped; callers sanitize the fields they feed in.
type Template struct {
	name string
	tmpl *texttemplate.Template
}

func defaultFuncs() texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"trim": strings.TrimSpace,
	}
}

func Parse(name, text string, customFuncs texttemplate.FuncMap) (*Template, error) {
	funcs := defaultFuncs()
	if customFuncs != nil {
		maps.Copy(funcs, customFuncs)
	}

	tmpl, err := texttemplate.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	return &Template{name: name, tmpl: tmpl}, nil
}

func Load(path string, customFuncs texttemplate.FuncMap) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}
	return Parse(path, string(data), customFuncs)
}

func (t *Template) Name() string {
	return t.name
}

func (t *Template) Execute(data any) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", t.name, err)
	}
	return sb.String(), nil
}
