// Package tmpl provides template rendering for player command lines.
package tmpl

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

// shellQuote returns a shell-safe quoted string. It wraps the string in single
// quotes and escapes any existing single quotes using the '\'' technique.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	escaped := strings.ReplaceAll(s, "'", `'\''`)
	return "'" + escaped + "'"
}

var funcs = template.FuncMap{
	"shq":  shellQuote,
	"join": strings.Join,
	"base": filepath.Base,
	"ext":  filepath.Ext,
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - shq: Shell-quote a string for safe use in shell commands
//   - join: Join string slice with separator (e.g., join .Args " ")
//   - base, ext: filepath.Base and filepath.Ext
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// RenderAll renders every element of args with the same data.
func RenderAll(args []string, data any) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, err := Render(a, data)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
