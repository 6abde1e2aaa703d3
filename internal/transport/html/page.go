// Package html renders tag input fields and the pages that host them.
package html

import (
	"fmt"
	"html/template"
	"io"
	"slices"
)

// PageAssets collects the client-side assets a page needs. Registering the
// same asset twice has no effect.
type PageAssets interface {
	RequireScript(src string)
	RequireStyle(href string)
}

// Page is a minimal HTML document that owns its asset list.
type Page struct {
	title   string
	scripts []string
	styles  []string
	body    []template.HTML
}

var _ PageAssets = (*Page)(nil)

// NewPage creates an empty page.
func NewPage(title string) *Page {
	return &Page{title: title}
}

// RequireScript adds a script once.
func (p *Page) RequireScript(src string) {
	if !slices.Contains(p.scripts, src) {
		p.scripts = append(p.scripts, src)
	}
}

// RequireStyle adds a stylesheet once.
func (p *Page) RequireStyle(href string) {
	if !slices.Contains(p.styles, href) {
		p.styles = append(p.styles, href)
	}
}

// Scripts returns the registered scripts in registration order.
func (p *Page) Scripts() []string { return slices.Clone(p.scripts) }

// Styles returns the registered stylesheets in registration order.
func (p *Page) Styles() []string { return slices.Clone(p.styles) }

// Append adds a rendered fragment to the page body.
func (p *Page) Append(fragment template.HTML) {
	p.body = append(p.body, fragment)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{range .Styles}}<link rel="stylesheet" href="{{.}}">
{{end}}{{range .Scripts}}<script src="{{.}}"></script>
{{end}}</head>
<body>
{{range .Body}}{{.}}
{{end}}</body>
</html>
`))

// WriteTo renders the whole document.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := pageTemplate.Execute(cw, struct {
		Title   string
		Styles  []string
		Scripts []string
		Body    []template.HTML
	}{p.title, p.styles, p.scripts, p.body})
	if err != nil {
		return cw.n, fmt.Errorf("render page: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err //nolint:wrapcheck // delegating to the underlying writer
}
