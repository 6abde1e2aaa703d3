package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"

	"github.com/kailas-cloud/taginput/internal/domain/field"
)

// Asset names served under the renderer's asset path.
const (
	ScriptAsset = "taginput.js"
	StyleAsset  = "taginput.css"
)

//go:embed assets
var assets embed.FS

// Assets returns the client-side files for the tag input behaviour.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer turns a field configuration into markup.
type Renderer struct {
	fieldsPath string
	assetsPath string
}

// NewRenderer creates a Renderer. fieldsPath is the URL prefix under which
// field endpoints live (e.g. "/fields"), assetsPath the one for static assets.
func NewRenderer(fieldsPath, assetsPath string) *Renderer {
	return &Renderer{
		fieldsPath: strings.TrimSuffix(fieldsPath, "/"),
		assetsPath: strings.TrimSuffix(assetsPath, "/"),
	}
}

// Link returns the URL of a field's endpoints.
func (r *Renderer) Link(f *field.Field) string {
	return r.fieldsPath + "/" + url.PathEscape(f.Name())
}

type staticConfig struct {
	Tags      []string `json:"tags"`
	Separator string   `json:"separator"`
}

type dynamicConfig struct {
	URL       string `json:"url"`
	Separator string `json:"separator"`
}

var fieldTemplate = template.Must(template.New("field").Parse(
	`<label for="{{.ID}}">{{.Title}}</label>` +
		`<input type="text" id="{{.ID}}" name="{{.Name}}" value="{{.Value}}" class="taginput" autocomplete="off">` +
		`<script>TagInput.attach(document.getElementById({{.ID}}), {{.Config}});</script>`))

// Render registers the field's assets on page and returns the input markup.
func (r *Renderer) Render(page PageAssets, f *field.Field, value string) (template.HTML, error) {
	page.RequireScript(r.assetsPath + "/" + ScriptAsset)
	page.RequireStyle(r.assetsPath + "/" + StyleAsset)

	var cfg any
	if f.HasStaticTags() {
		tags := f.StaticTags()
		if tags == nil {
			tags = []string{}
		}
		cfg = staticConfig{Tags: tags, Separator: string(f.Separator())}
	} else {
		cfg = dynamicConfig{
			URL:       r.Link(f) + field.SuggestSuffix,
			Separator: string(f.Separator()),
		}
	}

	var buf bytes.Buffer
	err := fieldTemplate.Execute(&buf, struct {
		ID, Name, Title, Value string
		Config                 any
	}{
		ID:     "taginput-" + f.Name(),
		Name:   f.Name(),
		Title:  f.Title(),
		Value:  value,
		Config: cfg,
	})
	if err != nil {
		return "", fmt.Errorf("render field %s: %w", f.Name(), err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

var formTemplate = template.Must(template.New("form").Parse(
	`<form method="post" action="{{.Action}}">{{range .Fields}}{{.}}{{end}}<button type="submit">Save</button></form>`))

// Form wraps rendered fields in a form posting to action.
func Form(action string, fields ...template.HTML) (template.HTML, error) {
	var buf bytes.Buffer
	err := formTemplate.Execute(&buf, struct {
		Action string
		Fields []template.HTML
	}{action, fields})
	if err != nil {
		return "", fmt.Errorf("render form: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}
