package sitegen

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateRenderer renders pages from the embedded html/template set.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer parses the embedded template set.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"slugify": Slugify,
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict: odd argument count %d", len(pairs))
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %d is not a string", i/2)
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}
	tmpl, err := template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

func (r *TemplateRenderer) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *TemplateRenderer) RenderIndex(p *IndexPage) ([]byte, error)   { return r.render("index", p) }
func (r *TemplateRenderer) RenderList(p *ListPage) ([]byte, error)     { return r.render("list", p) }
func (r *TemplateRenderer) RenderDetail(p *DetailPage) ([]byte, error) { return r.render("detail", p) }
func (r *TemplateRenderer) RenderSearch(p *SearchPage) ([]byte, error) { return r.render("search", p) }
func (r *TemplateRenderer) RenderFeatured(p *FeaturedPage) ([]byte, error) {
	return r.render("featured", p)
}
