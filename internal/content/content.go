// Package content holds the static site catalogue: features, testimonials,
// onboarding steps and the supported interface languages.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var catalogueYAML []byte

type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type Step struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Feature struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Overview    string   `yaml:"overview"`
	Benefits    []string `yaml:"benefits"`

	// OverviewHTML is Overview rendered from markdown at load time.
	OverviewHTML template.HTML `yaml:"-"`
}

type Testimonial struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Language string `yaml:"language"`
	Quote    string `yaml:"quote"`
	Rating   int    `yaml:"rating"`
}

// Stars returns Rating as a slice so templates can range over it.
func (t Testimonial) Stars() []struct{} {
	return make([]struct{}, t.Rating)
}

type Catalogue struct {
	Languages    []Language    `yaml:"languages"`
	Steps        []Step        `yaml:"steps"`
	Features     []Feature     `yaml:"features"`
	Testimonials []Testimonial `yaml:"testimonials"`

	bySlug map[string]int
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

// Parse decodes and checks a catalogue, rendering feature overviews.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(c.Languages) == 0 {
		return nil, errors.New("catalogue has no languages")
	}

	c.bySlug = make(map[string]int, len(c.Features))
	for i := range c.Features {
		f := &c.Features[i]
		if f.Slug == "" {
			return nil, fmt.Errorf("feature %d has no slug", i)
		}
		if _, dup := c.bySlug[f.Slug]; dup {
			return nil, fmt.Errorf("duplicate feature slug %q", f.Slug)
		}
		c.bySlug[f.Slug] = i

		html, err := Markdown(f.Overview)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Slug, err)
		}
		f.OverviewHTML = html
	}
	for _, t := range c.Testimonials {
		if t.Rating < 0 || t.Rating > 5 {
			return nil, fmt.Errorf("testimonial %q: rating %d out of range", t.Name, t.Rating)
		}
	}
	return &c, nil
}

// Feature returns the feature with the given slug.
func (c *Catalogue) Feature(slug string) (Feature, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Feature{}, false
	}
	return c.Features[i], true
}

// Language returns the language with the given code.
func (c *Catalogue) Language(code string) (Language, bool) {
	for _, l := range c.Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// ResolveLanguage returns the language for code, falling back to fallback
// and then to the first catalogue entry.
func (c *Catalogue) ResolveLanguage(code, fallback string) Language {
	if l, ok := c.Language(code); ok {
		return l
	}
	if l, ok := c.Language(fallback); ok {
		return l
	}
	return c.Languages[0]
}

var md = goldmark.New()

// Markdown renders src to HTML. Raw HTML in src is dropped.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
