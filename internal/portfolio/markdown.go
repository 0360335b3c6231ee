package portfolio

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
)

// md renders content snippets. Raw HTML in content is omitted.
var md = goldmark.New()

// Markdown renders a block of Markdown to HTML.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return template.HTML(buf.String()), nil
}

// InlineMarkdown renders a single-line snippet without the surrounding
// paragraph, for use inside list items and headings.
func InlineMarkdown(src string) (template.HTML, error) {
	out, err := Markdown(src)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(out))
	s = strings.TrimPrefix(s, "<p>")
	s = strings.TrimSuffix(s, "</p>")
	return template.HTML(s), nil
}
