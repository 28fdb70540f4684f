package render

import (
	"bytes"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// markdownToHTML converts a Markdown body (frontmatter already stripped)
// into HTML.
func markdownToHTML(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var registerHelpersOnce sync.Once

// registerHelpers installs the global template helpers. Raymond keeps
// helpers process-wide and panics on re-registration, hence the Once.
func registerHelpers() {
	registerHelpersOnce.Do(func() {
		raymond.RegisterHelper("imageSrc", func(base, file string) string {
			return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(file, "/")
		})
		raymond.RegisterHelper("eq", func(a, b string) bool {
			return a == b
		})
	})
}

// execTemplate compiles a template source with the given partials and
// executes it against data. Templates are compiled fresh per call; renders
// are single-caller sequential, so there is no cache to invalidate.
func execTemplate(source string, partials map[string]string, data map[string]any) (string, error) {
	registerHelpers()

	tpl, err := raymond.Parse(source)
	if err != nil {
		return "", err
	}
	for name, src := range partials {
		tpl.RegisterPartial(name, src)
	}
	return tpl.Exec(data)
}
