package render

import (
	"fmt"
	"html"

	"git.home.luguber.info/inful/pagesmith/internal/resolver"
)

// notFoundHTML is the minimal fallback page for a NotFound resolution. It
// deliberately bypasses theme and layout assets so it can never fail.
func notFoundHTML(res resolver.Result) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Page not found</title></head>
<body>
<h1>Page not found</h1>
<p>No page exists at <code>/%s</code>.</p>
</body>
</html>
`, html.EscapeString(res.Path))
}
