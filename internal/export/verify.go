package export

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
)

// BrokenLink is an internal link in an exported page whose target does not
// exist inside the bundle.
type BrokenLink struct {
	Source string // bundle-relative path of the page containing the link
	Target string // the href as written
}

// VerifyBundle walks every HTML file in an exported bundle and checks that
// all relative links resolve to a file inside the bundle. External links
// (absolute URLs, mailto, fragments) are not checked.
func VerifyBundle(dir string) ([]BrokenLink, error) {
	var broken []BrokenLink

	err := filepath.Walk(dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}

		f, err := os.Open(filepath.Clean(p))
		if err != nil {
			return err
		}
		links, err := extractRelativeLinks(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		fromDir := path.Dir(filepath.ToSlash(rel))
		for _, href := range links {
			if !targetExists(dir, fromDir, href) {
				broken = append(broken, BrokenLink{Source: filepath.ToSlash(rel), Target: href})
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExport, "failed to verify exported links").
			WithContext("directory", dir)
	}
	return broken, nil
}

// extractRelativeLinks collects href/src values that point inside the
// bundle: no scheme, no leading slash, no mailto or fragment-only target.
func extractRelativeLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse exported HTML")
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := getAttr(n, "href"); isRelative(href) {
					links = append(links, href)
				}
			case "img", "script":
				if src := getAttr(n, "src"); isRelative(src) {
					links = append(links, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func isRelative(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") {
		return false
	}
	if strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "data:") {
		return false
	}
	return true
}

// targetExists resolves href against the page's directory and checks for a
// file in the bundle. A directory target counts when it holds an index.html.
func targetExists(bundleDir, fromDir, href string) bool {
	// Strip fragment and query before resolving.
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return true
	}

	resolved := path.Join(fromDir, href)
	if strings.HasPrefix(resolved, "..") {
		return false
	}

	target := filepath.Join(bundleDir, filepath.FromSlash(resolved))
	fi, err := os.Stat(target)
	if err != nil {
		return false
	}
	if fi.IsDir() {
		_, err := os.Stat(filepath.Join(target, "index.html"))
		return err == nil
	}
	return true
}
