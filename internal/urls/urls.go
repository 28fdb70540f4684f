// Package urls computes page URLs for the two render modes: live (in-app
// preview, root-relative) and export (portable static bundle, relative file
// paths between pages).
//
// Export output uses the directory-per-page layout: the homepage becomes
// index.html at the bundle root and every other page becomes
// <segment>/index.html, with pagination pages at <segment>/page/<n>/index.html.
package urls

import (
	"fmt"
	"path"
	"strings"
)

// Mode selects the link style.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeExport Mode = "export"
)

// ExportFile returns the bundle-relative output file for a page segment.
// The empty segment is the homepage.
func ExportFile(segment string) string {
	if segment == "" {
		return "index.html"
	}
	return segment + "/index.html"
}

// PageVariant returns the segment of the n-th pagination page of a
// collection. Page 1 is the collection page itself.
func PageVariant(segment string, page int) string {
	if page <= 1 {
		return segment
	}
	if segment == "" {
		return fmt.Sprintf("page/%d", page)
	}
	return fmt.Sprintf("%s/page/%d", segment, page)
}

// Live returns the root-relative URL for a segment in live mode.
func Live(rootPath, segment string) string {
	root := strings.TrimSuffix(rootPath, "/")
	if segment == "" {
		if root == "" {
			return "/"
		}
		return root
	}
	return root + "/" + segment
}

// ExportRel returns the relative path from the current page's output file
// to the target page's output file, so the emitted HTML is portable.
func ExportRel(fromSegment, toSegment string) string {
	fromDir := path.Dir(ExportFile(fromSegment))
	target := ExportFile(toSegment)

	rel := relPath(fromDir, target)
	return rel
}

// For returns the link to toSegment in the given mode, from the page
// identified by fromSegment (only relevant in export mode).
func For(mode Mode, rootPath, fromSegment, toSegment string) string {
	if mode == ModeExport {
		return ExportRel(fromSegment, toSegment)
	}
	return Live(rootPath, toSegment)
}

// relPath computes a slash-separated relative path from a directory to a
// file, without touching the OS filesystem layer.
func relPath(fromDir, target string) string {
	if fromDir == "." {
		return target
	}
	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")

	common := 0
	for common < len(fromParts) && common < len(targetParts)-1 && fromParts[common] == targetParts[common] {
		common++
	}

	var out []string
	for i := common; i < len(fromParts); i++ {
		out = append(out, "..")
	}
	out = append(out, targetParts[common:]...)
	return strings.Join(out, "/")
}
