package render

import (
	"context"
	"strings"

	"github.com/aymerick/raymond"

	"git.home.luguber.info/inful/pagesmith/internal/assets"
	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/nav"
	"git.home.luguber.info/inful/pagesmith/internal/resolver"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// genericBodyTemplate renders content pass-through when no layout template
// resolves. It keeps a missing layout from being fatal; only missing theme
// shells are.
const genericBodyTemplate = `{{{content}}}`

// stageSyncThemeConfig merges the stored theme configuration with the
// theme schema's defaults so templates always see a complete config.
func stageSyncThemeConfig(_ context.Context, rs *renderState) error {
	schema, err := rs.assetsStore().ThemeSchema(rs.model.Manifest.Theme)
	if err != nil {
		return err
	}
	rs.themeConfig = assets.MergedThemeConfig(schema, rs.model.Manifest.ThemeConfig)
	return nil
}

// stagePrepareEnvironment gathers every partial template the theme and the
// active layout expose. Idempotent; partials are re-read on each render.
func stagePrepareEnvironment(_ context.Context, rs *renderState) error {
	partials, err := rs.assetsStore().Partials(assets.KindTheme, rs.model.Manifest.Theme)
	if err != nil {
		return err
	}

	layoutPartials, err := rs.assetsStore().Partials(assets.KindLayout, rs.res.Layout)
	if err != nil {
		return err
	}
	for name, src := range layoutPartials {
		partials[name] = src // layout partials shadow theme partials
	}
	rs.partials = partials

	rs.layoutManifest, err = rs.assetsStore().LayoutManifest(rs.res.Layout)
	return err
}

// stageResolveServices picks the image-delivery strategy from the manifest.
// Template helpers consult it; the pipeline itself does not.
func stageResolveServices(_ context.Context, rs *renderState) error {
	rs.images = resolveImageService(rs.model.Manifest.ImageService, rs.opts, variantSegment(rs.res))
	return nil
}

// variantSegment is the segment the output file actually lives at:
// pagination pages render under page/<n> of their collection's segment.
func variantSegment(res resolver.Result) string {
	if res.Page > 1 {
		return urls.PageVariant(res.Segment, res.Page)
	}
	return res.Segment
}

// stageAssemblePageContext merges frontmatter, rendered Markdown content,
// navigation, the collection listing, and render-mode flags into the data
// object handed to the body template.
func stageAssemblePageContext(_ context.Context, rs *renderState) error {
	cf := rs.res.Content

	pageCtx := map[string]any{}
	for k, v := range cf.Doc.Fields {
		if k == frontmatter.KeyCollection {
			continue
		}
		pageCtx[k] = v
	}

	contentHTML, err := markdownToHTML(cf.Doc.Body)
	if err != nil {
		return errors.WrapError(err, errors.CategoryTemplate, "failed to render markdown body").
			WithContext("path", cf.Path)
	}
	pageCtx["content"] = raymond.SafeString(contentHTML)

	if pageCtx["title"] == nil || pageCtx["title"] == "" {
		pageCtx["title"] = rs.res.Node.Title
	}

	links := nav.Build(rs.model, nav.Options{
		Mode:           rs.opts.Mode,
		SiteRootPath:   rs.opts.SiteRootPath,
		CurrentPath:    cf.Path,
		CurrentSegment: variantSegment(rs.res),
	})
	pageCtx["navigation"] = navContext(links)

	if rs.res.Listing != nil {
		items := make([]map[string]any, 0, len(rs.res.Listing.Items))
		for _, it := range rs.res.Listing.Items {
			entry := map[string]any{
				"title": it.Title,
				"slug":  it.Slug,
				"url":   it.URL,
				"date":  it.Date,
			}
			for k, v := range it.Fields {
				if _, reserved := entry[k]; !reserved {
					entry[k] = v
				}
			}
			items = append(items, entry)
		}
		pageCtx["items"] = items
		pageCtx["itemLayout"] = rs.res.Listing.Config.ItemLayout
		pageCtx["pagination"] = map[string]any{
			"currentPage": rs.res.Listing.Pagination.CurrentPage,
			"totalPages":  rs.res.Listing.Pagination.TotalPages,
			"hasPrevPage": rs.res.Listing.Pagination.HasPrevPage,
			"hasNextPage": rs.res.Listing.Pagination.HasNextPage,
			"prevUrl":     rs.res.Listing.Pagination.PrevURL,
			"nextUrl":     rs.res.Listing.Pagination.NextURL,
		}
	}

	pageCtx["isExport"] = rs.opts.Mode == urls.ModeExport
	pageCtx["siteRootPath"] = rs.opts.SiteRootPath
	pageCtx["images"] = map[string]any{"base": rs.images.Base}

	rs.pageCtx = pageCtx
	return nil
}

// stageAssembleBaseContext wraps the page context with site-wide manifest
// fields for the outer shell template.
func stageAssembleBaseContext(_ context.Context, rs *renderState) error {
	rs.baseCtx = map[string]any{
		"site": map[string]any{
			"title":       rs.model.Manifest.Title,
			"description": rs.model.Manifest.Description,
		},
		"theme": rs.themeConfig,
		"page":  rs.pageCtx,
	}
	return nil
}

// stageRenderBody selects and compiles the body template with the page
// context. The display-option variant follows the collection's listing
// style; plain pages use the layout's default template.
func stageRenderBody(_ context.Context, rs *renderState) error {
	source := genericBodyTemplate
	if rs.layoutManifest != nil {
		variant := ""
		if rs.res.Listing != nil {
			variant = rs.res.Listing.Config.ListingStyle
		}
		if file, ok := rs.layoutManifest.Template(variant); ok {
			src, err := rs.assetsStore().AssetContent(assets.KindLayout, rs.res.Layout, file)
			if err != nil {
				return errors.TemplateAssetMissing("body", file)
			}
			source = src
		}
	}

	html, err := execTemplate(source, rs.partials, rs.pageCtx)
	if err != nil {
		return errors.WrapError(err, errors.CategoryTemplate, "failed to render body template").
			WithContext("layout", rs.res.Layout)
	}
	rs.bodyHTML = html
	return nil
}

// stageRenderShell compiles the theme's shell template with the base
// context, injecting the rendered body as a trusted fragment.
func stageRenderShell(_ context.Context, rs *renderState) error {
	source, err := rs.assetsStore().AssetContent(assets.KindTheme, rs.model.Manifest.Theme, "base.hbs")
	if err != nil {
		return errors.TemplateAssetMissing("shell", rs.model.Manifest.Theme+"/base.hbs")
	}

	rs.baseCtx["body"] = raymond.SafeString(rs.bodyHTML)
	html, err := execTemplate(source, rs.partials, rs.baseCtx)
	if err != nil {
		return errors.WrapError(err, errors.CategoryTemplate, "failed to render shell template").
			WithContext("theme", rs.model.Manifest.Theme)
	}
	rs.html = html
	return nil
}

// navContext flattens nav links into plain maps so template field lookup
// stays uniform with the rest of the context.
func navContext(links []nav.Link) []map[string]any {
	out := make([]map[string]any, 0, len(links))
	for _, l := range links {
		entry := map[string]any{
			"label":  l.Label,
			"url":    l.URL,
			"path":   l.Path,
			"active": l.Active,
		}
		if len(l.Children) > 0 {
			entry["children"] = navContext(l.Children)
		}
		out = append(out, entry)
	}
	return out
}

// imageService is the resolved image-delivery strategy.
type imageService struct {
	Name string
	Base string
}

func resolveImageService(configured string, opts Options, segment string) imageService {
	switch {
	case configured == "" || configured == "local":
		if opts.Mode == urls.ModeExport {
			prefix := strings.Repeat("../", strings.Count(urls.ExportFile(segment), "/"))
			return imageService{Name: "local", Base: prefix + "assets/images"}
		}
		return imageService{Name: "local", Base: strings.TrimSuffix(opts.SiteRootPath, "/") + "/assets/images"}
	default:
		// any other value is an external image host base URL
		return imageService{Name: "external", Base: strings.TrimSuffix(configured, "/")}
	}
}

func (rs *renderState) assetsStore() assets.Store { return rs.store }
