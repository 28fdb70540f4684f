package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogContext_AccumulatesThroughContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithSiteID(ctx, "site-1")
	ctx = WithStage(ctx, "render_body")
	ctx = WithPath(ctx, "blog/post-1")
	ctx = WithMode(ctx, "export")

	lc := GetContext(ctx)
	require.Equal(t, "site-1", lc.SiteID)
	require.Equal(t, "render_body", lc.Stage)
	require.Equal(t, "blog/post-1", lc.Path)
	require.Equal(t, "export", lc.Mode)
}

func TestLogContext_EmptyContext_ReturnsZeroValue(t *testing.T) {
	lc := GetContext(context.Background())
	require.Empty(t, lc.SiteID)
	require.Empty(t, lc.Stage)
}

func TestGetLogAttrs_OnlySetFieldsEmitted(t *testing.T) {
	ctx := WithSiteID(context.Background(), "site-2")
	attrs := getLogAttrs(ctx)
	require.Len(t, attrs, 1)
	require.Equal(t, "site.id", attrs[0].Key)
}
