package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_NoHeadings(t *testing.T) {
	in := `<p>Just a poem</p><p>with two stanzas</p>`
	idx, err := Build(in)
	require.NoError(t, err)
	assert.Empty(t, idx.Toc)
	assert.Equal(t, in, idx.HTML)
}

func TestBuild_EmptyDocument(t *testing.T) {
	idx, err := Build("")
	require.NoError(t, err)
	assert.Empty(t, idx.Toc)
	assert.Equal(t, "", idx.HTML)
}

func TestBuild_BackfillsCreatedMarkers(t *testing.T) {
	idx, err := Build(`<h2>One</h2><p>a</p><h2>Two</h2><p>b</p>`)
	require.NoError(t, err)

	require.Len(t, idx.Toc, 2)
	assert.Equal(t, []string{"One", "Two"}, []string{idx.Toc[0].Text, idx.Toc[1].Text})
	assert.Contains(t, idx.HTML, `data-created="0"`)
	assert.Contains(t, idx.HTML, `data-created="1"`)
}

func TestBuild_Idempotent(t *testing.T) {
	idx1, err := Build(`<h2>One</h2><p>a</p><h3>Sub</h3><p>b</p><h2>Two</h2>`)
	require.NoError(t, err)
	idx2, err := Build(idx1.HTML)
	require.NoError(t, err)

	assert.Equal(t, idx1.HTML, idx2.HTML)
	assert.Equal(t, idx1.Toc, idx2.Toc)
}

func TestBuild_OrdersByCreatedMarker(t *testing.T) {
	// "Late" appears first in the document but carries a later marker.
	in := `<h2 id="late" data-created="9">Late</h2><p>x</p>` +
		`<h2 id="early" data-created="3">Early</h2><p>y</p>`
	idx, err := Build(in)
	require.NoError(t, err)

	require.Len(t, idx.Toc, 2)
	assert.Equal(t, "early", idx.Toc[0].ID)
	assert.Equal(t, "late", idx.Toc[1].ID)
}

func TestBuild_MarkerTiesBreakOnDocumentOrder(t *testing.T) {
	in := `<h2 id="a" data-created="5">A</h2><h2 id="b" data-created="5">B</h2>`
	idx, err := Build(in)
	require.NoError(t, err)
	require.Len(t, idx.Toc, 2)
	assert.Equal(t, "a", idx.Toc[0].ID)
	assert.Equal(t, "b", idx.Toc[1].ID)
}

func TestBuild_InvalidMarkerReassignedNotRewritten(t *testing.T) {
	// A present-but-invalid marker sorts by assigned sequence, and the
	// stored attribute value is left alone.
	in := `<h2 id="a" data-created="oops">A</h2>`
	idx, err := Build(in)
	require.NoError(t, err)
	require.Len(t, idx.Toc, 1)
	assert.Contains(t, idx.HTML, `data-created="oops"`)
}
