package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_AppendsLevelTwoHeading(t *testing.T) {
	out, id, err := Create(`<p>prose</p>`, "First Chapter")
	require.NoError(t, err)
	assert.Equal(t, "ch-new-first-chapter", id)
	assert.Equal(t, `<p>prose</p><h2 id="ch-new-first-chapter" data-created="1">First Chapter</h2>`, out)

	idx, err := Build(out)
	require.NoError(t, err)
	require.Len(t, idx.Toc, 1)
	assert.Equal(t, id, idx.Toc[0].ID)
	assert.Equal(t, 2, idx.Toc[0].Level)
}

func TestCreate_NewChapterHasEmptyBody(t *testing.T) {
	out, id, err := Create(`<h2>Old</h2><p>x</p>`, "Fresh")
	require.NoError(t, err)
	sec, err := Extract(out, id)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", sec.Title)
	assert.Equal(t, "", sec.Content)
}

func TestCreate_BlankTitleIsNoOp(t *testing.T) {
	in := `<p>prose</p>`
	out, id, err := Create(in, "   ")
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "", id)
}

func TestCreate_CollisionLoop(t *testing.T) {
	doc := `<p>x</p>`
	doc, first, err := Create(doc, "Dup")
	require.NoError(t, err)
	doc, second, err := Create(doc, "Dup")
	require.NoError(t, err)

	assert.Equal(t, "ch-new-dup", first)
	assert.Equal(t, "ch-new-dup-1", second)

	idx, err := Build(doc)
	require.NoError(t, err)
	require.Len(t, idx.Toc, 2)
}

func TestCreate_MarkerAdvancesPastExisting(t *testing.T) {
	doc := `<h2 id="a" data-created="7">A</h2>`
	out, _, err := Create(doc, "Next")
	require.NoError(t, err)
	assert.Contains(t, out, `data-created="8"`)
}

func TestCreate_EscapesTitle(t *testing.T) {
	out, id, err := Create("", `Tom & "Jerry" <3`)
	require.NoError(t, err)
	assert.Contains(t, out, "Tom &amp; &#34;Jerry&#34; &lt;3")

	idx, err := Build(out)
	require.NoError(t, err)
	require.Len(t, idx.Toc, 1)
	assert.Equal(t, id, idx.Toc[0].ID)
	assert.Equal(t, `Tom & "Jerry" <3`, idx.Toc[0].Text)
}

func TestCreate_MarkerOrdersAfterBackfilledChapters(t *testing.T) {
	idx, err := Build(`<h2>One</h2><p>a</p><h2>Two</h2><p>b</p>`)
	require.NoError(t, err)

	out, id, err := Create(idx.HTML, "Three")
	require.NoError(t, err)

	next, err := Build(out)
	require.NoError(t, err)
	require.Len(t, next.Toc, 3)
	assert.Equal(t, id, next.Toc[2].ID)
}
