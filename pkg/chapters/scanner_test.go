package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "chapter-1-the-beginning", Slugify("Chapter 1: The Beginning!"))
	assert.Equal(t, "chapter", Slugify(""))
	assert.Equal(t, "chapter", Slugify("!!!"))
}

func TestSlugify_Truncates(t *testing.T) {
	long := ""
	for range 30 {
		long += "abcde"
	}
	assert.LessOrEqual(t, len(Slugify(long)), slugMaxLength)
}

func TestScan_AssignsIDs(t *testing.T) {
	headings, out, err := Scan(`<h2>Intro</h2><p>A</p><h3>Notes</h3>`)
	require.NoError(t, err)

	require.Len(t, headings, 2)
	assert.Equal(t, "ch-0-intro", headings[0].ID)
	assert.Equal(t, "Intro", headings[0].Text)
	assert.Equal(t, 2, headings[0].Level)
	assert.Equal(t, "ch-1-notes", headings[1].ID)
	assert.Equal(t, 3, headings[1].Level)

	assert.Contains(t, out, `<h2 id="ch-0-intro">Intro</h2>`)
	assert.Contains(t, out, `<h3 id="ch-1-notes">Notes</h3>`)
}

func TestScan_KeepsExistingIDs(t *testing.T) {
	headings, _, err := Scan(`<h2 id="my-anchor">Intro</h2>`)
	require.NoError(t, err)
	require.Len(t, headings, 1)
	assert.Equal(t, "my-anchor", headings[0].ID)
}

func TestScan_Idempotent(t *testing.T) {
	_, first, err := Scan(`<h1>One</h1><p>x</p><h2>Two</h2><p>y</p>`)
	require.NoError(t, err)

	headings1, second, err := Scan(first)
	require.NoError(t, err)
	headings2, third, err := Scan(second)
	require.NoError(t, err)

	assert.Equal(t, second, third)
	assert.Equal(t, headings1, headings2)
}

func TestScan_IdenticalTextDistinctIDs(t *testing.T) {
	headings, _, err := Scan(`<h2>Same</h2><p>a</p><h2>Same</h2>`)
	require.NoError(t, err)
	require.Len(t, headings, 2)
	assert.NotEqual(t, headings[0].ID, headings[1].ID)
}

func TestScan_CollisionSuffix(t *testing.T) {
	// Duplicate explicit ids: the second occurrence gets a -1 suffix.
	headings, _, err := Scan(`<h2 id="ch">Same</h2><h2 id="ch">Same</h2>`)
	require.NoError(t, err)
	require.Len(t, headings, 2)
	assert.Equal(t, "ch", headings[0].ID)
	assert.Equal(t, "ch-1", headings[1].ID)
	assert.NotEqual(t, headings[0].ID, headings[1].ID)
}

func TestScan_IgnoresDeepHeadings(t *testing.T) {
	headings, _, err := Scan(`<h2>Real</h2><h4>Too deep</h4>`)
	require.NoError(t, err)
	require.Len(t, headings, 1)
	assert.Equal(t, "Real", headings[0].Text)
}

func TestScan_UntitledHeadingGetsPlaceholder(t *testing.T) {
	headings, _, err := Scan(`<h2></h2>`)
	require.NoError(t, err)
	require.Len(t, headings, 1)
	assert.Equal(t, "Chapter 1", headings[0].Text)
	assert.Equal(t, "ch-0-chapter", headings[0].ID)
}
