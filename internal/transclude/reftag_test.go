package transclude

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertVariantReadings(t *testing.T) {
	got := ConvertVariantReadings("ཀ(ཁ, ག)ང")
	assert.Equal(t, "ཀག<ref>"+VariantNotePrefix+"ཁ</ref>ང", got)
	assert.Equal(t, "(no comma)", ConvertVariantReadings("(no comma)"))
}

func TestAddRefTags(t *testing.T) {
	wiki := newFakeWiki(map[string]string{"Book": "a(b,c) d(e,f)"})
	l := NewLinker(wiki, nil, nil, quietLogger())

	res, err := l.AddRefTags(context.Background(), RefTagRequest{MainTitle: "Book", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, LinkPlanned, res.Outcome)
	assert.Equal(t, 2, res.Notes)
	assert.Empty(t, wiki.saves)

	res, err = l.AddRefTags(context.Background(), RefTagRequest{MainTitle: "Book"})
	require.NoError(t, err)
	assert.Equal(t, LinkSaved, res.Outcome)
	require.Len(t, wiki.saves, 1)
	assert.Equal(t, RefTagSummary, wiki.saves[0].Summary)

	res, err = l.AddRefTags(context.Background(), RefTagRequest{MainTitle: "Book"})
	require.NoError(t, err)
	assert.Equal(t, LinkUnchanged, res.Outcome)
}
