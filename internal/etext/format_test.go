package etext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatProofread(t *testing.T) {
	got := FormatProofread("ཀ་ཁ།", "Tenzin")
	want := "<noinclude><pagequality level=\"3\" user=\"Tenzin\" /></noinclude>\nཀ་ཁ།\n<noinclude></noinclude>"
	assert.Equal(t, want, got)
}

func TestFormatOrientation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips existing markup",
			in:   "  <noinclude><pagequality level=\"1\" user=\"x\" /></noinclude><div>text</div> ",
			want: "<noinclude><pagequality level=\"3\" user=\"Bot\" /></noinclude>\n" +
				"<div style=\"margin-left: 3em; margin-right: 3em;\">text</div><noinclude></noinclude>",
		},
		{
			name: "empty page gets nbsp",
			in:   "<noinclude></noinclude>",
			want: "<noinclude><pagequality level=\"3\" user=\"Bot\" /></noinclude>\n" +
				"<div style=\"margin-left: 3em; margin-right: 3em;\">&nbsp;</div><noinclude></noinclude>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOrientation(tt.in, "Bot"))
		})
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a b", StripTags(" <b>a</b> <i>b</i> "))
	assert.Equal(t, "", StripTags("<br/>"))
}

func TestPrepareMainContent(t *testing.T) {
	pages := []PageText{
		{Number: 1, Text: "one"},
		{Number: 2, Text: "   "},
		{Number: 3, Text: "three\n"},
	}

	content, skipped := PrepareMainContent(pages, "Book.pdf")

	want := "== Page 1 ==\n{{Page:Book.pdf/1}}\none\n\n" +
		"== Page 3 ==\n{{Page:Book.pdf/3}}\nthree"
	assert.Equal(t, want, content)
	assert.Equal(t, []int{2}, skipped)
}

func TestPrepareMainContent_Empty(t *testing.T) {
	content, skipped := PrepareMainContent(nil, "Book.pdf")
	assert.Empty(t, content)
	assert.Nil(t, skipped)
}
