package textutil

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/core/domain"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"plain utf8", []byte("hello"), "hello"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "café"...), "café"},
		{"latin1 fallback", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"utf16 le", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf16 be", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DecodeText(tc.input))
		})
	}
}

func TestStripTags(t *testing.T) {
	out := StripTags("<html><body><p>Invoice &amp; receipt</p>\n\n<div>total</div></body></html>")

	assert.Contains(t, out, "Invoice & receipt")
	assert.Contains(t, out, "total")
	assert.NotContains(t, out, "<")
}

func TestCollapseLines(t *testing.T) {
	assert.Equal(t, "a\nb", CollapseLines("  a  \n\n\t\n b"))
}

func TestXMLText(t *testing.T) {
	doc := `<doc><p><r>Hel</r><r>lo</r></p><p>World<tab/>again</p></doc>`

	text, err := XMLText(context.Background(), strings.NewReader(doc), XMLLayout{
		Breaks: []string{"p"},
		Spaces: []string{"tab"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld again", text)
}

func TestXMLText_Malformed(t *testing.T) {
	_, err := XMLText(context.Background(), strings.NewReader("<a><b>partial"), XMLLayout{})

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestXMLText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := XMLText(ctx, strings.NewReader("<a>x</a>"), XMLLayout{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestZipHelpers(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("content.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<a>inside</a>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := OpenZip(&domain.RawFile{Name: "x.odt", Content: buf.Bytes()})
	require.NoError(t, err)

	f := FindZipFile(zr, "content.xml")
	require.NotNil(t, f)
	assert.Nil(t, FindZipFile(zr, "missing.xml"))

	data, err := ReadZipFile(f, 4)
	require.NoError(t, err)
	assert.Equal(t, "<a>i", string(data))
}

func TestOpenZip_NotZip(t *testing.T) {
	_, err := OpenZip(&domain.RawFile{Name: "x.docx", Content: []byte("plain")})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestPrintableRuns(t *testing.T) {
	data := []byte{0x00, 0x01}
	data = append(data, "Quarterly invoice"...)
	data = append(data, 0x00, 0x02, 'a', 'b', 0x00)
	for _, r := range "Subject line" {
		data = append(data, byte(r), 0x00)
	}
	data = append(data, 0x00, 0x00)

	out := PrintableRuns(data, 6)

	assert.Contains(t, out, "Quarterly invoice")
	assert.Contains(t, out, "Subject line")
	assert.NotContains(t, out, "ab\n")
}

func TestMaterialise(t *testing.T) {
	t.Run("on disk path passes through", func(t *testing.T) {
		path, cleanup, err := Materialise(&domain.RawFile{Name: "a.db", Path: "/data/a.db"})
		require.NoError(t, err)
		defer cleanup()
		assert.Equal(t, "/data/a.db", path)
	})

	t.Run("in memory content is written to temp file", func(t *testing.T) {
		path, cleanup, err := Materialise(&domain.RawFile{Name: "att.pdf", Content: []byte("%PDF")})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(data))
		assert.True(t, strings.HasSuffix(path, ".pdf"))

		cleanup()
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".docx", Ext("Report.DOCX"))
	assert.Equal(t, "", Ext("Makefile"))
}

func TestLooksText(t *testing.T) {
	assert.True(t, LooksText([]byte("line one\nline two\n")))
	assert.False(t, LooksText([]byte{'M', 'Z', 0x00, 0x90}))
	assert.False(t, LooksText(nil))
	assert.False(t, LooksText([]byte{0x01, 0x02, 0x03, 0x04, 'a'}))
}

func TestXMLText_UnitLimit(t *testing.T) {
	doc := `<table><row>one</row><row>two</row><row>three</row></table>`

	text, err := XMLText(context.Background(), strings.NewReader(doc), XMLLayout{
		Breaks: []string{"row"},
		Unit:   "row",
		Limit:  2,
	})

	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
}
