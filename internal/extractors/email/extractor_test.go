package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
)

// mockRouter records routed attachments and returns canned text.
type mockRouter struct {
	names  []string
	depths []int
	data   [][]byte
}

func (m *mockRouter) Extract(_ context.Context, _ string, _ int64) domain.Extraction {
	return domain.Extraction{}
}

func (m *mockRouter) ExtractBytes(_ context.Context, name string, data []byte, depth int) domain.Extraction {
	m.names = append(m.names, name)
	m.depths = append(m.depths, depth)
	m.data = append(m.data, data)
	return domain.Extraction{Text: "routed:" + string(data)}
}

func (m *mockRouter) Supports(string) bool { return true }

func extract(t *testing.T, e *Extractor, name, content string, depth int) *domain.Extraction {
	t.Helper()
	res, err := e.Extract(context.Background(), &domain.RawFile{Name: name, Content: []byte(content), Depth: depth})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

const simpleEmail = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: =?UTF-8?B?UXVhcnRlcmx5IHJlcG9ydA==?=\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please find the invoice below.\r\n"

func TestNew(t *testing.T) {
	e := New(domain.ExtractLimits{})
	assert.Equal(t, "email", e.Name())
	assert.Equal(t, domain.DefaultMaxRecords, e.maxRecords)
	for _, ext := range []string{".eml", ".emlx", ".mbox", ".msg"} {
		assert.Contains(t, e.Extensions(), ext)
	}
}

func TestExtract_NilFile(t *testing.T) {
	res, err := New(domain.DefaultExtractLimits()).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, res)
}

func TestExtract_SimpleEml(t *testing.T) {
	res := extract(t, New(domain.DefaultExtractLimits()), "mail.eml", simpleEmail, 0)

	assert.Contains(t, res.Text, "From: Alice <alice@example.com>")
	assert.Contains(t, res.Text, "Subject: Quarterly report")
	assert.Contains(t, res.Text, "Please find the invoice below.")
	assert.Empty(t, res.AttachmentText)
}

func TestExtract_MalformedEml(t *testing.T) {
	_, err := New(domain.DefaultExtractLimits()).Extract(context.Background(), &domain.RawFile{Name: "bad.eml", Content: []byte("no headers here")})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtract_HTMLOnlyBody(t *testing.T) {
	msg := "Subject: html\r\nContent-Type: text/html\r\n\r\n<html><body><p>Hello &amp; welcome</p></body></html>"
	res := extract(t, New(domain.DefaultExtractLimits()), "html.eml", msg, 0)
	assert.Contains(t, res.Text, "Hello & welcome")
	assert.NotContains(t, res.Text, "<p>")
}

func multipartEmail(attachment string) string {
	return "From: sender@example.com\r\n" +
		"Subject: With attachment\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: multipart/alternative; boundary=\"ALT\"\r\n" +
		"\r\n" +
		"--ALT\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Body text caf=C3=A9\r\n" +
		"--ALT\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>Body html</p>\r\n" +
		"--ALT--\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; name=\"notes.txt\"\r\n" +
		"Content-Disposition: attachment; filename=\"notes.txt\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		base64.StdEncoding.EncodeToString([]byte(attachment)) + "\r\n" +
		"--XYZ--\r\n"
}

func TestExtract_AttachmentRoutedOneLevelDeeper(t *testing.T) {
	router := &mockRouter{}
	e := New(domain.DefaultExtractLimits())
	e.SetRouter(router)

	res := extract(t, e, "mail.eml", multipartEmail("secret budget"), 1)

	assert.Contains(t, res.Text, "Body text café")
	assert.NotContains(t, res.Text, "Body html", "plain text is preferred over html")
	assert.NotContains(t, res.Text, "secret budget")
	assert.Equal(t, "routed:secret budget", res.AttachmentText)

	assert.Equal(t, []string{"notes.txt"}, router.names)
	assert.Equal(t, []int{2}, router.depths)
}

func TestExtract_AttachmentsIgnoredWithoutRouter(t *testing.T) {
	res := extract(t, New(domain.DefaultExtractLimits()), "mail.eml", multipartEmail("secret budget"), 0)
	assert.Empty(t, res.AttachmentText)
	assert.Contains(t, res.Text, "Body text")
}

func TestExtract_NestedMessageGetsEmlName(t *testing.T) {
	msg := "Subject: fwd\r\n" +
		"Content-Type: multipart/mixed; boundary=\"B\"\r\n" +
		"\r\n" +
		"--B\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see below\r\n" +
		"--B\r\n" +
		"Content-Type: message/rfc822\r\n" +
		"\r\n" +
		"Subject: inner\r\n\r\ninner body\r\n" +
		"--B--\r\n"
	router := &mockRouter{}
	e := New(domain.DefaultExtractLimits())
	e.SetRouter(router)

	res := extract(t, e, "fwd.eml", msg, 0)
	assert.Contains(t, res.Text, "see below")
	require.Equal(t, []string{"attached.eml"}, router.names)
	assert.Contains(t, string(router.data[0]), "inner body")
}

func TestExtract_Emlx(t *testing.T) {
	payload := "Subject: apple\n\nmail body\n"
	content := fmt.Sprintf("%d\n%s<?xml version=\"1.0\"?><plist><dict/></plist>", len(payload), payload)

	res := extract(t, New(domain.DefaultExtractLimits()), "1234.emlx", content, 0)
	assert.Contains(t, res.Text, "mail body")
	assert.NotContains(t, res.Text, "plist")
}

func TestEmlxPayload_NoCount(t *testing.T) {
	data := []byte("Subject: x\n\nbody")
	assert.Equal(t, data, emlxPayload(data))
}

func mailbox(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "From sender%d@example.com Mon Jan  1 00:00:00 2024\n", i)
		fmt.Fprintf(&b, "Subject: message %d\n\nbody%d\n>From the archive\n\n", i, i)
	}
	return b.String()
}

func TestExtract_Mbox(t *testing.T) {
	res := extract(t, New(domain.DefaultExtractLimits()), "inbox.mbox", mailbox(3), 0)

	for i := 0; i < 3; i++ {
		assert.Contains(t, res.Text, fmt.Sprintf("body%d", i))
	}
	assert.Contains(t, res.Text, "From the archive")
	assert.NotContains(t, res.Text, ">From")
}

func TestExtract_MboxRecordCap(t *testing.T) {
	e := New(domain.ExtractLimits{MaxRecords: 2})
	res := extract(t, e, "inbox.mbox", mailbox(5), 0)

	assert.Contains(t, res.Text, "body1")
	assert.NotContains(t, res.Text, "body2")
}

func TestExtract_Msg(t *testing.T) {
	content := []byte{0xD0, 0xCF, 0x11, 0xE0, 0x00, 0x01}
	content = append(content, []byte("Quarterly invoice")...)
	content = append(content, 0x00, 0x02)

	res := extract(t, New(domain.DefaultExtractLimits()), "outlook.msg", string(content), 0)
	assert.Contains(t, res.Text, "Quarterly invoice")
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(domain.DefaultExtractLimits()).Extract(ctx, &domain.RawFile{Name: "mail.eml", Content: []byte(simpleEmail)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
	var _ driven.ContentExtractor = (*mockRouter)(nil)
}
