package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output  []byte
	err     error
	missing bool
	args    []string
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	return m.output, m.err
}

func (m *mockRunner) LookPath(name string) (string, error) {
	if m.missing {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + name, nil
}

func TestNew(t *testing.T) {
	e := New(&mockRunner{}, domain.ExtractLimits{})
	require.NotNil(t, e)
	assert.Equal(t, "pdf", e.Name())
	assert.Equal(t, []string{".pdf"}, e.Extensions())
	assert.Equal(t, domain.DefaultMaxPages, e.maxPages)
}

func TestAvailable(t *testing.T) {
	assert.NoError(t, New(&mockRunner{}, domain.DefaultExtractLimits()).Available())

	err := New(&mockRunner{missing: true}, domain.DefaultExtractLimits()).Available()
	assert.ErrorIs(t, err, domain.ErrExtractorUnavailable)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestExtract_NilFile(t *testing.T) {
	res, err := New(&mockRunner{}, domain.DefaultExtractLimits()).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, res)
}

func TestExtract(t *testing.T) {
	runner := &mockRunner{output: []byte("Page one invoice\n\fPage two\n\n")}
	e := New(runner, domain.ExtractLimits{MaxPages: 7})

	res, err := e.Extract(context.Background(), &domain.RawFile{Name: "a.pdf", Path: "/docs/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Page one invoice\nPage two", res.Text)
	assert.Equal(t, []string{"-l", "7", "-q", "-enc", "UTF-8", "/docs/a.pdf", "-"}, runner.args)
}

func TestExtract_ToolError(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}

	_, err := New(runner, domain.DefaultExtractLimits()).Extract(context.Background(), &domain.RawFile{Name: "a.pdf", Path: "/docs/a.pdf"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &mockRunner{err: errors.New("signal: killed")}

	_, err := New(runner, domain.DefaultExtractLimits()).Extract(ctx, &domain.RawFile{Name: "a.pdf", Path: "/docs/a.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}
