// Package email extracts text from mail messages and mailboxes: RFC 5322
// files (eml), Apple Mail (emlx), mbox and Outlook msg. Attachments are
// decoded and routed back through the extractor registry one level
// deeper; their text is reported separately as attachment text.
package email

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strconv"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// minRun is the shortest printable run kept from msg files.
const minRun = 4

// Extractor handles email formats.
type Extractor struct {
	router     driven.ContentExtractor
	maxRecords int
}

// New creates an email extractor. Attachments are ignored until a router
// is set with SetRouter.
func New(limits domain.ExtractLimits) *Extractor {
	n := limits.MaxRecords
	if n <= 0 {
		n = domain.DefaultMaxRecords
	}
	return &Extractor{maxRecords: n}
}

// SetRouter sets the extractor attachments are dispatched to. It is
// usually the registry this extractor is registered in.
func (e *Extractor) SetRouter(router driven.ContentExtractor) {
	e.router = router
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "email"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".eml", ".emlx", ".mbox", ".mbx", ".msg"}
}

// Extract dispatches on the extension.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	switch textutil.Ext(raw.Name) {
	case ".eml":
		return e.extractMessage(ctx, raw.Content, raw.Depth)
	case ".emlx":
		return e.extractMessage(ctx, emlxPayload(raw.Content), raw.Depth)
	case ".mbox", ".mbx":
		return e.extractMailbox(ctx, raw.Content, raw.Depth)
	case ".msg":
		// Outlook msg is an OLE compound file; its property streams hold
		// the subject and body as UTF-16 or ASCII runs.
		return &domain.Extraction{Text: textutil.PrintableRuns(raw.Content, minRun)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.Name)
	}
}

// emlxPayload strips the byte-count line and trailing plist of an emlx file.
func emlxPayload(data []byte) []byte {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return data
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data[:nl])))
	if err != nil {
		return data
	}
	body := data[nl+1:]
	if n >= 0 && n < len(body) {
		body = body[:n]
	}
	return body
}

// extractMailbox splits an mbox on "From " separator lines.
func (e *Extractor) extractMailbox(ctx context.Context, data []byte, depth int) (*domain.Extraction, error) {
	var text, attachments []string
	messages := 0

	flush := func(msg []byte) error {
		if len(bytes.TrimSpace(msg)) == 0 {
			return nil
		}
		messages++
		res, err := e.extractMessage(ctx, msg, depth)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One malformed message does not spoil the mailbox.
			return nil
		}
		if res.Text != "" {
			text = append(text, res.Text)
		}
		if res.AttachmentText != "" {
			attachments = append(attachments, res.AttachmentText)
		}
		return nil
	}

	var current bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	prevBlank := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if prevBlank && bytes.HasPrefix(line, []byte("From ")) {
			if err := flush(current.Bytes()); err != nil {
				return nil, err
			}
			current.Reset()
			if messages >= e.maxRecords {
				break
			}
			prevBlank = false
			continue
		}
		prevBlank = len(bytes.TrimSpace(line)) == 0
		// Undo mboxrd quoting.
		if bytes.HasPrefix(line, []byte(">From ")) {
			line = line[1:]
		}
		current.Write(line)
		current.WriteByte('\n')
	}
	if messages < e.maxRecords {
		if err := flush(current.Bytes()); err != nil {
			return nil, err
		}
	}

	out := &domain.Extraction{
		Text:           strings.Join(text, "\n"),
		AttachmentText: strings.Join(attachments, "\n"),
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("%w: mbox: %v", domain.ErrExtractionFailed, err)
	}
	return out, nil
}

// extractMessage parses one RFC 5322 message.
func (e *Extractor) extractMessage(ctx context.Context, data []byte, depth int) (*domain.Extraction, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	var content strings.Builder
	for _, key := range []string{"From", "To", "Cc", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			content.WriteString(key)
			content.WriteString(": ")
			content.WriteString(v)
			content.WriteString("\n")
		}
	}

	w := &walker{ctx: ctx, depth: depth, router: e.router}
	w.walk(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), "", msg.Body)

	content.WriteString("\n")
	content.WriteString(w.body())

	return &domain.Extraction{
		Text:           strings.TrimSpace(content.String()),
		AttachmentText: strings.Join(w.attachments, "\n"),
	}, ctx.Err()
}

// walker collects body text and attachment text from a MIME tree.
type walker struct {
	ctx         context.Context
	depth       int
	router      driven.ContentExtractor
	textParts   []string
	htmlParts   []string
	attachments []string
}

// body prefers plain text over HTML.
func (w *walker) body() string {
	if len(w.textParts) > 0 {
		return strings.Join(w.textParts, "\n")
	}
	return strings.Join(w.htmlParts, "\n")
}

func (w *walker) walk(contentType, encoding, filename string, r io.Reader) {
	if w.ctx.Err() != nil {
		return
	}
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}
	if filename == "" {
		filename = params["name"]
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		w.walkMultipart(r, params["boundary"])
		return
	}

	data, err := io.ReadAll(decodeTransfer(r, encoding))
	if err != nil && len(data) == 0 {
		return
	}

	switch {
	case filename != "" || mediaType == "message/rfc822" || !strings.HasPrefix(mediaType, "text/"):
		w.attach(filename, mediaType, data)
	case mediaType == "text/html":
		w.htmlParts = append(w.htmlParts, textutil.StripTags(textutil.DecodeText(data)))
	default:
		w.textParts = append(w.textParts, textutil.DecodeText(data))
	}
}

func (w *walker) walkMultipart(r io.Reader, boundary string) {
	if boundary == "" {
		return
	}
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return
		}
		// NextPart already removes quoted-printable encoding.
		encoding := part.Header.Get("Content-Transfer-Encoding")
		filename := decodeHeader(part.FileName())
		w.walk(part.Header.Get("Content-Type"), encoding, filename, part)
		part.Close()
		if w.ctx.Err() != nil {
			return
		}
	}
}

// attach routes an attachment through the registry one level deeper.
func (w *walker) attach(filename, mediaType string, data []byte) {
	if w.router == nil || len(data) == 0 {
		return
	}
	if filename == "" {
		filename = defaultName(mediaType)
	}
	res := w.router.ExtractBytes(w.ctx, filename, data, w.depth+1)
	for _, s := range []string{res.Text, res.AttachmentText} {
		if s = strings.TrimSpace(s); s != "" {
			w.attachments = append(w.attachments, s)
		}
	}
}

// defaultName picks a file name whose extension selects an extractor.
func defaultName(mediaType string) string {
	if mediaType == "message/rfc822" {
		return "attached.eml"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return "attachment" + exts[0]
	}
	return "attachment.bin"
}

func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}
