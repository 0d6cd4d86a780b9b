package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TextExtractor yields the plain text of a result document from its raw
// bytes. Implementations are fallible and may legitimately return an
// empty string when nothing could be recovered; the parser treats that as
// an unprocessable document.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// PDFTextExtractor extracts text from PDF bytes using pdfcpu. Extraction
// is best effort: pages whose content cannot be decoded are skipped with a
// warning rather than failing the whole document.
type PDFTextExtractor struct {
	logger *slog.Logger
	conf   *model.Configuration
}

// NewPDFTextExtractor creates a PDF text extractor with relaxed
// validation, since result sheets frequently come from sloppy generators.
func NewPDFTextExtractor(logger *slog.Logger) *PDFTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFTextExtractor{logger: logger, conf: conf}
}

// ExtractText pulls the text shown on every page, one page per paragraph.
func (e *PDFTextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), e.conf)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return "", fmt.Errorf("failed to validate PDF: %w", err)
	}

	var sb strings.Builder
	for page := 1; page <= pdfCtx.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page",
				slog.Int("page", page),
				slog.String("error", err.Error()))
			continue
		}
		if r == nil {
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page",
				slog.Int("page", page),
				slog.String("error", err.Error()))
			continue
		}

		sb.WriteString(decodeContentText(content))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// decodeContentText recovers the text shown by a page content stream. It
// collects string literals fed to the text-showing operators, separating
// adjacent literals with a space and starting a new line on each text
// positioning operator. Good enough for tabular result sheets; anything it
// cannot decode simply yields less text.
func decodeContentText(content []byte) string {
	var sb strings.Builder
	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '(':
			lit, next := readLiteralString(content, i)
			sb.WriteString(lit)
			sb.WriteByte(' ')
			i = next
		case c == '<':
			if i+1 < len(content) && content[i+1] == '<' {
				i += 2
				continue
			}
			lit, next := readHexString(content, i)
			sb.WriteString(lit)
			sb.WriteByte(' ')
			i = next
		case isDelimiter(c):
			i++
		default:
			token, next := readToken(content, i)
			switch token {
			case "Td", "TD", "T*", "ET":
				sb.WriteByte('\n')
			}
			i = next
		}
	}
	return sb.String()
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '[', ']', '{', '}', '/', '>', ')':
		return true
	}
	return false
}

func readToken(content []byte, start int) (string, int) {
	i := start
	for i < len(content) && !isDelimiter(content[i]) && content[i] != '(' && content[i] != '<' {
		i++
	}
	return string(content[start:i]), i
}

// readLiteralString parses a PDF literal string starting at the opening
// parenthesis, handling escapes and balanced nested parentheses.
func readLiteralString(content []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 < len(content) {
				i++
				switch content[i] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r', 'b', 'f':
					// ignored control escapes
				case '(', ')', '\\':
					sb.WriteByte(content[i])
				default:
					if content[i] >= '0' && content[i] <= '7' {
						val := 0
						for n := 0; n < 3 && i < len(content) && content[i] >= '0' && content[i] <= '7'; n++ {
							val = val*8 + int(content[i]-'0')
							i++
						}
						i--
						if val >= 32 && val < 127 {
							sb.WriteByte(byte(val))
						}
					}
				}
			}
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return sb.String(), i
}

// readHexString parses a PDF hex string starting at '<'.
func readHexString(content []byte, start int) (string, int) {
	var sb strings.Builder
	var hi byte
	have := false
	i := start + 1
	for i < len(content) && content[i] != '>' {
		c := content[i]
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			i++
			continue
		}
		if have {
			b := hi<<4 | v
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
			}
			have = false
		} else {
			hi = v
			have = true
		}
		i++
	}
	if i < len(content) {
		i++
	}
	return sb.String(), i
}
