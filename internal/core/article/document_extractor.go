package article

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"code.sajari.com/docconv"
	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.TextExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts data to plain text. Plain text passes through untouched.
func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	mediaType := baseMediaType(contentType)
	if mediaType == "text/plain" || mediaType == "text/markdown" {
		return strings.TrimSpace(string(data)), nil
	}

	res, err := docconv.Convert(bytes.NewReader(data), mediaType, e.useReadability)
	if err != nil {
		return "", &core.ValidationError{
			Message: "unsupported or unreadable document",
			Fields:  map[string]string{"file": fmt.Sprintf("content type %s: %v", mediaType, err)},
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		log.Warn().Str("content_type", mediaType).Msg("docconv extracted empty text")
	}
	return text, nil
}

// ResolveContentType prefers the declared type and falls back to the file
// extension when the client sent nothing useful.
func ResolveContentType(filename, declared string) string {
	mt := baseMediaType(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := docconv.MimeTypeByExtension(filename); byExt != "" && byExt != "application/octet-stream" {
		return byExt
	}
	if byExt := baseMediaType(mime.TypeByExtension(path.Ext(filename))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func baseMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
