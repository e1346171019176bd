package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"advisor/internal/domain"
)

const metadataPlaceholder = "N/A"

// Normalizer converts raw product records into indexable documents.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize builds a Document from a raw record. The second return value is
// false when the record produces no usable text, in which case the record
// must be dropped rather than indexed.
func (n *Normalizer) Normalize(record domain.ProductRecord) (domain.Document, bool) {
	var b strings.Builder

	writeField(&b, "Product Title", record.Title)
	writeField(&b, "English Title", record.EnTitle)
	writeField(&b, "Description", StripHTML(record.Description))
	writeField(&b, "Benefits", strings.Join(record.Benefits, ", "))
	writeField(&b, "Potential Side Effects", strings.Join(record.SideEffects, ", "))
	writeField(&b, "Full Content", StripHTML(record.FullContent))

	text := strings.TrimRight(b.String(), "\n")
	if strings.TrimSpace(stripLabels(text)) == "" {
		return domain.Document{}, false
	}

	doc := domain.Document{
		ID:   documentID(record),
		Text: text,
		Metadata: map[string]string{
			"title":  orPlaceholder(record.Title),
			"source": orPlaceholder(record.PageURL),
		},
	}
	return doc, true
}

// writeField appends a labeled field line. Empty values still emit the label
// so the document shape is uniform, except for fields absent from the record
// entirely (EnTitle, FullContent).
func writeField(b *strings.Builder, label, value string) {
	value = collapseWhitespace(value)
	if value == "" && (label == "English Title" || label == "Full Content") {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func orPlaceholder(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return metadataPlaceholder
	}
	return s
}

// stripLabels removes the fixed field labels so emptiness is judged on the
// record's own content, not on the label scaffolding.
func stripLabels(text string) string {
	for _, label := range []string{
		"Product Title:", "English Title:", "Description:",
		"Benefits:", "Potential Side Effects:", "Full Content:",
	} {
		text = strings.ReplaceAll(text, label, "")
	}
	return text
}

// documentID derives a stable identifier from the record's URL, falling back
// to a content hash for records without one.
func documentID(record domain.ProductRecord) string {
	key := strings.TrimSpace(record.PageURL)
	if key == "" {
		key = record.Title + "\x00" + record.Description
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// StripHTML extracts the text content of an HTML fragment, collapsing all
// whitespace runs to single spaces. Plain text passes through unchanged
// apart from whitespace collapsing.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return collapseWhitespace(s)
	}

	var b strings.Builder
	tz := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		tt := tz.Next()
		switch tt {
		case html.ErrorToken:
			return collapseWhitespace(b.String())
		case html.StartTagToken:
			name, _ := tz.TagName()
			if isInvisible(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if isInvisible(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tz.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isInvisible(tag string) bool {
	return tag == "script" || tag == "style"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
