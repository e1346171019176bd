package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Document is a normalized product record ready for indexing.
// Immutable after ingestion.
type Document struct {
	ID       string
	Ordinal  int
	Text     string
	Metadata map[string]string
}

// Title returns the title metadata field, or "N/A" when absent.
func (d Document) Title() string {
	if t := d.Metadata["title"]; t != "" {
		return t
	}
	return "N/A"
}

// Source returns the product page URL metadata field, or "N/A" when absent.
func (d Document) Source() string {
	if s := d.Metadata["source"]; s != "" {
		return s
	}
	return "N/A"
}

// ScoredDocument is a retrieval result.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// Turn is a single persisted conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is the provider-agnostic message shape sent to the completion
// model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProductRecord is one raw entry from a catalog feed. All fields are optional;
// unknown fields are ignored.
type ProductRecord struct {
	Title       string   `json:"title"`
	EnTitle     string   `json:"en_title"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	SideEffects []string `json:"side_effects"`
	FullContent string   `json:"fullContent"`
	PageURL     string   `json:"page_url"`
}

// IndexStats describes a built index.
type IndexStats struct {
	Documents int
	Dimension int
	Model     string
}
