package rag

import "time"

// Category identifies one of the three legal corpora. Each category has its own
// collection, vector index, field schema and result cap.
type Category string

const (
	CategoryCase     Category = "case"
	CategoryLaw      Category = "law"
	CategoryPractice Category = "practice"
)

// Categories lists the corpora in context order.
var Categories = []Category{CategoryCase, CategoryLaw, CategoryPractice}

// Collection returns the corpus collection backing the category.
func (c Category) Collection() string {
	switch c {
	case CategoryCase:
		return "cases"
	case CategoryLaw:
		return "laws"
	case CategoryPractice:
		return "practices"
	}
	return ""
}

// IndexName returns the Atlas vector index name for the category.
func (c Category) IndexName() string {
	if coll := c.Collection(); coll != "" {
		return coll + "_vector_index"
	}
	return ""
}

// TopK is the per-category retrieval cap.
func (c Category) TopK() int {
	switch c {
	case CategoryCase:
		return 10
	case CategoryLaw:
		return 3
	case CategoryPractice:
		return 5
	}
	return 0
}

// CaseDoc is a court ruling retrieved from the cases collection.
type CaseDoc struct {
	CaseNo   DocString `bson:"case_no,omitempty" json:"case_no,omitempty"`
	CaseName DocString `bson:"case_name,omitempty" json:"case_name,omitempty"`
	Holding  DocString `bson:"holding,omitempty" json:"holding,omitempty"`
	Text     DocString `bson:"text,omitempty" json:"text,omitempty"`
	Score    float64   `bson:"score" json:"score"`
}

// LawDoc is a statute retrieved from the laws collection.
type LawDoc struct {
	LawID          DocString `bson:"law_id,omitempty" json:"law_id,omitempty"`
	LawName        DocString `bson:"law_name,omitempty" json:"law_name,omitempty"`
	PromulgationNo DocString `bson:"promulgation_no,omitempty" json:"promulgation_no,omitempty"`
	Text           DocString `bson:"text,omitempty" json:"text,omitempty"`
	Score          float64   `bson:"score" json:"score"`
}

// PracticeDoc is a practice material (policy terms, manuals, guides).
type PracticeDoc struct {
	MaterialType DocString `bson:"material_type,omitempty" json:"material_type,omitempty"`
	Edition      DocString `bson:"edition,omitempty" json:"edition,omitempty"`
	OrgAuthor    DocString `bson:"org_author,omitempty" json:"org_author,omitempty"`
	Filename     DocString `bson:"filename,omitempty" json:"filename,omitempty"`
	Text         DocString `bson:"text,omitempty" json:"text,omitempty"`
	Score        float64   `bson:"score" json:"score"`
}

// Retrieved holds the per-category search results for one question.
type Retrieved struct {
	Cases     []CaseDoc     `json:"cases"`
	Laws      []LawDoc      `json:"laws"`
	Practices []PracticeDoc `json:"practices"`
}

// Timings records how long each pipeline stage took.
type Timings struct {
	Embed      time.Duration `json:"embed"`
	Retrieve   time.Duration `json:"retrieve"`
	Synthesize time.Duration `json:"synthesize"`
	Total      time.Duration `json:"total"`
}

// Answer is the result of a RAG request. Context is returned alongside the
// answer so callers can show which excerpts the model was given.
type Answer struct {
	Question string     `json:"question"`
	Context  string     `json:"context"`
	Answer   string     `json:"answer"`
	Degraded []Category `json:"degraded,omitempty"`
	Timings  Timings    `json:"timings"`
}

// AskOptions tunes a single AnswerQuestion call.
type AskOptions struct {
	// MaxTokens overrides the default generation budget when > 0.
	MaxTokens int
}
