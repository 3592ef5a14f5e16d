package rag

import (
	"fmt"
	"strings"
)

const (
	caseSectionLabel     = "=== 📂 CASE ===\n"
	lawSectionLabel      = "\n=== 📂 LAW ===\n"
	practiceSectionLabel = "\n=== 📂 PRACTICE ===\n"

	// LawNotFound replaces the law section when no usable statute was retrieved.
	LawNotFound = "해당 질문에 적용할 법령 자료가 검색되지 않았습니다. (추가 검토 필요)"

	unknownCaseName   = "사건명 없음"
	unknownLawName    = "법령명 없음"
	numberPending     = "검색요망"
	defaultMaterial   = "약관"
	unknownMaterial   = "미상"
	defaultPracticeBy = "실무자료"

	maxCaseEntries     = 3
	maxPracticeEntries = 3
	caseSentences      = 2
	lawSentences       = 2
	practiceSentences  = 3
)

// Assembler renders retrieved documents into the context block handed to the
// language model. It holds no state beyond its excerpt strategies, so Assemble
// is deterministic for identical input.
type Assembler struct {
	body     Excerpter
	practice Excerpter
}

// NewAssembler returns an assembler using the sentence heuristic for cases and
// laws and the clause-aware heuristic for practice materials.
func NewAssembler() *Assembler {
	return &Assembler{body: SentenceExcerpter{}, practice: ClauseExcerpter{}}
}

// WithExcerpters swaps the truncation strategies without touching section formatting.
func (a *Assembler) WithExcerpters(body, practice Excerpter) *Assembler {
	return &Assembler{body: body, practice: practice}
}

// Assemble builds the CASE, LAW and PRACTICE sections in that order.
func (a *Assembler) Assemble(r Retrieved) string {
	var b strings.Builder

	b.WriteString(caseSectionLabel)
	for _, c := range head(r.Cases, maxCaseEntries) {
		if c.Holding == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s (판례번호:%s): %s\n",
			orDefault(c.CaseName, unknownCaseName),
			orDefault(c.CaseNo, numberPending),
			a.body.Excerpt(string(c.Holding), caseSentences))
	}

	b.WriteString(lawSectionLabel)
	if len(r.Laws) > 0 && r.Laws[0].Text != "" {
		l := r.Laws[0]
		fmt.Fprintf(&b, "- %s (공포번호:%s): %s\n",
			orDefault(l.LawName, unknownLawName),
			orDefault(l.PromulgationNo, numberPending),
			a.body.Excerpt(string(l.Text), lawSentences))
	} else {
		b.WriteString(LawNotFound)
	}

	b.WriteString(practiceSectionLabel)
	for _, p := range head(r.Practices, maxPracticeEntries) {
		if p.Text == "" {
			continue
		}
		material := p.MaterialType
		if material == "" || material == unknownMaterial {
			material = defaultMaterial
		}
		fmt.Fprintf(&b, "- %s\n  · 작성자: %s\n  · 파일: %s\n  · 내용: %s\n",
			material,
			orDefault(p.OrgAuthor, defaultPracticeBy),
			orDefault(p.Filename, defaultPracticeBy),
			a.practice.Excerpt(string(p.Text), practiceSentences))
	}

	return b.String()
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(v DocString, def string) string {
	if v == "" {
		return def
	}
	return string(v)
}
