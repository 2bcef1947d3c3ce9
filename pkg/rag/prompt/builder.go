package prompt

import (
	"fmt"
	"strings"

	"paperchat-be/pkg/rag/evidence"
)

// SystemPrompt frames every document conversation.
const SystemPrompt = "You are a careful research assistant. You answer questions about a single document using only the passages you are given, and you cite them."

// CitationBuilder builds the user prompt for one grounded question.
// Passages are numbered by their evidence id so the model cites with ids the reconciler can resolve.
type CitationBuilder struct {
	title    string
	query    string
	passages []evidence.Passage
}

func NewCitationBuilder(title, query string, passages []evidence.Passage) *CitationBuilder {
	return &CitationBuilder{
		title:    title,
		query:    query,
		passages: passages,
	}
}

func (b *CitationBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *CitationBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	prompt.WriteString("<reference_material>\n")
	if b.title != "" {
		prompt.WriteString(fmt.Sprintf("Document: %s\n\n", b.title))
	}
	if len(b.passages) == 0 {
		prompt.WriteString("(no passages were retrieved)\n")
	}
	for _, p := range b.passages {
		if page := p.Page(); page > 0 {
			prompt.WriteString(fmt.Sprintf("[%d] (page %d)\n", p.ID, page))
		} else {
			prompt.WriteString(fmt.Sprintf("[%d]\n", p.ID))
		}
		prompt.WriteString(strings.TrimSpace(p.Text))
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *CitationBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material above\n")
	prompt.WriteString("2. After each claim, cite the passages that support it by number in square brackets, e.g. [1] or [2, 3]\n")
	prompt.WriteString("3. Only cite numbers that appear in the reference material\n")
	prompt.WriteString("4. If the material does not contain the answer, say so honestly and cite nothing\n")
	prompt.WriteString("5. Use markdown for structure when it helps readability\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *CitationBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your answer with citations:")
}
