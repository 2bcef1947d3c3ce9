package prompt

import (
	"strings"
	"testing"

	"paperchat-be/pkg/rag/evidence"

	"github.com/stretchr/testify/assert"
)

func TestCitationBuilder_Build(t *testing.T) {
	passages := []evidence.Passage{
		{ID: 1, Text: "  Revenue rose 10% YoY\n", Metadata: map[string]interface{}{"page": 3}},
		{ID: 2, Text: "Costs were flat"},
	}
	got := NewCitationBuilder("Annual Report", "How did revenue change?", passages).Build()

	assert.Contains(t, got, "Document: Annual Report")
	assert.Contains(t, got, "[1] (page 3)\nRevenue rose 10% YoY\n")
	assert.Contains(t, got, "[2]\nCosts were flat\n")
	assert.Contains(t, got, "<user_question>\nHow did revenue change?\n</user_question>")
	assert.True(t, strings.Index(got, "<reference_material>") < strings.Index(got, "<user_question>"))
}

func TestCitationBuilder_NoPassages(t *testing.T) {
	got := NewCitationBuilder("", "anything?", nil).Build()
	assert.Contains(t, got, "(no passages were retrieved)")
	assert.NotContains(t, got, "Document:")
}
