package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPromptNamesEveryField(t *testing.T) {
	p := GetSystemPrompt()
	for _, f := range []string{
		"summary", "meaning", "poeticDevices", "themes", "emotionalTone",
		"historicalContext", "wordAnalysis", "interpretation", "englishTranslation",
	} {
		assert.Contains(t, p, `"`+f+`"`)
	}
	assert.Contains(t, p, "JSON")
}

func TestUserPromptEmbedsText(t *testing.T) {
	p := GetUserPrompt("  دل ہی تو ہے  ")
	assert.Contains(t, p, "TEXT:\nدل ہی تو ہے")
}
