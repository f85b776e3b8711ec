// Package prompt builds the system instruction sent with every generation
// request.
package prompt

import (
	"fmt"
	"strings"
)

// Supported answer languages for the output-language selector.
const (
	LanguageEnglish    = "english"
	LanguageIndonesian = "indonesian"
)

const baseInstruction = `You are a highly capable Document Analysis AI.

CORE INSTRUCTIONS:
1. GROUNDING: Answer the user's question using ONLY the information found in the provided documents.
2. CITATION: If the answer is found, mention which file it came from (e.g., "According to report.pdf...").
3. LIMITATION: If the answer is NOT in the documents, explicitly state: "I cannot find that information in the provided documents." Do not hallucinate.
4. TONE: Professional, technical, and concise.
5. CONTEXT: Use the 'Conversation History' to understand follow-up questions (e.g., "What about the second point?").`

var languageNames = map[string]string{
	LanguageEnglish:    "English",
	LanguageIndonesian: "Indonesian",
}

// Supported reports whether a selector value names a known language.
// The empty string is allowed: it means "use the configured default".
func Supported(language string) bool {
	if language == "" {
		return true
	}
	_, ok := languageNames[strings.ToLower(language)]
	return ok
}

// SystemInstruction returns the full instruction for a turn. The language
// override is always embedded: both selector values behave symmetrically,
// overriding whatever language the question or documents are written in.
func SystemInstruction(language string) string {
	name, ok := languageNames[strings.ToLower(language)]
	if !ok {
		name = languageNames[LanguageEnglish]
	}
	override := fmt.Sprintf(
		"6. LANGUAGE: Respond entirely in %s, regardless of the language of the question or the documents.",
		name)
	return baseInstruction + "\n" + override
}
