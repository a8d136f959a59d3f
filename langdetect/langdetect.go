// Package langdetect identifies the language of a transcript so history
// entries can be tagged when the engine does not report one.
package langdetect

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ayumu-t/kikitori/internal/types"
)

// minLength is the shortest text worth classifying. Below this the
// statistical models are noise.
const minLength = 8

// Detector classifies transcript text into a BCP 47 language code.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over the languages dictation users realistically
// produce. Restricting the set keeps model load time and memory down.
func New() *Detector {
	langs := []lingua.Language{
		lingua.English,
		lingua.Japanese,
		lingua.Chinese,
		lingua.Korean,
		lingua.Spanish,
		lingua.French,
		lingua.German,
		lingua.Portuguese,
		lingua.Russian,
		lingua.Italian,
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			WithPreloadedLanguageModels().
			Build(),
	}
}

// Detect returns the detected language of text, or a zero result when the
// text is too short or ambiguous.
func (d *Detector) Detect(text string) types.DetectResult {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minLength {
		return types.DetectResult{}
	}

	lang, ok := d.detector.DetectLanguageOf(trimmed)
	if !ok {
		return types.DetectResult{}
	}

	code := strings.ToLower(lang.IsoCode639_1().String())
	return types.DetectResult{Code: code, Name: displayName(code)}
}

// displayName renders a language code as its English display name, falling
// back to the code itself for anything unparseable.
func displayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return display.English.Languages().Name(tag)
}
