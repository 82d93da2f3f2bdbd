package providers

import (
	"golang.org/x/text/language"
)

// DefaultImageInstruction replaces an empty prompt when only an image is sent
const DefaultImageInstruction = "analyze this image and explain it"

// The first tag is the fallback for unmatched locales.
var preambleTags = []language.Tag{
	language.Turkish,
	language.German,
	language.English,
}

var preambleTexts = []string{
	"Bu görseli incele. Görselde Almanca bir metin varsa Türkçeye çevir ve açıkla. Soru: ",
	"Analysiere dieses Bild. Enthält es deutschen Text, übersetze und erkläre ihn. Frage: ",
	"Analyze this image. If it contains German text, translate and explain it. Question: ",
}

var preambleMatcher = language.NewMatcher(preambleTags)

// PreambleFor returns the instruction prepended to image prompts for a locale
// such as "de", "en-GB" or "tr-TR".
func PreambleFor(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return preambleTexts[0]
	}
	_, idx, conf := preambleMatcher.Match(tag)
	if conf == language.No {
		return preambleTexts[0]
	}
	return preambleTexts[idx]
}

// imagePrompt builds the text part of an image message
func imagePrompt(preamble, prompt string) string {
	if prompt == "" {
		prompt = DefaultImageInstruction
	}
	return preamble + prompt
}
