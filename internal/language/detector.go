// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package language identifies the language of incoming chat messages.
// Detection is total: every input resolves to one of the supported
// language codes, falling back to English when nothing else matches.
package language

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Supported language codes. Rajasthani has no ISO 639-1 code and is only
// reachable through the pattern pass.
const (
	English    = "en"
	Hindi      = "hi"
	Gujarati   = "gu"
	Marathi    = "mr"
	Rajasthani = "raj"
)

// Default is returned whenever detection cannot produce a supported code.
const Default = English

// minDetectableLength is the minimum number of non-whitespace characters
// required before detection is attempted.
const minDetectableLength = 3

// languagePattern pairs a language code with its script test and signature
// words. Patterns are evaluated in declaration order; the first match wins,
// so Hindi claims all Devanagari text ahead of Marathi and Rajasthani.
type languagePattern struct {
	code   string
	script *regexp.Regexp
	words  []string
}

var patterns = []languagePattern{
	{
		code:   Hindi,
		script: regexp.MustCompile(`[\x{0900}-\x{097F}]`),
		words:  []string{"क्या", "कैसे", "कब", "क्यों", "कहाँ", "नमस्ते", "धन्यवाद"},
	},
	{
		code:   Gujarati,
		script: regexp.MustCompile(`[\x{0A80}-\x{0AFF}]`),
		words:  []string{"શું", "કેવી", "ક્યારે", "કેમ", "ક્યાં", "નમસ્તે", "ધન્યવાદ"},
	},
	{
		code:   Marathi,
		script: regexp.MustCompile(`[\x{0900}-\x{097F}]`),
		words:  []string{"काय", "कसे", "केव्हा", "का", "कुठे", "नमस्कार", "धन्यवाद"},
	},
	{
		code:   Rajasthani,
		script: regexp.MustCompile(`[\x{0900}-\x{097F}]`),
		words:  []string{"के", "कैं", "कद", "क्यूं", "कठै", "नमस्ते", "धन्यवाद"},
	},
}

// directMap maps statistical detector results to supported codes.
var directMap = map[whatlanggo.Lang]string{
	whatlanggo.Eng: English,
	whatlanggo.Hin: Hindi,
	whatlanggo.Guj: Gujarati,
	whatlanggo.Mar: Marathi,
}

// relatedMap collapses regional neighbours onto the nearest supported code.
var relatedMap = map[whatlanggo.Lang]string{
	whatlanggo.Nep: Hindi,
	whatlanggo.Ben: Hindi,
	whatlanggo.Urd: Hindi,
	whatlanggo.Pan: Hindi,
}

var languageNames = map[string]string{
	English:    "English",
	Hindi:      "Hindi (हिंदी)",
	Gujarati:   "Gujarati (ગુજરાતી)",
	Marathi:    "Marathi (मराठी)",
	Rajasthani: "Rajasthani (राजस्थानी)",
}

// stopWords lists common function words removed during keyword extraction.
var stopWords = map[string][]string{
	English:    {"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by"},
	Hindi:      {"और", "या", "में", "पर", "से", "के", "की", "को", "का"},
	Gujarati:   {"અને", "અથવા", "માં", "પર", "થી", "ના", "નું", "ને"},
	Marathi:    {"आणि", "किंवा", "मध्ये", "वर", "पासून", "चा", "ची", "ला"},
	Rajasthani: {"अर", "या", "में", "पर", "सूं", "रो", "री", "नै"},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Detector resolves free text to a supported language code.
type Detector struct{}

// NewDetector creates a language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the language code for text. It never fails: empty or very
// short input, ambiguous scripts, and unreliable statistical guesses all
// resolve to the default code.
//
// Pattern matching runs before statistical detection because short
// regional-language snippets are routinely misclassified by trigram
// detectors.
func (d *Detector) Detect(text string) string {
	if nonWhitespaceLen(text) < minDetectableLength {
		return Default
	}

	if code, ok := d.patternDetect(text); ok {
		return code
	}

	info := whatlanggo.Detect(text)
	if code, ok := directMap[info.Lang]; ok {
		return code
	}
	if code, ok := relatedMap[info.Lang]; ok {
		return code
	}
	return Default
}

// patternDetect runs the script-range and signature-word tests in priority
// order. The second return value reports whether any pattern matched.
func (d *Detector) patternDetect(text string) (string, bool) {
	tokens := tokenize(text)
	for _, p := range patterns {
		if p.script.MatchString(text) {
			return p.code, true
		}
		for _, w := range p.words {
			if tokens[w] {
				return p.code, true
			}
		}
	}
	return "", false
}

// IsSupported reports whether code is one of the supported language codes.
func IsSupported(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// Name returns the human-readable name for a language code.
func Name(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "Unknown"
}

// Supported returns the supported language codes mapped to their names.
func Supported() map[string]string {
	out := make(map[string]string, len(languageNames))
	for code, name := range languageNames {
		out[code] = name
	}
	return out
}

// Normalize collapses whitespace and lower-cases English text. Case is
// preserved for other languages since their scripts are caseless.
func (d *Detector) Normalize(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	if d.Detect(text) == English {
		text = strings.ToLower(text)
	}
	return text
}

// ExtractKeywords splits text into words and removes stop words for the
// given language. Words of three or more characters survive.
func (d *Detector) ExtractKeywords(text, lang string) []string {
	normalized := d.Normalize(text)

	stop, ok := stopWords[lang]
	if !ok {
		stop = stopWords[English]
	}
	stopSet := make(map[string]bool, len(stop))
	for _, w := range stop {
		stopSet[w] = true
	}

	var keywords []string
	for _, word := range strings.Fields(normalized) {
		if !stopSet[word] && len([]rune(word)) > 2 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// tokenize splits text on whitespace, trimming common punctuation, and
// returns the resulting word set for whole-word matching.
func tokenize(text string) map[string]bool {
	fields := strings.Fields(text)
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[strings.Trim(f, ".,!?;:\"'()।")] = true
	}
	return tokens
}

func nonWhitespaceLen(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
