// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package language

import "testing"

func TestDetector_Detect_ShortInput(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", " "},
		{"two chars", "ab"},
		{"padded two chars", "  a b  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text); got != Default {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, Default)
			}
		})
	}
}

func TestDetector_Detect_ScriptPatterns(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		text string
		want string
	}{
		// Devanagari resolves to Hindi first in priority order, even for
		// text that is actually Marathi or Rajasthani.
		{"hindi question", "शुल्क कब जमा करना है?", Hindi},
		{"marathi text maps to hindi", "वेळापत्रक कुठे आहे", Hindi},
		{"gujarati script", "ફી ક્યારે ભરવાની છે?", Gujarati},
		{"gujarati greeting", "નમસ્તે", Gujarati},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetector_Detect_English(t *testing.T) {
	d := NewDetector()

	got := d.Detect("What is the fee deadline for this semester?")
	if got != English {
		t.Errorf("Detect() = %q, want %q", got, English)
	}
}

func TestDetector_Detect_Deterministic(t *testing.T) {
	d := NewDetector()
	text := "When do scholarship applications open this year?"

	first := d.Detect(text)
	for i := 0; i < 20; i++ {
		if got := d.Detect(text); got != first {
			t.Fatalf("Detect() unstable: got %q then %q", first, got)
		}
	}
}

func TestDetector_Detect_RelatedLanguageFallback(t *testing.T) {
	d := NewDetector()

	// Bengali script is not covered by the pattern pass; the statistical
	// detector should identify it and the related-language table collapses
	// it to Hindi.
	got := d.Detect("আপনি কেমন আছেন? আমি ভর্তি সম্পর্কে জানতে চাই।")
	if got != Hindi {
		t.Errorf("Detect(bengali) = %q, want %q", got, Hindi)
	}
}

func TestIsSupported(t *testing.T) {
	for _, code := range []string{English, Hindi, Gujarati, Marathi, Rajasthani} {
		if !IsSupported(code) {
			t.Errorf("IsSupported(%q) = false, want true", code)
		}
	}
	if IsSupported("fr") {
		t.Error("IsSupported(\"fr\") = true, want false")
	}
}

func TestName(t *testing.T) {
	if got := Name(English); got != "English" {
		t.Errorf("Name(en) = %q", got)
	}
	if got := Name("zz"); got != "Unknown" {
		t.Errorf("Name(zz) = %q, want Unknown", got)
	}
}

func TestSupported(t *testing.T) {
	langs := Supported()
	if len(langs) != 5 {
		t.Fatalf("Supported() returned %d languages, want 5", len(langs))
	}
	if langs[Hindi] != "Hindi (हिंदी)" {
		t.Errorf("Supported()[hi] = %q", langs[Hindi])
	}
}

func TestDetector_ExtractKeywords(t *testing.T) {
	d := NewDetector()

	keywords := d.ExtractKeywords("What is the fee deadline for admission", English)

	want := map[string]bool{"what": true, "fee": true, "deadline": true, "admission": true}
	for _, kw := range keywords {
		if !want[kw] {
			t.Errorf("unexpected keyword %q", kw)
		}
		delete(want, kw)
	}
	for kw := range want {
		t.Errorf("missing keyword %q", kw)
	}
}

func TestDetector_Normalize(t *testing.T) {
	d := NewDetector()

	if got := d.Normalize("  What   IS  the Fee  "); got != "what is the fee" {
		t.Errorf("Normalize() = %q", got)
	}
}
