// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// similarityRatio computes a normalized similarity score in [0,1] between
// two strings from the equal runs of a minimal diff: 2*M / (len(a)+len(b)),
// where M is the total length of common segments in runes.
//
// The score is symmetric-ish and rewards longer common contiguous
// substrings. Classification tie-breaking depends on these exact values, so
// any replacement implementation must keep similarity_test.go passing.
func similarityRatio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la+lb == 0 {
		return 1.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += utf8.RuneCountInString(d.Text)
		}
	}

	return 2.0 * float64(common) / float64(la+lb)
}
