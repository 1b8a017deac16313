// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identify

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Fingerprint computes the content hash used as identity when no primary
// identifier exists. Two independently sourced citations of the same
// uncatalogued paper must collapse to one value, so the inputs are
// case-folded, punctuation-stripped, whitespace-normalized, and the author
// list is sorted before hashing.
func Fingerprint(title string, authors []string, year int) string {
	normTitle := normalizeText(title)
	if normTitle == "" {
		return ""
	}

	normAuthors := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := normalizeText(a); n != "" {
			normAuthors = append(normAuthors, n)
		}
	}
	sort.Strings(normAuthors)

	var b strings.Builder
	b.WriteString(normTitle)
	b.WriteByte('\n')
	b.WriteString(strings.Join(normAuthors, ";"))
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(year))

	h := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", h[:16])
}

// normalizeText lowercases, keeps letters/digits/spaces, and collapses
// whitespace runs to single spaces.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
