// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Matches runes that are unsafe inside an object-storage blob name.
var blobSeparatorRe = regexp.MustCompile(`[ !@#$%^&*()=+\-]+`)

// ContentBlobName builds the storage name an uploaded asset is stored under.
// The original file name is prefixed with the upload timestamp so repeated
// uploads of the same file never collide:
//
//	"spring promo.mp4" → "2026-03-01-14-05-33_spring_promo.mp4"
//
// Punctuation runs in the original name are folded to single underscores.
func ContentBlobName(originName string, now time.Time) string {
	prefix := now.UTC().Format("2006-01-02-15-04-05")
	return prefix + "_" + sanitizeName(originName)
}

// sanitizeName folds separators to underscores and strips non-ASCII runes.
// Accented characters are decomposed first so "café.png" keeps its "cafe".
func sanitizeName(name string) string {
	s := norm.NFKD.String(strings.TrimSpace(name))

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	return blobSeparatorRe.ReplaceAllString(s, "_")
}
