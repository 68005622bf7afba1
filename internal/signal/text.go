package signal

import (
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// textNormalizer folds compatibility characters (full-width letters,
// ligatures) and drops control characters before counting.
var textNormalizer = transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cc)))

// normalizeText returns s in NFKC form, lower-cased, with runs of
// whitespace collapsed to single spaces.
func normalizeText(s string) string {
	out, _, err := transform.String(textNormalizer, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// isSentenceEnd reports whether r terminates a sentence, including the
// CJK full stop.
func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// textStats returns the word count and the average sentence length in
// words of normalized text.
func textStats(normalized string) (words int, avgSentence float64) {
	words = len(strings.Fields(normalized))
	if words == 0 {
		return 0, 0
	}
	sentences := 0
	for _, part := range strings.FieldsFunc(normalized, isSentenceEnd) {
		if strings.TrimSpace(part) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	return words, float64(words) / float64(sentences)
}

// fingerprint hashes normalized text. Equal fingerprints mean duplicate
// content.
func fingerprint(normalized string) string {
	if normalized == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}
