package signal

import (
	"strings"
	"unicode"

	"github.com/nao1215/aiaudit/internal/model"
)

const (
	// LLMSNonTrivialLength is the number of non-whitespace characters from
	// which llms.txt earns content credit.
	LLMSNonTrivialLength = 100

	// LLMSMaxBytes is the size above which llms.txt is considered
	// pathological and loses content credit.
	LLMSMaxBytes = 100 * 1024
)

// CheckLLMS checks an llms.txt body. Presence and non-trivial content are
// independent signals.
func CheckLLMS(text string, fetched bool) model.LLMSSignals {
	if !fetched || looksLikeHTML(text) {
		return model.LLMSSignals{}
	}
	nonSpace := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			nonSpace++
		}
	}
	return model.LLMSSignals{
		Present:       true,
		ContentLength: len(strings.TrimSpace(text)),
		NonTrivial:    nonSpace >= LLMSNonTrivialLength,
		Oversized:     len(text) > LLMSMaxBytes,
	}
}
