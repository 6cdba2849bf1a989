package mapping

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// nonAlphaRe strips everything but letters, matching the source's AI-path
// normalization (`re.sub(r'[^a-zA-Z]', '', name.lower())`).
var nonAlphaRe = regexp.MustCompile(`[^a-z]+`)

// normalizeAlpha lowercases and drops every non-alphabetic rune.
func normalizeAlpha(s string) string {
	return nonAlphaRe.ReplaceAllString(strings.ToLower(s), "")
}

// sequenceRatio approximates Python's difflib.SequenceMatcher.ratio() via
// normalized Levenshtein distance: ratio = 1 - distance / max(len(a), len(b)).
// This is not character-for-character identical to SequenceMatcher's
// longest-matching-block algorithm, but converges to the same extremes (1.0
// on equality, 0.0 on total mismatch) and is monotonic in edit distance,
// which is what spec.md's threshold comparisons rely on.
func sequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	ratio := 1.0 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

// fuzzyScoreAICorrection implements spec.md §4.8 step 3's post-correction
// scoring: sequence ratio, +0.3 substring bonus, 1.0 on exact normalized
// equality. Used to validate/correct an AI-suggested field name against the
// real field list.
func fuzzyScoreAICorrection(target, candidate string) float64 {
	targetNorm := normalizeAlpha(target)
	candidateNorm := normalizeAlpha(candidate)

	if targetNorm == candidateNorm {
		return 1.0
	}

	score := sequenceRatio(targetNorm, candidateNorm)
	if targetNorm != "" && candidateNorm != "" &&
		(strings.Contains(candidateNorm, targetNorm) || strings.Contains(targetNorm, candidateNorm)) {
		score += 0.3
	}
	return score
}

// findBestAICorrection returns the best-scoring candidate field name for an
// AI-suggested field, and whether it clears the 0.7 acceptance threshold
// (spec.md §4.8 step 3).
func findBestAICorrection(suggested string, availableFields []string) (best string, score float64, ok bool) {
	for _, candidate := range availableFields {
		s := fuzzyScoreAICorrection(suggested, candidate)
		if s > score {
			score = s
			best = candidate
		}
	}
	return best, score, score >= 0.7
}

// normalizeColumnName mirrors the fallback path's excel-column normalization
// (lowercase, spaces/hyphens to underscores) rather than the AI path's
// alphabetic-only normalization — the two paths in the source use distinct
// normalizers and this keeps that distinction (spec.md §4.8 step 4).
func normalizeColumnName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// fallbackFuzzyScore implements spec.md §4.8 step 4's combined score:
// sequence_ratio*0.6 + keyword_overlap*0.4, accepted at >= 0.4.
func fallbackFuzzyScore(excelColumn, fieldName string) float64 {
	excelNorm := normalizeColumnName(excelColumn)
	fieldNorm := strings.ToLower(fieldName)

	ratio := sequenceRatio(excelNorm, fieldNorm)

	excelWords := splitWords(excelNorm)
	fieldWords := splitWords(fieldNorm)
	overlap := keywordOverlap(excelWords, fieldWords)

	return ratio*0.6 + overlap*0.4
}

func splitWords(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Split(s, "_") {
		if w != "" {
			out[w] = true
		}
	}
	return out
}

func keywordOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	var shared int
	for w := range a {
		if b[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}
