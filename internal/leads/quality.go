package leads

import "strings"

// Lead quality scores stored on info_user.lead_quality.
const (
	QualitySpam = 1
	QualityOK   = 3
	QualityGood = 5
)

// QualityScore maps the categorical label returned by analysis to its score.
// Unknown or empty labels score as ok.
func QualityScore(label string) int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "good":
		return QualityGood
	case "spam":
		return QualitySpam
	default:
		return QualityOK
	}
}

// NormalizeQuality keeps a recognised score and defaults everything else to ok.
func NormalizeQuality(score int) int {
	switch score {
	case QualitySpam, QualityOK, QualityGood:
		return score
	default:
		return QualityOK
	}
}
