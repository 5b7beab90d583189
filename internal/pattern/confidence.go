package pattern

import (
	"github.com/Veraticus/phonocorrect/internal/model"
)

// UserBaseConfidence is the base confidence of user rules that carry none.
const UserBaseConfidence = 0.9

// feedbackWeight scales how far the accept ratio can move a rule's confidence.
const feedbackWeight = 0.05

// Confidence nudges base by the rule's accept ratio:
// clamp(base + 0.05*(applied/max(1, applied+rejected) - 0.5), 0, 1).
func Confidence(base float64, usage model.Usage) float64 {
	c := base + feedbackWeight*(usage.AcceptRatio()-0.5)
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
