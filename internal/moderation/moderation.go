// Package moderation decides whether event content may be published
// immediately or has to wait for human review.
//
// Two layers run in order: a deterministic blocklist pre-filter and a
// remote classifier. The pre-filter always wins: if it matches, the
// content is unsafe no matter what the classifier would say. When the
// classifier is unreachable or returns garbage the gate fails closed:
// content is marked unsafe with a service-unavailable reason rather
// than silently published.
package moderation

import "context"

// Flags mirror the classifier's per-category verdicts.
type Flags struct {
	Profanity bool `json:"profanity"`
	Sexism    bool `json:"sexism"`
	Political bool `json:"political"`
}

// Result is the gate's verdict for one title+description pair.
type Result struct {
	IsSafe bool   `json:"is_safe"`
	Flags  Flags  `json:"flags"`
	Reason string `json:"reason,omitempty"`
	Source string `json:"source,omitempty"`
}

const (
	SourceBlocklist   = "blocklist"
	SourceClassifier  = "classifier"
	SourceUnreachable = "unreachable"
)

// ReasonUnavailable is the fail-closed reason used when the classifier
// cannot be consulted. Callers surface it verbatim on admin-triggered
// re-evaluation; on creation it only parks the event in review.
const ReasonUnavailable = "content moderation service unavailable"

// Classifier is the remote semantic moderation contract.
type Classifier interface {
	Classify(ctx context.Context, title, description string) (Result, error)
}

// Gate composes the blocklist pre-filter with a classifier.
type Gate struct {
	classifier Classifier
}

func NewGate(classifier Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// Review runs both moderation layers. It never returns an error: any
// classifier failure collapses into the fail-closed unsafe result.
func (g *Gate) Review(ctx context.Context, title, description string) Result {
	if ContainsBlockedTerm(title + "\n" + description) {
		return Result{
			IsSafe: false,
			Flags:  Flags{Profanity: true},
			Reason: "content contains profanity or insult (blocklist)",
			Source: SourceBlocklist,
		}
	}

	if g.classifier == nil {
		return failClosed()
	}

	result, err := g.classifier.Classify(ctx, title, description)
	if err != nil {
		return failClosed()
	}

	// A profanity flag always blocks, even if the classifier claimed safe.
	if result.Flags.Profanity {
		result.IsSafe = false
	}
	result.Source = SourceClassifier
	return result
}

// failClosed marks the content unsafe without raising any category
// flag: unavailability is not a verdict, the reason and source carry
// the whole story.
func failClosed() Result {
	return Result{
		IsSafe: false,
		Reason: ReasonUnavailable,
		Source: SourceUnreachable,
	}
}
