package generation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Verdict is the safety gate's classification of a piece of text.
type Verdict int

const (
	VerdictSafe Verdict = iota
	VerdictUnsafe
)

// classifyInstruction is the fixed instruction sent with the candidate
// text. The backend answers free-form; only the UNSAFE token is matched.
const classifyInstruction = "You are a content safety classifier for an image generation service. " +
	"Answer with exactly one word, SAFE or UNSAFE. " +
	"Classify the following user prompt:"

// SafetyGate screens generation input via a single classifier call before
// any downstream backend is invoked.
type SafetyGate struct {
	classifier TextGenerator
	log        zerolog.Logger
}

func NewSafetyGate(classifier TextGenerator, log zerolog.Logger) *SafetyGate {
	return &SafetyGate{
		classifier: classifier,
		log:        log.With().Str("component", "safety-gate").Logger(),
	}
}

// Classify returns the verdict for the given text. A classifier error is
// returned as-is so the orchestrator can surface a generic failure; it is
// never treated as a verdict.
func (g *SafetyGate) Classify(ctx context.Context, text string) (Verdict, error) {
	answer, err := g.classifier.Generate(ctx, classifyInstruction+"\n\n"+text)
	if err != nil {
		return VerdictSafe, err
	}
	verdict := ParseVerdict(answer)
	if verdict == VerdictUnsafe {
		g.log.Info().Msg("prompt blocked by safety gate")
	}
	return verdict, nil
}

// ParseVerdict normalizes a free-form classifier answer. The UNSAFE token
// anywhere in the answer classifies as unsafe; anything else is safe.
// Ambiguous answers therefore fail open, matching the deployed policy.
func ParseVerdict(answer string) Verdict {
	if strings.Contains(strings.ToUpper(answer), "UNSAFE") {
		return VerdictUnsafe
	}
	return VerdictSafe
}
