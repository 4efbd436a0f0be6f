package augment

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// defaultDecayRate is the daily confidence decay spec.md §4.5 rule 10
// calls for: 1% per day.
const defaultDecayRate = 0.01

// VerbParams is the addVerb params passed down the chain. ID and
// ExternalID are carried alongside the scoring inputs so AutoRegister
// can still register the verb's external identifier without needing a
// second, incompatible params type for the same operation.
type VerbParams struct {
	ID               uuid.UUID
	ExternalID       string
	Weight           *float32
	Confidence       *float32
	EndpointDistance float32
	HistoricalFreq   float32
	CreatedAt        time.Time
}

// ScoredVerbParams is VerbParams with Weight/Confidence resolved to
// concrete values, passed on to the remainder of the chain.
type ScoredVerbParams struct {
	VerbParams
	ResolvedWeight     float32
	ResolvedConfidence float32
}

// VerbScore computes weight/confidence for a verb when the caller left
// them unspecified, from endpoint semantic proximity, historical
// frequency, and a temporal decay applied since creation.
type VerbScore struct {
	DecayRate float64
	Now       func() time.Time
}

// NewVerbScore creates a verb-scoring augmentation with the spec default
// 1%/day decay rate.
func NewVerbScore() *VerbScore {
	return &VerbScore{DecayRate: defaultDecayRate, Now: time.Now}
}

func (a *VerbScore) Priority() int { return 10 }

func (a *VerbScore) Register() error { return nil }

func (a *VerbScore) Init(ctx context.Context, rc *Context) error { return nil }

func (a *VerbScore) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	if op != OpAddVerb {
		return next(ctx, op, params)
	}
	vp, ok := params.(VerbParams)
	if !ok {
		return next(ctx, op, params)
	}

	scored := ScoredVerbParams{VerbParams: vp}
	if vp.Weight != nil {
		scored.ResolvedWeight = *vp.Weight
	} else {
		scored.ResolvedWeight = a.inferWeight(vp)
	}
	if vp.Confidence != nil {
		scored.ResolvedConfidence = *vp.Confidence
	} else {
		scored.ResolvedConfidence = a.inferConfidence(vp)
	}

	return next(ctx, op, scored)
}

func (a *VerbScore) inferWeight(vp VerbParams) float32 {
	proximity := 1.0 - clamp01(vp.EndpointDistance)
	return float32(clamp01(float32(proximity)))
}

func (a *VerbScore) inferConfidence(vp VerbParams) float32 {
	base := 0.5*float64(1.0-clamp01(vp.EndpointDistance)) + 0.5*float64(clamp01(vp.HistoricalFreq))

	decay := a.DecayRate
	if decay <= 0 {
		decay = defaultDecayRate
	}
	if vp.CreatedAt.IsZero() {
		return float32(clamp01(float32(base)))
	}
	days := a.Now().Sub(vp.CreatedAt).Hours() / 24
	decayed := base * math.Pow(1-decay, days)
	return float32(clamp01(float32(decayed)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
