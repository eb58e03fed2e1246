package trial

import "time"

// Phase tags which part of the session a trial belongs to
type Phase string

const (
	PhaseIntro    Phase = "intro"
	PhaseAdaptive Phase = "adaptive"
)

// Side identifies one of the two presentation sides
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Other returns the opposite presentation side
func (s Side) Other() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Response is the observed outcome of a trial
type Response string

const (
	ResponseLeft    Response = "left"
	ResponseRight   Response = "right"
	ResponseTimeout Response = "timeout"
)

// Side converts a non-timeout response to the side it selected
func (r Response) Side() (Side, bool) {
	switch r {
	case ResponseLeft:
		return SideLeft, true
	case ResponseRight:
		return SideRight, true
	}
	return "", false
}

// Record is the immutable outcome of one completed trial. It is created once
// at trial completion and handed to the record sink unchanged.
type Record struct {
	Ordinal         int
	Phase           Phase
	ReferenceSide   Side
	ComparisonLevel float64
	Response        Response
	Correct         bool
	ReactionTime    time.Duration

	// Staircase trace at the time of the trial. LowBound/MidValue/HighBound
	// are the min, running estimate, and max of the recent reversal window;
	// all zero for intro trials.
	ReversalCount int
	LowBound      float64
	MidValue      float64
	HighBound     float64

	Annotation string
}

// Summary aggregates a completed session
type Summary struct {
	SessionID         string
	IntroTrials       int
	AdaptiveTrials    int
	Timeouts          int
	Reversals         int
	ThresholdEstimate float64
	AccuracyIntro     float64
	AccuracyAdaptive  float64
	MeanReactionMs    float64
	MedianReactionMs  float64
	StdDevReactionMs  float64
	CompletedAt       time.Time
}
