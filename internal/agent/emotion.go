package agent

// EmotionalState is the five-dimensional morale vector attached to every
// agent. Each component is kept in [0, 1]; all writes go through Apply so the
// clamping cannot be bypassed at call sites.
type EmotionalState struct {
	Empathy      float64 `json:"empathy"`
	Curiosity    float64 `json:"curiosity"`
	Confidence   float64 `json:"confidence"`
	Frustration  float64 `json:"frustration"`
	Satisfaction float64 `json:"satisfaction"`
}

// NeutralEmotions returns the reset/default emotional state.
func NeutralEmotions() EmotionalState {
	return EmotionalState{
		Empathy:      0.5,
		Curiosity:    0.5,
		Confidence:   0.5,
		Frustration:  0.5,
		Satisfaction: 0.5,
	}
}

// Apply adds the delta vector component-wise, clamping every component to
// [0, 1]. Deltas may be negative.
func (e *EmotionalState) Apply(delta EmotionalState) {
	e.Empathy = clamp(e.Empathy+delta.Empathy, 0, 1)
	e.Curiosity = clamp(e.Curiosity+delta.Curiosity, 0, 1)
	e.Confidence = clamp(e.Confidence+delta.Confidence, 0, 1)
	e.Frustration = clamp(e.Frustration+delta.Frustration, 0, 1)
	e.Satisfaction = clamp(e.Satisfaction+delta.Satisfaction, 0, 1)
}

// Morale is mean(satisfaction, confidence) - frustration.
func (e EmotionalState) Morale() float64 {
	return (e.Satisfaction+e.Confidence)/2 - e.Frustration
}

// Dominant returns the strongest emotional dimension and its value. Ties
// resolve to the first dimension in declaration order.
func (e EmotionalState) Dominant() (string, float64) {
	name, value := "empathy", e.Empathy
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"curiosity", e.Curiosity},
		{"confidence", e.Confidence},
		{"frustration", e.Frustration},
		{"satisfaction", e.Satisfaction},
	} {
		if c.value > value {
			name, value = c.name, c.value
		}
	}
	return name, value
}
