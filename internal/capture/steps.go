package capture

// Wizard steps in display order.
const (
	StepClient = iota
	StepProperty
	StepRooms
	StepPhotos
	StepPrompts
	StepReview
	StepGenerate

	StepCount = StepGenerate + 1
)

var stepNames = [StepCount]string{"client", "property", "rooms", "photos", "prompts", "review", "generate"}

func StepName(n int) string { return stepNames[clampStep(n)] }

func clampStep(n int) int {
	if n < 0 {
		return 0
	}
	if n >= StepCount {
		return StepCount - 1
	}
	return n
}

func (s *Session) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStep
}

// SetStep never refuses; whether the user may proceed is the caller's decision.
func (s *Session) SetStep(n int) int {
	var out int
	_ = s.mutate(func() error {
		s.currentStep = clampStep(n)
		out = s.currentStep
		return nil
	})
	return out
}

func (s *Session) NextStep() int {
	var out int
	_ = s.mutate(func() error {
		s.currentStep = clampStep(s.currentStep + 1)
		out = s.currentStep
		return nil
	})
	return out
}

func (s *Session) PrevStep() int {
	var out int
	_ = s.mutate(func() error {
		s.currentStep = clampStep(s.currentStep - 1)
		out = s.currentStep
		return nil
	})
	return out
}
