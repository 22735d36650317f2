// Package flow defines the conversational state machine vocabulary and the
// step handler registry the bot dispatches on.
package flow

// Flow names a multi-step conversation.
type Flow string

// Step names a position inside a flow.
type Step string

const (
	FlowIdle           Flow = "idle"
	FlowRegistration   Flow = "registration"
	FlowCreateHomework Flow = "createHomework"
	FlowSendHomework   Flow = "sendHomework"
	FlowNotifyStudents Flow = "notifyStudents"
)

const (
	StepIdle Step = "idle"

	// registration
	StepNotifyOfRegister Step = "notifyOfRegister"
	StepEnterName        Step = "enterName"
	StepConfirmName      Step = "confirmName"
	StepEnterEmail       Step = "enterEmail"
	StepConfirmEmail     Step = "confirmEmail"
	StepGetClassNumber   Step = "getClassNumber"
	StepGetClassLetter   Step = "getClassLetter"

	// createHomework
	StepReadName      Step = "readName"
	StepEnterDeadline Step = "enterDeadline"

	// sendHomework
	StepReadHomework Step = "readHomework"

	// notifyStudents
	StepNotifyInit Step = "notifyStudents_init"
	StepEnterText  Step = "notifyStudents_enterText"
)

// Terminal step tokens. Returning one of these from a handler triggers the
// matching completion procedure and resets the session.
const (
	StepRegistrationDone   Step = "registration_done"
	StepCreateHomeworkDone Step = "createHomework_done"
	StepSendHomeworkDone   Step = "sendHomework_done"
	StepNotifyStudentsDone Step = "notifyStudents_done"
)

// IsTerminal reports whether the step token ends its flow.
func (s Step) IsTerminal() bool {
	switch s {
	case StepRegistrationDone, StepCreateHomeworkDone, StepSendHomeworkDone, StepNotifyStudentsDone:
		return true
	}
	return false
}

// AppState is the per-user persisted conversation position plus the data
// the flow accumulated so far.
type AppState struct {
	CurrentFlow Flow           `json:"currentFlow"`
	Step        Step           `json:"step"`
	Data        map[string]any `json:"data"`
}

// NewIdleState returns the resting state of a known user.
func NewIdleState() *AppState {
	return &AppState{CurrentFlow: FlowIdle, Step: StepIdle, Data: map[string]any{}}
}

// NewRegistrationState returns the entry state for an unknown identity.
func NewRegistrationState() *AppState {
	return &AppState{
		CurrentFlow: FlowRegistration,
		Step:        StepNotifyOfRegister,
		Data:        map[string]any{},
	}
}

// Reset puts the state back to idle and clears accumulated data.
func (s *AppState) Reset() {
	s.CurrentFlow = FlowIdle
	s.Step = StepIdle
	s.Data = map[string]any{}
}

// String returns a string value from the flow data.
func (s *AppState) String(key string) string {
	v, _ := s.Data[key].(string)
	return v
}

// Int64 returns a numeric value from the flow data. JSON round-trips
// numbers as float64, so both representations are accepted.
func (s *AppState) Int64(key string) int64 {
	switch v := s.Data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
