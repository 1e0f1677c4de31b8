package controller

// State is the phase of a single submission attempt.
type State int

const (
	Preparing State = iota
	AnsweringPage
	Advancing
	WaitingResult
	Succeeded
	Blocked
	TimedOut
	Stopped
	// Failed is entered on page driver errors or an unrecognizable form.
	Failed
)

var stateNames = map[State]string{
	Preparing:     "preparing",
	AnsweringPage: "answering-page",
	Advancing:     "advancing",
	WaitingResult: "waiting-result",
	Succeeded:     "succeeded",
	Blocked:       "blocked",
	TimedOut:      "timed-out",
	Stopped:       "stopped",
	Failed:        "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Terminal reports whether an attempt ends in s.
func (s State) Terminal() bool {
	return s >= Succeeded
}
