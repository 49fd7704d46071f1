package orchestrator

import "github.com/rs/zerolog"

// State is a step of the tool-calling turn
type State int

const (
	StateStart State = iota
	StateAwaitFirstCompletion
	StateToolsRequested
	StateExecutingTools
	StateAwaitFinalCompletion
	StateDirectAnswer
	StateDone
)

var stateNames = map[State]string{
	StateStart:                "start",
	StateAwaitFirstCompletion: "await_first_completion",
	StateToolsRequested:       "tools_requested",
	StateExecutingTools:       "executing_tools",
	StateAwaitFinalCompletion: "await_final_completion",
	StateDirectAnswer:         "direct_answer",
	StateDone:                 "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// allowed transitions; anything else is a programming error
var transitions = map[State][]State{
	StateStart:                {StateAwaitFirstCompletion},
	StateAwaitFirstCompletion: {StateToolsRequested, StateDirectAnswer, StateDone},
	StateToolsRequested:       {StateExecutingTools},
	StateExecutingTools:       {StateAwaitFinalCompletion},
	StateAwaitFinalCompletion: {StateDone},
	StateDirectAnswer:         {StateDone},
}

type stateMachine struct {
	current State
	logger  zerolog.Logger
}

func newStateMachine(logger zerolog.Logger) *stateMachine {
	return &stateMachine{current: StateStart, logger: logger}
}

func (m *stateMachine) to(next State) {
	valid := false
	for _, s := range transitions[m.current] {
		if s == next {
			valid = true
			break
		}
	}
	if !valid {
		panic("orchestrator: invalid transition " + m.current.String() + " -> " + next.String())
	}

	m.logger.Debug().Str("from", m.current.String()).Str("to", next.String()).Msg("Turn state changed")
	m.current = next
}
