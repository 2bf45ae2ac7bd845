package experiment

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

const (
	EventStart    = "start"
	EventComplete = "complete"
	EventFail     = "fail"
)

// NewFSM builds the lifecycle state machine for one experiment:
// pending -> running -> completed | failed. Terminal states define no
// outgoing events, so firing anything on them returns an error and the
// stored state never regresses. Transitions mutate the experiment in place.
func (e *Experiment) NewFSM() *fsm.FSM {
	return fsm.NewFSM(
		e.State.String(),
		fsm.Events{
			{Name: EventStart, Src: []string{Pending.String()}, Dst: Running.String()},
			{Name: EventComplete, Src: []string{Running.String()}, Dst: Completed.String()},
			{Name: EventFail, Src: []string{Pending.String(), Running.String()}, Dst: Failed.String()},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				st, err := ParseState(ev.Dst)
				if err != nil {
					return
				}
				e.State = st
				e.UpdatedAt = time.Now()
			},
		},
	)
}
