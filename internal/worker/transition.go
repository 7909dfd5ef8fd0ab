package worker

import (
	"github.com/tokenvision/inference-be/internal/worker/domain"
)

// Command is a side effect the processor must execute after persisting a
// job's terminal state. Transitions return commands as data instead of
// firing callbacks, so the dispatch outcome and its consequences stay in one
// place.
type Command int

const (
	// CmdRefundDebit credits the admission debit back to the owner.
	CmdRefundDebit Command = iota
	// CmdEnforceRetention applies the per-owner completed-job cap.
	CmdEnforceRetention
)

// Transition is the terminal state of one job attempt plus the side effects
// it requires.
type Transition struct {
	Status   string
	Result   []byte
	ErrorMsg string
	Commands []Command
}

// Decide maps the outcome of a job attempt onto its transition.
//
// An unadmitted job completes with no result and no external call; it still
// counts toward retention, matching how completions have always been
// counted. An admitted job that failed dispatch goes to FAILED and triggers
// compensation. A successful admitted job completes with the service result.
func Decide(job *domain.Job, result []byte, execErr error) Transition {
	if !job.Admitted {
		return Transition{
			Status:   domain.JobStatusCompleted,
			Commands: []Command{CmdEnforceRetention},
		}
	}

	if execErr != nil {
		return Transition{
			Status:   domain.JobStatusFailed,
			ErrorMsg: execErr.Error(),
			Commands: []Command{CmdRefundDebit},
		}
	}

	return Transition{
		Status:   domain.JobStatusCompleted,
		Result:   result,
		Commands: []Command{CmdEnforceRetention},
	}
}
