package orchestrator

import (
	"time"
)

type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageDone    StageStatus = "done"
	StageError   StageStatus = "error"
)

func (s StageStatus) Terminal() bool { return s == StageDone || s == StageError }

type StageState struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Status     StageStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	Attempts   int         `json:"attempts"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

func (s StageState) copy() StageState {
	if s.StartedAt != nil {
		t := *s.StartedAt
		s.StartedAt = &t
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		s.FinishedAt = &t
	}
	return s
}

func markStarted(ss *StageState, now time.Time) {
	ss.Status = StageRunning
	ss.Attempts++
	ss.Error = ""
	ss.StartedAt = &now
	ss.FinishedAt = nil
}

func markFinished(ss *StageState, now time.Time, err error) {
	ss.FinishedAt = &now
	if err != nil {
		ss.Status = StageError
		ss.Error = err.Error()
		return
	}
	ss.Status = StageDone
	ss.Error = ""
}
