// Package types defines shared types used across the application.
package types

import "time"

// RunPhase names what a campaign is doing when a RunStatus is emitted.
type RunPhase string

const (
	PhaseStarted   RunPhase = "started"
	PhaseAttempt   RunPhase = "attempt"
	PhaseSubmitted RunPhase = "submitted"
	PhaseWaiting   RunPhase = "waiting"
	PhaseDone      RunPhase = "done"
	PhaseFailed    RunPhase = "failed"
	PhaseStopped   RunPhase = "stopped"
)

// RunStatus represents the progress of a campaign at one point in time.
type RunStatus struct {
	RunID     string    `json:"runId"`
	Phase     RunPhase  `json:"phase"`
	Active    bool      `json:"active"`
	Completed int       `json:"completed"`
	Target    int       `json:"target"`
	LastError string    `json:"lastError,omitempty"`
	NextURL   string    `json:"nextUrl,omitempty"`
	Time      time.Time `json:"time"`
}
