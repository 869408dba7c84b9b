package dist

import (
	"time"
)

// Actor identifies the machine and user a run was performed by.
type Actor struct {
	// Hostname is the machine name the scenario ran on.
	Hostname string `yaml:"hostname"`
	// Username is the system user that ran the scenario.
	Username string `yaml:"username"`
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Outcome is the final state of a run.
type Outcome string

// Run outcomes.
const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// Check is one verified step of a run.
type Check struct {
	// Name is a short label for the step.
	Name string `yaml:"name"`
	// Command is what was executed, empty for lifecycle steps.
	Command string `yaml:"command,omitempty"`
	// Expected describes what the step required.
	Expected string `yaml:"expected,omitempty"`
	// Actual is what the step observed.
	Actual string `yaml:"actual,omitempty"`
	// Passed is true when the expectation held.
	Passed bool `yaml:"passed"`
	// Error holds the failure message of a failed step.
	Error string `yaml:"error,omitempty"`
	// Duration is how long the step took.
	Duration time.Duration `yaml:"duration"`
}

// Report collects every step of a run.
type Report struct {
	Provider   string    `yaml:"provider"`
	Versions   Versions  `yaml:"versions"`
	Actor      *Actor    `yaml:"actor,omitempty"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Outcome    Outcome   `yaml:"outcome"`
	Checks     []Check   `yaml:"checks"`
}

// NewReport starts a report for provider and versions.
func NewReport(provider string, versions Versions, actor *Actor) *Report {
	return &Report{
		Provider:  provider,
		Versions:  versions,
		Actor:     actor.Clone(),
		StartedAt: time.Now().UTC(),
	}
}

// Add appends a step.
func (r *Report) Add(check Check) {
	r.Checks = append(r.Checks, check)
}

// Finish stamps the end time and derives the outcome from the recorded steps.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
	r.Outcome = OutcomePassed

	if r.Failed() > 0 {
		r.Outcome = OutcomeFailed
	}
}

// Failed counts failed steps.
func (r *Report) Failed() int {
	failed := 0

	for _, c := range r.Checks {
		if !c.Passed {
			failed++
		}
	}

	return failed
}
