package metrics

import "time"

// Recorder receives domain events worth counting. Labels are plain strings
// so this package stays free of domain imports.
type Recorder interface {
	ObserveStage(stage, result string, d time.Duration)
	IncGenerationRetry(stage string)
	IncGenerationExhausted(stage string)
	IncLedgerFailure()
	IncBuildSubmission(result string)
	IncDeploymentTransition(from, to string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStage(string, string, time.Duration) {}
func (NoopRecorder) IncGenerationRetry(string)                  {}
func (NoopRecorder) IncGenerationExhausted(string)              {}
func (NoopRecorder) IncLedgerFailure()                          {}
func (NoopRecorder) IncBuildSubmission(string)                  {}
func (NoopRecorder) IncDeploymentTransition(string, string)     {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
