package pipeline

// Phase identifies the part of a run a step belongs to, or where a run failed.
type Phase string

const (
	PhaseUnset       Phase = ""
	PhaseExtract     Phase = "extract"
	PhaseTransform   Phase = "transform"
	PhaseQualityGate Phase = "quality_gate"
	PhaseLoad        Phase = "load"
)

func (p Phase) String() string {
	if p == PhaseUnset {
		return "unset"
	}
	return string(p)
}

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)
