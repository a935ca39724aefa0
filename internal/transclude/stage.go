package transclude

// Stage is how far a split has progressed.
type Stage string

const (
	StageNotStarted      Stage = "not_started"
	StageSegmented       Stage = "segmented"
	StagePacked          Stage = "packed"
	StageSubpagesWriting Stage = "subpages_writing"
	StageSubpagesDone    Stage = "subpages_done"
	StageParentRewriting Stage = "parent_rewriting"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

func (s Stage) String() string {
	return string(s)
}
