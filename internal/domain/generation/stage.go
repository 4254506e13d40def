package generation

// Stage names one step of the orchestration state machine. Within a
// request the stages are strictly sequential; a request terminates either
// at StageDone or at the stage where it was rejected or failed.
type Stage string

const (
	StageAdmitted          Stage = "admitted"
	StageSafetyChecked     Stage = "safety_checked"
	StageBackendInvoked    Stage = "backend_invoked"
	StageArtifactPersisted Stage = "artifact_persisted"
	StageUsageCommitted    Stage = "usage_committed"
	StageDone              Stage = "done"
	StageRejected          Stage = "rejected"
)
