package constants

// JobStatus is the canonical status for rows in extraction_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued     JobStatus = "QUEUED"     // accepted, waiting for a worker
	JobStatusProcessing JobStatus = "PROCESSING" // stage sequence in progress
	JobStatusComplete   JobStatus = "COMPLETE"   // all applicable stages finished
	JobStatusFailed     JobStatus = "FAILED"     // terminal until retried (or retry budget exhausted)
)

// MaxRetries caps caller-issued retries per job. The 4th attempt is refused
// and the artifact must be re-uploaded.
const MaxRetries = 3

// Terminal reports whether a status accepts no further transitions except
// an explicit retry.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// JobStage is one named unit of LLM-backed extraction work.
type JobStage string

const (
	StageClassification    JobStage = "CLASSIFICATION"
	StageExtraction        JobStage = "EXTRACTION"
	StageGeneralExtraction JobStage = "GENERAL_EXTRACTION"
	StagePopulation        JobStage = "POPULATION"
)

var allStages = []JobStage{
	StageClassification,
	StageExtraction,
	StageGeneralExtraction,
	StagePopulation,
}

// ValidStage reports whether s is a member of the closed stage set.
// Used to reject bad fromStage overrides before touching the store.
func ValidStage(s JobStage) bool {
	for _, st := range allStages {
		if st == s {
			return true
		}
	}
	return false
}

// EngagementStatus tracks overall design-week progress. Auto-detection only
// ever moves this forward; COMPLETE is frozen.
type EngagementStatus string

const (
	EngagementNotStarted     EngagementStatus = "NOT_STARTED"
	EngagementInProgress     EngagementStatus = "IN_PROGRESS"
	EngagementPendingSignoff EngagementStatus = "PENDING_SIGNOFF"
	EngagementComplete       EngagementStatus = "COMPLETE"
)

// statusRank orders engagement statuses for the never-downgrade rule.
var statusRank = map[EngagementStatus]int{
	EngagementNotStarted:     0,
	EngagementInProgress:     1,
	EngagementPendingSignoff: 2,
	EngagementComplete:       3,
}

// StatusRank returns the forward-progress rank of an engagement status.
// Unknown statuses rank lowest so they can never displace a known one.
func StatusRank(s EngagementStatus) int {
	return statusRank[s]
}
