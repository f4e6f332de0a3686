package metrics

const (
	// StatusSucceed succeed
	StatusSucceed = "succeed"
	// StatusFailed failed
	StatusFailed = "failed"
	// StatusSkipped nothing to do
	StatusSkipped = "skipped"

	// ResultHit cache hit
	ResultHit = "hit"
	// ResultMiss cache miss, loaded from artifacts
	ResultMiss = "miss"

	// SourceStored locks from the stored record
	SourceStored = "stored"
	// SourceParameters locks derived from build parameters
	SourceParameters = "parameters"

	// StatusAdmitted build can be started
	StatusAdmitted = "admitted"
	// StatusWaiting build waits for the locks
	StatusWaiting = "waiting"

	// StateQueued queued builds
	StateQueued = "queued"
	// StateRunning running builds
	StateRunning = "running"
)
