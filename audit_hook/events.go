package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionWorkerStarting = "worker.starting"
	ActionWorkerStarted  = "worker.started"
	ActionWorkerStopping = "worker.stopping"
	ActionWorkerKilled   = "worker.killed"
	ActionWorkerStopped  = "worker.stopped"
	ActionWorkerFaulted  = "worker.faulted"
	ActionPipelineBuilt  = "pipeline.built"
	ActionHostShutdown   = "host.shutdown"
)

// Audit event categories group related actions.
const (
	CategoryWorker   = "taskhub.worker"
	CategoryPipeline = "taskhub.pipeline"
	CategoryHost     = "taskhub.host"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceWorker   = "worker"
	ResourcePipeline = "pipeline"
	ResourceHost     = "host"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionWorkerStarting,
		ActionWorkerStarted,
		ActionWorkerStopping,
		ActionWorkerKilled,
		ActionWorkerStopped,
		ActionWorkerFaulted,
		ActionPipelineBuilt,
		ActionHostShutdown,
	}
}
