// Package audithook is a task hub extension that bridges worker lifecycle
// events to an audit trail backend.
//
// Every worker and host lifecycle hook emits a structured audit event
// through the [Recorder] interface. Normal transitions are recorded at
// info severity, kills at warning, and faults at critical.
//
// # Usage
//
//	extensions := ext.NewRegistry(logger)
//	extensions.Register(audithook.New(audithook.LogRecorder(auditLogger)))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionWorkerFaulted,
//	        audithook.ActionWorkerKilled,
//	    ),
//	)
package audithook
