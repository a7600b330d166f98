// Package task defines the engine-facing task model consumed by the
// dispatch pipeline: the scheduled-event and runtime-state facts the engine
// supplies per dispatch, the Activity and Orchestration contracts, the Base
// capability that receives name, version, logger and data converter before
// execution, and a Registry of name+version keyed task factories.
//
// Capabilities are detected once when a task is registered and recorded on
// its Descriptor, so dispatch-time code never type-switches on task values.
package task
