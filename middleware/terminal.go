package middleware

import "context"

// RunActivity is the default activity terminal. It runs the activity
// instance on the scheduled input and stores the result under OutputKey.
func RunActivity(ctx context.Context, dc *DispatchContext) error {
	ev, err := Get(dc, ScheduledEventKey)
	if err != nil {
		return err
	}
	inst, err := Get(dc, ActivityKey)
	if err != nil {
		return err
	}
	out, err := inst.Value.Run(ctx, ev.Input)
	if err != nil {
		return err
	}
	Set(dc, OutputKey, out)
	return nil
}

// RunOrchestration is the default orchestration terminal.
func RunOrchestration(ctx context.Context, dc *DispatchContext) error {
	state, err := Get(dc, RuntimeStateKey)
	if err != nil {
		return err
	}
	inst, err := Get(dc, OrchestrationKey)
	if err != nil {
		return err
	}
	out, err := inst.Value.Run(ctx, state, state.Input)
	if err != nil {
		return err
	}
	Set(dc, OutputKey, out)
	return nil
}
