/*
Package supervisor restarts failed producers while preserving downstream
continuity.

A Supervisor owns at most one live producer at a time. When the producer
fails, the supervisor records the event, consults its RestartPolicy, and
starts a fresh producer at the failed outcome's cursor, writing to the SAME
output channel. The channel's identity never changes across restarts, so
consumers see at worst a duplicated item, never a broken channel.

	sup, err := supervisor.New(supervisor.Config[string]{
		Source:      src,
		Output:      out,
		Policy:      supervisor.Backoff(supervisor.DefaultBackoffConfig()),
		CloseOnDone: true,
	})
	err = sup.Run(ctx)

Restart policy is pluggable. Immediate() reproduces unconditional immediate
restart; Backoff() adds exponential delay, jitter, and a restart limit.
Producer failures never escape the supervisor; Run only returns an error for
the supervisor's own defects, a fatal source error under StopOnFatal, or an
exhausted restart policy.
*/
package supervisor
