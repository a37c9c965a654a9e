/*
Package workers sizes and bounds the pool of concurrent pipeline runs.

# Sizing

In containers the CPU count reported by runtime.NumCPU is the host's, not
the cgroup limit. GOMAXPROCS follows the limit, so Count and its helpers
derive worker counts from it:

	// one run per available CPU, never more than MAX_CONCURRENT_RUNS
	n := workers.ForCPU(cfg.MaxConcurrentRuns)

A detection run decodes, infers and encodes on the CPU, so the runner uses
ForCPU. ForIO exists for helpers that mostly wait on disk or network.

# Environment Variable Override

PIPELINE_WORKERS fixes the count regardless of GOMAXPROCS. The limit passed
by the caller still applies:

	env:
	- name: PIPELINE_WORKERS
	  value: "1"

# Slots

Slots is a channel-backed semaphore. Acquire honours context cancellation
so a caller waiting for capacity can give up:

	slots := workers.NewSlots(n)
	if err := slots.Acquire(ctx); err != nil {
		return err
	}
	defer slots.Release()
*/
package workers
