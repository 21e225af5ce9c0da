// Package worker drives enrichment jobs from the queue through metadata
// verification. A manager claims pending jobs, runs each verification under
// a per-job timeout, and applies the failure taxonomy: permanent failures
// finish the job immediately, transient failures requeue it with exponential
// backoff until the attempt budget runs out, and store failures stop the
// worker loop.
package worker
