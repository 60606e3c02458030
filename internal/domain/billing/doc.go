// Package billing holds the usage-ledger domain model: durable per-user,
// per-period counters for metered operations. Counters are only ever mutated
// inside the owning user's critical section; the application layer is
// responsible for that serialization.
package billing
