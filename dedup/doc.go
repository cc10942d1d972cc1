// Package dedup guards table extraction against processing the same table
// twice within one job.
//
// A Guard answers a single question: is this the first time the id has been
// seen? Set keeps the answer in memory for a single process. RedisGuard
// shares it across workers through a Redis set keyed by job.
package dedup
