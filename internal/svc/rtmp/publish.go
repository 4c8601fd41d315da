// If you are AI: This file holds the ingest-side tuning defaults for
// publisher sessions: how much GOP history each live stream retains.

package rtmp

// defaultMaxGops bounds how many completed GOPs a freshly claimed
// Publisher retains for late-joining viewer replay.
const defaultMaxGops = 3

// defaultMaxCacheBytes bounds the GOP cache's total buffered size,
// evicting the oldest GOP first once exceeded.
const defaultMaxCacheBytes = 16 * 1024 * 1024
