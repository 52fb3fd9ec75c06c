package cache

// Buckets of the cache database.
const (
	BucketStems = "stems" // namespace \x00 word -> StemRecord
	BucketDocs  = "docs"  // document key -> DocRecord
	BucketMeta  = "meta"  // schema version
	BucketStats = "stats" // run counters, last GC
)

// Keys of the meta and stats buckets.
const (
	KeySchemaVersion = "schema_version"
	KeyLastGC        = "last_gc"
	KeyRunCount      = "run_count"
	keyRunsSinceGC   = "runs_since_gc"
)

// AllBuckets lists every bucket Open creates.
func AllBuckets() []string {
	return []string{BucketStems, BucketDocs, BucketMeta, BucketStats}
}
