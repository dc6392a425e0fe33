package cache

// NullCache is a Cache that never stores anything. It is used when caching
// is disabled, so callers never need a nil check.
type NullCache struct{}

var _ Cache = NullCache{}

func (NullCache) Bucket(string) Bucket { return nullBucket{} }

func (NullCache) RawBucket(string) Bucket { return nullBucket{} }

type nullBucket struct{}

func (nullBucket) Get(string, string) ([]byte, bool) { return nil, false }

func (nullBucket) Set(string, string, []byte) {}
