package cache

// ScopedKeyer wraps a Keyer with a prefix, so several projects can share one
// Redis instance without seeing each other's results.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:gtnh:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DatasetKey generates a prefixed dataset key.
func (k *ScopedKeyer) DatasetKey(inputsHash string, opts DatasetKeyOpts) string {
	return k.prefix + k.inner.DatasetKey(inputsHash, opts)
}
