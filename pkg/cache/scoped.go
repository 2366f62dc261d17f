package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments (staging and production CMS, say) can share one Redis without
// seeing each other's entries.
//
//	staging := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix. A nil inner keyer
// means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey implements Keyer.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ItemsKey implements Keyer.
func (k *ScopedKeyer) ItemsKey(kind, location string) string {
	return k.prefix + k.inner.ItemsKey(kind, location)
}

// WorldKey implements Keyer.
func (k *ScopedKeyer) WorldKey(itemsHash string, opts WorldKeyOpts) string {
	return k.prefix + k.inner.WorldKey(itemsHash, opts)
}
