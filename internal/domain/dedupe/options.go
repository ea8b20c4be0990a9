package dedupe

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithCapacity pre-sizes the seen set. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > d.hint {
			d.hint = n
		}
	}
}
