package estimator

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithParallelism bounds how many row chunks are patched concurrently.
// Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLenient drops rows that fail to patch and reports them instead of
// failing the whole cohort.
func WithLenient(lenient bool) Option {
	return func(e *Estimator) {
		e.lenient = lenient
	}
}

// WithMinChunk sets the smallest number of rows handed to one goroutine.
func WithMinChunk(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.minChunk = n
		}
	}
}
