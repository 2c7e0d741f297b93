package api

const (
	defaultMaxReportLimit = 100
	defaultMaxBodyBytes   = 32 << 20
)

// Option configures the Server.
type Option func(*options)

type options struct {
	maxReportLimit int
	maxBodyBytes   int64
}

// WithMaxReportLimit caps the limit accepted by GET /reports.
func WithMaxReportLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxReportLimit = n
		}
	}
}

// WithMaxBodyBytes caps the size of uploaded cohorts.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}
