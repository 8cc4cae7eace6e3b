package mariadb

import (
	"time"

	"github.com/sirupsen/logrus"
)

// options configures connections and the result sets they produce.
type options struct {
	log            logrus.FieldLogger
	location       *time.Location // location of DATE/DATETIME/TIMESTAMP values
	connectTimeout time.Duration
	readTimeout    time.Duration
	libraryPath    string
}

// Option configures a Conn or a ResultSet
type Option func(*options)

// WithLogger sets the logger used for debug output. The default is the
// logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithLocation sets the time zone DATE, DATETIME and TIMESTAMP values are
// interpreted in (defaults to UTC).
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithConnectTimeout bounds connection establishment. A value of 0 keeps
// the client library default.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

// WithReadTimeout bounds each blocking read from the server, including
// fetches. A value of 0 means no timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithLibraryPath sets the client library to load. It only takes effect
// for the first connection of the process.
func WithLibraryPath(path string) Option {
	return func(o *options) {
		o.libraryPath = path
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:      logrus.StandardLogger(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	if o.location == nil {
		o.location = time.UTC
	}
	return o
}
