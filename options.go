package lmdbstore

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/unicode/norm"
)

// KeyErrorPolicy controls how unrepresentable runes in string keys are
// handled by the configured key encoding.
type KeyErrorPolicy int

const (
	// KeyErrorsStrict rejects keys containing runes the encoding cannot
	// represent.
	KeyErrorsStrict KeyErrorPolicy = iota

	// KeyErrorsReplace substitutes the encoding's replacement character
	// for unrepresentable runes.
	KeyErrorsReplace
)

type options struct {
	batchSize     int
	autoflushRead bool

	keyEncoding     encoding.Encoding
	keyEncodingName string
	keyErrors       KeyErrorPolicy
	normalize       bool
	normForm        norm.Form

	mapSize    int64
	maxMapSize int64
	maxReaders int
	readonly   bool
	noSubdir   bool
	noSync     bool

	logger Logger
	codec  Codec
}

type Option func(*options)

// WithBatchSize sets the number of buffered put/delete operations that
// triggers an automatic flush. Defaults to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithAutoflushOnRead controls whether the write buffer is flushed before
// a read that misses the buffer. Enabled by default; disabling it trades
// read consistency for write throughput.
func WithAutoflushOnRead(autoflush bool) Option {
	return func(o *options) {
		o.autoflushRead = autoflush
	}
}

// WithKeyEncoding enables string keys, encoded with the given encoding
// (for example unicode.UTF8 or charmap.ISO8859_1). Without a key encoding
// only []byte keys are accepted.
func WithKeyEncoding(enc encoding.Encoding) Option {
	return func(o *options) {
		o.keyEncoding = enc
		o.keyEncodingName = ""
	}
}

// WithKeyEncodingName enables string keys, resolving the encoding by its
// IANA name ("utf-8", "latin1", ...). Open fails if the name is unknown.
func WithKeyEncodingName(name string) Option {
	return func(o *options) {
		o.keyEncoding = nil
		o.keyEncodingName = name
	}
}

// WithKeyErrorPolicy sets the handling of runes the key encoding cannot
// represent. Defaults to KeyErrorsStrict.
func WithKeyErrorPolicy(p KeyErrorPolicy) Option {
	return func(o *options) {
		o.keyErrors = p
	}
}

// WithNormalization applies the given Unicode normalization form to
// string keys before encoding. No normalization is applied by default.
func WithNormalization(form norm.Form) Option {
	return func(o *options) {
		o.normalize = true
		o.normForm = form
	}
}

// WithMapSize sets the initial map size of the environment in bytes.
// The map grows automatically when it fills.
func WithMapSize(n int64) Option {
	return func(o *options) {
		o.mapSize = n
	}
}

// WithMaxMapSize caps automatic map growth at n bytes. Zero (the default)
// leaves growth unbounded up to platform limits.
func WithMaxMapSize(n int64) Option {
	return func(o *options) {
		o.maxMapSize = n
	}
}

// WithMaxReaders sets the maximum number of simultaneous read
// transactions the environment allows.
func WithMaxReaders(n int) Option {
	return func(o *options) {
		o.maxReaders = n
	}
}

// WithReadonly opens the environment read-only. All mutating store
// operations fail with ErrReadOnly.
func WithReadonly(readonly bool) Option {
	return func(o *options) {
		o.readonly = readonly
	}
}

// WithNoSubdir stores the database in a single file at the given path
// instead of a directory.
func WithNoSubdir(noSubdir bool) Option {
	return func(o *options) {
		o.noSubdir = noSubdir
	}
}

// WithNoSync disables synchronous flushes to disk on commit. Faster, but
// recent transactions may be lost on a crash.
func WithNoSync(noSync bool) Option {
	return func(o *options) {
		o.noSync = noSync
	}
}

// WithLogger replaces the default logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCodec replaces the default value codec.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

func defaultOptions() *options {
	return &options{
		batchSize:     DefaultBatchSize,
		autoflushRead: true,
		keyErrors:     KeyErrorsStrict,
		logger:        defaultLogger(),
		codec:         DefaultCodec,
	}
}
