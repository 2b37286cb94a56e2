package lmdbstore

const (
	// DefaultBatchSize is the number of buffered operations that triggers
	// an automatic flush.
	DefaultBatchSize = 1000

	// growthStep is the minimum amount the map grows by on a full map,
	// when doubling would grow it by less.
	growthStep = 64 << 20
)

// DefaultCodec is used when no codec is configured with WithCodec.
var DefaultCodec Codec = MsgpackCodec{}
