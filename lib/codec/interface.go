package codec

import "context"

// Codec converts typed values to and from the raw bytes a backend stores.
// Codecs are composable: a wrapping codec (compression, encryption) holds an
// inner Codec and transforms the byte stream on the way in and out, so any
// chain of wrappers round-trips transparently regardless of backend.
type Codec interface {
	// Encode serializes a value into a byte slice.
	Encode(ctx context.Context, value any) ([]byte, error)
	// Decode deserializes bytes into the destination, which must be a
	// pointer to a compatible type.
	Decode(ctx context.Context, data []byte, dest any) error
}
