package codec

import (
	"context"

	"github.com/klauspost/compress/s2"
)

// NewCompressedCodec wraps an inner codec with s2 block compression.
// Encode compresses the inner codec's output; Decode decompresses before
// handing the bytes to the inner codec.
func NewCompressedCodec(inner Codec) Codec {
	return &compressedCodecImpl{inner: inner}
}

// compressedCodecImpl implements the Codec interface by compressing the
// byte stream of an inner codec
type compressedCodecImpl struct {
	inner Codec
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (c compressedCodecImpl) Encode(ctx context.Context, value any) ([]byte, error) {
	encoded, err := c.inner.Encode(ctx, value)
	if err != nil {
		return nil, err
	}
	return s2.Encode(nil, encoded), nil
}

func (c compressedCodecImpl) Decode(ctx context.Context, data []byte, dest any) error {
	decoded, err := s2.Decode(nil, data)
	if err != nil {
		return err
	}
	return c.inner.Decode(ctx, decoded, dest)
}
