package codec

import (
	"context"
	"encoding/json"
)

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() Codec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the Codec interface using json encoding
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Encode(_ context.Context, value any) ([]byte, error) {
	return json.Marshal(value)
}

func (j jsonCodecImpl) Decode(_ context.Context, data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
