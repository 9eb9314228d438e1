package codec

import (
	"bytes"
	"context"
	"encoding/gob"
)

// NewGOBCodec creates a new codec using gob encoding
func NewGOBCodec() Codec {
	return &gobCodecImpl{}
}

// gobCodecImpl implements the Codec interface using gob encoding
type gobCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (g gobCodecImpl) Encode(_ context.Context, value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobCodecImpl) Decode(_ context.Context, data []byte, dest any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(dest)
}
