package codec

import (
	"context"

	"gopkg.in/yaml.v3"
)

// NewYAMLCodec creates a new codec using yaml encoding
func NewYAMLCodec() Codec {
	return &yamlCodecImpl{}
}

// yamlCodecImpl implements the Codec interface using yaml encoding
type yamlCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (y yamlCodecImpl) Encode(_ context.Context, value any) ([]byte, error) {
	return yaml.Marshal(value)
}

func (y yamlCodecImpl) Decode(_ context.Context, data []byte, dest any) error {
	return yaml.Unmarshal(data, dest)
}
