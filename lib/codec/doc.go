// Package codec provides value serialization for the client core.
//
// Three base codecs are available (JSON, gob, YAML), plus two composable
// wrappers that transform the byte stream of an inner codec:
//
//   - NewCompressedCodec: s2 block compression
//   - NewEncryptedCodec: AES-256-GCM authenticated encryption
//
// Wrappers nest arbitrarily, e.g. encrypt(compress(json)) builds a codec
// that serializes to JSON, compresses the result, and encrypts the
// compressed bytes.
package codec
