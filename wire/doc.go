// Package wire is the boundary between generated codecs and the MessagePack
// byte stream.
//
// The framing rules themselves (how an integer, a string or an array header is
// laid out) belong to github.com/vmihailenco/msgpack/v5. This package fixes the
// encoder configuration every codec in the module shares and defines the two
// interfaces the rest of the module is built on:
//
//	Codec     - encodes a reflect.Value to an Encoder, decodes from a Decoder
//	Resolver  - yields the Codec for a Go type, used for nested members
//
// Encoders use compact integer and float encoding and sorted map keys, so the
// same logical value always produces identical bytes.
//
// For buffer-oriented operations:
//
//	data, err := wire.Marshal(codec, reflect.ValueOf(v))
//	err = wire.Unmarshal(codec, data, reflect.ValueOf(&v).Elem())
//
// For stream-oriented operations:
//
//	enc := wire.NewEncoder(conn)
//	dec := wire.NewDecoder(conn)
package wire
