package unit

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Manifest is the decoded codecgen.manifest section.
type Manifest struct {
	Attributes map[string]string `cbor:"2,keyasint" json:"attributes"`
	Name       string            `cbor:"1,keyasint" json:"name"`
	Codecs     []CodecEntry      `cbor:"3,keyasint" json:"codecs"`
}

// CodecEntry indexes one codec section.
type CodecEntry struct {
	Identity    string `cbor:"1,keyasint" json:"identity"`
	Family      string `cbor:"2,keyasint" json:"family"`
	Layout      string `cbor:"3,keyasint" json:"layout"`
	Shape       string `cbor:"4,keyasint" json:"shape"`
	Fingerprint []byte `cbor:"5,keyasint" json:"fingerprint"`
	Size        int    `cbor:"6,keyasint" json:"size"`
}

// Fingerprint returns the blake3-256 digest of an encoded program.
func Fingerprint(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// maxDecodedCodec bounds the decompressed size of one codec section.
const maxDecodedCodec = 64 << 20

var (
	cborOnce sync.Once
	cborEnc  cbor.EncMode
	cborDec  cbor.DecMode
	cborErr  error

	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func cborModes() (cbor.EncMode, cbor.DecMode, error) {
	cborOnce.Do(func() {
		cborEnc, cborErr = cbor.CoreDetEncOptions().EncMode()
		if cborErr != nil {
			return
		}
		cborDec, cborErr = cbor.DecOptions{}.DecMode()
	})
	return cborEnc, cborDec, cborErr
}

func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedCodec))
	})
	return zstdEnc, zstdDec, zstdErr
}
