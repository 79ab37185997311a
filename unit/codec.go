package unit

import (
	"bytes"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/internal/binary"
	"github.com/wippyai/codecgen/program"
)

// WebAssembly framing.
const (
	wasmMagic     uint32 = 0x6D736100
	wasmVersion   uint32 = 0x01
	sectionCustom byte   = 0
)

// Custom section names.
const (
	SectionManifest = "codecgen.manifest"
	SectionCodec    = "codecgen.codec"
)

// Manifest returns the manifest Encode would write.
func (u *Unit) Manifest() (*Manifest, error) {
	m, _, err := u.build()
	return m, err
}

// build encodes every program once and derives the manifest from the
// encoded bytes.
func (u *Unit) build() (*Manifest, [][]byte, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	m := &Manifest{
		Name:       u.name,
		Attributes: make(map[string]string, len(u.attrs)),
		Codecs:     make([]CodecEntry, 0, len(u.programs)),
	}
	for k, v := range u.attrs {
		m.Attributes[k] = v
	}

	encoded := make([][]byte, len(u.programs))
	for i, p := range u.programs {
		data, err := p.MarshalBinary()
		if err != nil {
			return nil, nil, err
		}
		encoded[i] = data
		m.Codecs = append(m.Codecs, CodecEntry{
			Identity:    p.Identity,
			Family:      p.Family.String(),
			Layout:      p.Layout.String(),
			Shape:       p.Shape,
			Fingerprint: Fingerprint(data),
			Size:        len(data),
		})
	}
	return m, encoded, nil
}

// Encode returns the artifact bytes. The output is deterministic for a given
// set of attributes and programs.
func (u *Unit) Encode() ([]byte, error) {
	m, encoded, err := u.build()
	if err != nil {
		return nil, err
	}

	enc, _, err := cborModes()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseFinalize, errors.KindInvalidArgument, err, "cbor mode")
	}
	manifest, err := enc.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseFinalize, errors.KindInvalidData, err, "encode manifest")
	}

	compress := m.Attributes[AttrCompression] == CompressionZstd
	w := binary.NewWriter()
	w.WriteU32LE(wasmMagic)
	w.WriteU32LE(wasmVersion)
	writeCustomSection(w, SectionManifest, manifest)

	for _, data := range encoded {
		if compress {
			zenc, _, err := zstdCodec()
			if err != nil {
				return nil, errors.Wrap(errors.PhaseFinalize, errors.KindInvalidArgument, err, "zstd encoder")
			}
			data = zenc.EncodeAll(data, nil)
		}
		writeCustomSection(w, SectionCodec, data)
	}
	return bytes.Clone(w.Bytes()), nil
}

func writeCustomSection(w *binary.Writer, name string, data []byte) {
	sec := binary.NewWriter()
	sec.WriteName(name)
	sec.WriteBytes(data)

	w.Byte(sectionCustom)
	w.WriteU32(uint32(sec.Len()))
	w.WriteBytes(sec.Bytes())
}

type section struct {
	name string
	data []byte
}

func readSections(data []byte) ([]section, error) {
	r := binary.NewReader(data)
	magic, err := r.ReadU32LE()
	if err != nil || magic != wasmMagic {
		return nil, errors.InvalidData(errors.PhaseLoad, nil, "not a WebAssembly binary")
	}
	version, err := r.ReadU32LE()
	if err != nil || version != wasmVersion {
		return nil, errors.InvalidData(errors.PhaseLoad, nil, "unsupported WebAssembly version")
	}

	var out []section
	for r.Remaining() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, loadErr(r, "section id", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, loadErr(r, "section size", err)
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, loadErr(r, "section data", err)
		}
		if id != sectionCustom {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Detail("unexpected section id %d at offset %d", id, r.Position()).
				Build()
		}

		sr := binary.NewReader(body)
		name, err := sr.ReadName()
		if err != nil {
			return nil, loadErr(r, "custom section name", err)
		}
		rest, _ := sr.ReadBytes(sr.Remaining())
		out = append(out, section{name: name, data: rest})
	}
	return out, nil
}

func loadErr(r *binary.Reader, what string, cause error) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Detail("%s at offset %d", what, r.Position()).
		Cause(cause).
		Build()
}

// ReadManifest decodes only the manifest of an artifact.
func ReadManifest(data []byte) (*Manifest, error) {
	sections, err := readSections(data)
	if err != nil {
		return nil, err
	}
	return decodeManifest(sections)
}

func decodeManifest(sections []section) (*Manifest, error) {
	if len(sections) == 0 || sections[0].name != SectionManifest {
		return nil, errors.InvalidData(errors.PhaseLoad, nil, "artifact has no leading "+SectionManifest+" section")
	}
	_, dec, err := cborModes()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidArgument, err, "cbor mode")
	}
	var m Manifest
	if err := dec.Unmarshal(sections[0].data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "decode manifest")
	}
	if m.Attributes == nil {
		m.Attributes = map[string]string{}
	}
	return &m, nil
}

// Decode parses an artifact produced by Encode.
func Decode(data []byte) (*Unit, error) {
	sections, err := readSections(data)
	if err != nil {
		return nil, err
	}
	m, err := decodeManifest(sections)
	if err != nil {
		return nil, err
	}

	u, err := New(m.Name)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "manifest name")
	}
	for k, v := range m.Attributes {
		u.attrs[k] = v
	}

	codecs := sections[1:]
	if len(codecs) != len(m.Codecs) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Detail("manifest lists %d codecs, artifact has %d sections", len(m.Codecs), len(codecs)).
			Build()
	}

	compressed := m.Attributes[AttrCompression] == CompressionZstd
	for i, sec := range codecs {
		entry := m.Codecs[i]
		if sec.name != SectionCodec {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{entry.Identity}, "unexpected section "+sec.name)
		}

		raw := sec.data
		if compressed {
			_, zdec, err := zstdCodec()
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidArgument, err, "zstd decoder")
			}
			if raw, err = zdec.DecodeAll(sec.data, nil); err != nil {
				return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
					Path(entry.Identity).
					Detail("decompress codec section").
					Cause(err).
					Build()
			}
		}

		if !bytes.Equal(Fingerprint(raw), entry.Fingerprint) {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{entry.Identity}, "codec fingerprint mismatch")
		}

		p := &program.Program{}
		if err := p.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
		if p.Identity != entry.Identity {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{entry.Identity}, "codec identity differs from manifest: "+p.Identity)
		}
		if err := u.Append(p); err != nil {
			return nil, err
		}
	}
	return u, nil
}
