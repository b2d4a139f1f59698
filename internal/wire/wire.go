// Package wire implements the binary Definition codec: a
// fixed "kitoken" magic and two version bytes, followed by a
// protowire-encoded payload. The package works entirely in terms of its own
// mirror types (Definition, Model, Token, ...); the root package converts to
// and from kitoken.Definition around a call to Encode/Decode.
package wire

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Magic is the fixed 7-byte header identifying a kitoken wire payload.
var Magic = [7]byte{'k', 'i', 't', 'o', 'k', 'e', 'n'}

// Version is the current wire format version, written as two bytes.
var Version = [2]byte{0x00, 0x00}

// ErrBadMagic is returned by Decode when the header's magic bytes don't
// match Magic.
var ErrBadMagic = errors.New("wire: bad magic")

// ErrBadVersion is returned by Decode when the header's version bytes don't
// match a supported Version.
var ErrBadVersion = errors.New("wire: unsupported version")

// ErrTruncated is returned by Decode when the payload ends before a field
// it started reading.
var ErrTruncated = errors.New("wire: truncated payload")

// ModelKind mirrors kitoken.ModelKind.
type ModelKind uint8

const (
	ModelBytePair ModelKind = iota
	ModelUnigram
	ModelWordPiece
)

// Token mirrors kitoken.Token.
type Token struct {
	ID    uint32
	Bytes []byte
}

// Model mirrors kitoken.Model.
type Model struct {
	Kind         ModelKind
	Vocab        []Token
	Chars        bool
	Scores       []float32
	MaxWordChars uint32
}

// SpecialKind mirrors kitoken.SpecialTokenKind.
type SpecialKind uint8

const (
	SpecialUnknown SpecialKind = iota
	SpecialControl
	SpecialPriority
)

// Special mirrors kitoken.SpecialToken.
type Special struct {
	ID      uint32
	Bytes   []byte
	Kind    SpecialKind
	Ident   string
	Score   float32
	Extract bool
}

// KeyValue mirrors kitoken.KeyValue.
type KeyValue struct {
	Key, Value string
}

// Metadata mirrors kitoken.Metadata.
type Metadata struct {
	Version string
	Source  string
	Meta    []KeyValue
}

// Normalization mirrors kitoken.Normalization (field meanings per step Kind;
// unused fields for a given Kind are simply zero).
type Normalization struct {
	Kind        uint8
	Scheme      uint8
	Upper       bool
	Text        string
	Character   int32
	Left, Right uint32
	Pad         bool
	Pattern     string
	Replacement string
}

// Split mirrors kitoken.Split.
type Split struct {
	Kind      uint8
	Pattern   string
	Character int32
	Behavior  uint8
}

// Processing mirrors kitoken.Processing.
type Processing struct {
	Kind      uint8
	ID        uint32
	Left      uint32
	Right     uint32
	Length    uint32
	Stride    uint32
	Direction uint8
}

// Decoding mirrors kitoken.Decoding.
type Decoding struct {
	Kind        uint8
	Character   int32
	Left        uint32
	Right       uint32
	Pad         bool
	Pattern     string
	Replacement string
}

// Template mirrors kitoken.Template.
type Template struct {
	Content  string
	Position uint8
}

// Configuration mirrors kitoken.Configuration.
type Configuration struct {
	Normalization []Normalization
	Split         []Split
	Fallback      []uint8
	Processing    []Processing
	Decoding      []Decoding
	Templates     []Template
}

// Definition mirrors kitoken.Definition.
type Definition struct {
	Meta     Metadata
	Model    Model
	Specials []Special
	Config   Configuration
}

// Definition field numbers.
const (
	fieldMeta     = 1
	fieldModel    = 2
	fieldSpecials = 3
	fieldConfig   = 4
)

// Metadata field numbers.
const (
	fieldMetaVersion = 1
	fieldMetaSource  = 2
	fieldMetaPair    = 3
)

// KeyValue field numbers.
const (
	fieldKVKey   = 1
	fieldKVValue = 2
)

// Model field numbers.
const (
	fieldModelKind         = 1
	fieldModelVocab        = 2
	fieldModelScores       = 3
	fieldModelChars        = 4
	fieldModelMaxWordChars = 5
)

// Token field numbers.
const (
	fieldTokenID    = 1
	fieldTokenBytes = 2
)

// Special field numbers.
const (
	fieldSpecialID      = 1
	fieldSpecialBytes   = 2
	fieldSpecialKind    = 3
	fieldSpecialIdent   = 4
	fieldSpecialScore   = 5
	fieldSpecialExtract = 6
)

// Configuration field numbers.
const (
	fieldCfgNormalization = 1
	fieldCfgSplit         = 2
	fieldCfgFallback      = 3
	fieldCfgProcessing    = 4
	fieldCfgDecoding      = 5
	fieldCfgTemplates     = 6
)

// Normalization field numbers.
const (
	fieldNormKind        = 1
	fieldNormScheme      = 2
	fieldNormUpper       = 3
	fieldNormText        = 4
	fieldNormCharacter   = 5
	fieldNormLeft        = 6
	fieldNormRight       = 7
	fieldNormPad         = 8
	fieldNormPattern     = 9
	fieldNormReplacement = 10
)

// Split field numbers.
const (
	fieldSplitKind      = 1
	fieldSplitPattern   = 2
	fieldSplitCharacter = 3
	fieldSplitBehavior  = 4
)

// Processing field numbers.
const (
	fieldProcKind      = 1
	fieldProcID        = 2
	fieldProcLeft      = 3
	fieldProcRight     = 4
	fieldProcLength    = 5
	fieldProcStride    = 6
	fieldProcDirection = 7
)

// Decoding field numbers.
const (
	fieldDecKind        = 1
	fieldDecCharacter   = 2
	fieldDecLeft        = 3
	fieldDecRight       = 4
	fieldDecPad         = 5
	fieldDecPattern     = 6
	fieldDecReplacement = 7
)

// Template field numbers.
const (
	fieldTplContent  = 1
	fieldTplPosition = 2
)

func appendTagVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendTagBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendTagString(b []byte, num protowire.Number, v string) []byte {
	return appendTagBytes(b, num, []byte(v))
}

func appendTagFixed32(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, v)
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Encode serializes def to the full wire byte stream: magic, version,
// payload.
func Encode(def Definition) []byte {
	out := make([]byte, 0, 7+2+64)
	out = append(out, Magic[:]...)
	out = append(out, Version[:]...)
	out = appendTagBytes(out, fieldMeta, encodeMetadata(def.Meta))
	out = appendTagBytes(out, fieldModel, encodeModel(def.Model))
	for _, sp := range def.Specials {
		out = appendTagBytes(out, fieldSpecials, encodeSpecial(sp))
	}
	out = appendTagBytes(out, fieldConfig, encodeConfig(def.Config))
	return out
}

func encodeMetadata(m Metadata) []byte {
	var b []byte
	b = appendTagString(b, fieldMetaVersion, m.Version)
	b = appendTagString(b, fieldMetaSource, m.Source)
	for _, kv := range m.Meta {
		var pair []byte
		pair = appendTagString(pair, fieldKVKey, kv.Key)
		pair = appendTagString(pair, fieldKVValue, kv.Value)
		b = appendTagBytes(b, fieldMetaPair, pair)
	}
	return b
}

func encodeModel(m Model) []byte {
	var b []byte
	b = appendTagVarint(b, fieldModelKind, uint64(m.Kind))
	for _, t := range m.Vocab {
		var tok []byte
		tok = appendTagVarint(tok, fieldTokenID, uint64(t.ID))
		tok = appendTagBytes(tok, fieldTokenBytes, t.Bytes)
		b = appendTagBytes(b, fieldModelVocab, tok)
	}
	for _, s := range m.Scores {
		b = appendTagFixed32(b, fieldModelScores, float32ToBits(s))
	}
	b = appendTagVarint(b, fieldModelChars, boolToUint64(m.Chars))
	b = appendTagVarint(b, fieldModelMaxWordChars, uint64(m.MaxWordChars))
	return b
}

func encodeSpecial(s Special) []byte {
	var b []byte
	b = appendTagVarint(b, fieldSpecialID, uint64(s.ID))
	b = appendTagBytes(b, fieldSpecialBytes, s.Bytes)
	b = appendTagVarint(b, fieldSpecialKind, uint64(s.Kind))
	b = appendTagString(b, fieldSpecialIdent, s.Ident)
	b = appendTagFixed32(b, fieldSpecialScore, float32ToBits(s.Score))
	b = appendTagVarint(b, fieldSpecialExtract, boolToUint64(s.Extract))
	return b
}

func encodeConfig(c Configuration) []byte {
	var b []byte
	for _, n := range c.Normalization {
		b = appendTagBytes(b, fieldCfgNormalization, encodeNormalization(n))
	}
	for _, s := range c.Split {
		b = appendTagBytes(b, fieldCfgSplit, encodeSplit(s))
	}
	for _, f := range c.Fallback {
		b = appendTagVarint(b, fieldCfgFallback, uint64(f))
	}
	for _, p := range c.Processing {
		b = appendTagBytes(b, fieldCfgProcessing, encodeProcessing(p))
	}
	for _, d := range c.Decoding {
		b = appendTagBytes(b, fieldCfgDecoding, encodeDecoding(d))
	}
	for _, t := range c.Templates {
		b = appendTagBytes(b, fieldCfgTemplates, encodeTemplate(t))
	}
	return b
}

func encodeNormalization(n Normalization) []byte {
	var b []byte
	b = appendTagVarint(b, fieldNormKind, uint64(n.Kind))
	b = appendTagVarint(b, fieldNormScheme, uint64(n.Scheme))
	b = appendTagVarint(b, fieldNormUpper, boolToUint64(n.Upper))
	b = appendTagString(b, fieldNormText, n.Text)
	b = appendTagVarint(b, fieldNormCharacter, uint64(uint32(n.Character)))
	b = appendTagVarint(b, fieldNormLeft, uint64(n.Left))
	b = appendTagVarint(b, fieldNormRight, uint64(n.Right))
	b = appendTagVarint(b, fieldNormPad, boolToUint64(n.Pad))
	b = appendTagString(b, fieldNormPattern, n.Pattern)
	b = appendTagString(b, fieldNormReplacement, n.Replacement)
	return b
}

func encodeSplit(s Split) []byte {
	var b []byte
	b = appendTagVarint(b, fieldSplitKind, uint64(s.Kind))
	b = appendTagString(b, fieldSplitPattern, s.Pattern)
	b = appendTagVarint(b, fieldSplitCharacter, uint64(uint32(s.Character)))
	b = appendTagVarint(b, fieldSplitBehavior, uint64(s.Behavior))
	return b
}

func encodeProcessing(p Processing) []byte {
	var b []byte
	b = appendTagVarint(b, fieldProcKind, uint64(p.Kind))
	b = appendTagVarint(b, fieldProcID, uint64(p.ID))
	b = appendTagVarint(b, fieldProcLeft, uint64(p.Left))
	b = appendTagVarint(b, fieldProcRight, uint64(p.Right))
	b = appendTagVarint(b, fieldProcLength, uint64(p.Length))
	b = appendTagVarint(b, fieldProcStride, uint64(p.Stride))
	b = appendTagVarint(b, fieldProcDirection, uint64(p.Direction))
	return b
}

func encodeDecoding(d Decoding) []byte {
	var b []byte
	b = appendTagVarint(b, fieldDecKind, uint64(d.Kind))
	b = appendTagVarint(b, fieldDecCharacter, uint64(uint32(d.Character)))
	b = appendTagVarint(b, fieldDecLeft, uint64(d.Left))
	b = appendTagVarint(b, fieldDecRight, uint64(d.Right))
	b = appendTagVarint(b, fieldDecPad, boolToUint64(d.Pad))
	b = appendTagString(b, fieldDecPattern, d.Pattern)
	b = appendTagString(b, fieldDecReplacement, d.Replacement)
	return b
}

func encodeTemplate(t Template) []byte {
	var b []byte
	b = appendTagString(b, fieldTplContent, t.Content)
	b = appendTagVarint(b, fieldTplPosition, uint64(t.Position))
	return b
}

func float32ToBits(f float32) uint32 {
	return math.Float32bits(f)
}

func bitsToFloat32(v uint32) float32 {
	return math.Float32frombits(v)
}

// --- decode ---

func consumeVarint(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, ErrTruncated
	}
	return v, n, nil
}

func consumeBytesField(b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, ErrTruncated
	}
	return v, n, nil
}

func consumeFixed32(b []byte) (uint32, int, error) {
	v, n := protowire.ConsumeFixed32(b)
	if n < 0 {
		return 0, 0, ErrTruncated
	}
	return v, n, nil
}

// Decode parses the full wire byte stream (magic, version, payload) back
// into a Definition.
func Decode(data []byte) (Definition, error) {
	if len(data) < 9 {
		return Definition{}, ErrTruncated
	}
	var magic [7]byte
	copy(magic[:], data[:7])
	if magic != Magic {
		return Definition{}, ErrBadMagic
	}
	if data[7] != Version[0] || data[8] != Version[1] {
		return Definition{}, ErrBadVersion
	}
	return decodeDefinition(data[9:])
}

func decodeDefinition(payload []byte) (Definition, error) {
	var def Definition
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return Definition{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldMeta:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Definition{}, err
			}
			payload = payload[m:]
			meta, err := decodeMetadata(v)
			if err != nil {
				return Definition{}, err
			}
			def.Meta = meta
		case fieldModel:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Definition{}, err
			}
			payload = payload[m:]
			model, err := decodeModel(v)
			if err != nil {
				return Definition{}, err
			}
			def.Model = model
		case fieldSpecials:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Definition{}, err
			}
			payload = payload[m:]
			sp, err := decodeSpecial(v)
			if err != nil {
				return Definition{}, err
			}
			def.Specials = append(def.Specials, sp)
		case fieldConfig:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Definition{}, err
			}
			payload = payload[m:]
			cfg, err := decodeConfig(v)
			if err != nil {
				return Definition{}, err
			}
			def.Config = cfg
		default:
			m := protowire.ConsumeFieldValue(num, typ, payload)
			if m < 0 {
				return Definition{}, ErrTruncated
			}
			payload = payload[m:]
		}
	}
	return def, nil
}

func decodeMetadata(payload []byte) (Metadata, error) {
	var m Metadata
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return Metadata{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldMetaVersion:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Metadata{}, err
			}
			payload = payload[k:]
			m.Version = string(v)
		case fieldMetaSource:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Metadata{}, err
			}
			payload = payload[k:]
			m.Source = string(v)
		case fieldMetaPair:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Metadata{}, err
			}
			payload = payload[k:]
			kv, err := decodeKeyValue(v)
			if err != nil {
				return Metadata{}, err
			}
			m.Meta = append(m.Meta, kv)
		default:
			k := protowire.ConsumeFieldValue(num, typ, payload)
			if k < 0 {
				return Metadata{}, ErrTruncated
			}
			payload = payload[k:]
		}
	}
	return m, nil
}

func decodeKeyValue(payload []byte) (KeyValue, error) {
	var kv KeyValue
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return KeyValue{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldKVKey:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return KeyValue{}, err
			}
			payload = payload[k:]
			kv.Key = string(v)
		case fieldKVValue:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return KeyValue{}, err
			}
			payload = payload[k:]
			kv.Value = string(v)
		default:
			k := protowire.ConsumeFieldValue(num, typ, payload)
			if k < 0 {
				return KeyValue{}, ErrTruncated
			}
			payload = payload[k:]
		}
	}
	return kv, nil
}

func decodeModel(payload []byte) (Model, error) {
	var m Model
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return Model{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldModelKind:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Model{}, err
			}
			payload = payload[k:]
			m.Kind = ModelKind(v)
		case fieldModelVocab:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Model{}, err
			}
			payload = payload[k:]
			tok, err := decodeToken(v)
			if err != nil {
				return Model{}, err
			}
			m.Vocab = append(m.Vocab, tok)
		case fieldModelScores:
			v, k, err := consumeFixed32(payload)
			if err != nil {
				return Model{}, err
			}
			payload = payload[k:]
			m.Scores = append(m.Scores, bitsToFloat32(v))
		case fieldModelChars:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Model{}, err
			}
			payload = payload[k:]
			m.Chars = v != 0
		case fieldModelMaxWordChars:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Model{}, err
			}
			payload = payload[k:]
			m.MaxWordChars = uint32(v)
		default:
			k := protowire.ConsumeFieldValue(num, typ, payload)
			if k < 0 {
				return Model{}, ErrTruncated
			}
			payload = payload[k:]
		}
	}
	return m, nil
}

func decodeToken(payload []byte) (Token, error) {
	var t Token
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return Token{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldTokenID:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Token{}, err
			}
			payload = payload[k:]
			t.ID = uint32(v)
		case fieldTokenBytes:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Token{}, err
			}
			payload = payload[k:]
			t.Bytes = append([]byte{}, v...)
		default:
			k := protowire.ConsumeFieldValue(num, typ, payload)
			if k < 0 {
				return Token{}, ErrTruncated
			}
			payload = payload[k:]
		}
	}
	return t, nil
}

func decodeSpecial(payload []byte) (Special, error) {
	var s Special
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return Special{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldSpecialID:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Special{}, err
			}
			payload = payload[k:]
			s.ID = uint32(v)
		case fieldSpecialBytes:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Special{}, err
			}
			payload = payload[k:]
			s.Bytes = append([]byte{}, v...)
		case fieldSpecialKind:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Special{}, err
			}
			payload = payload[k:]
			s.Kind = SpecialKind(v)
		case fieldSpecialIdent:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Special{}, err
			}
			payload = payload[k:]
			s.Ident = string(v)
		case fieldSpecialScore:
			v, k, err := consumeFixed32(payload)
			if err != nil {
				return Special{}, err
			}
			payload = payload[k:]
			s.Score = bitsToFloat32(v)
		case fieldSpecialExtract:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Special{}, err
			}
			payload = payload[k:]
			s.Extract = v != 0
		default:
			k := protowire.ConsumeFieldValue(num, typ, payload)
			if k < 0 {
				return Special{}, ErrTruncated
			}
			payload = payload[k:]
		}
	}
	return s, nil
}

func decodeConfig(payload []byte) (Configuration, error) {
	var c Configuration
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return Configuration{}, ErrTruncated
		}
		payload = payload[n:]
		switch num {
		case fieldCfgNormalization:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Configuration{}, err
			}
			payload = payload[k:]
			n, err := decodeNormalization(v)
			if err != nil {
				return Configuration{}, err
			}
			c.Normalization = append(c.Normalization, n)
		case fieldCfgSplit:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Configuration{}, err
			}
			payload = payload[k:]
			s, err := decodeSplit(v)
			if err != nil {
				return Configuration{}, err
			}
			c.Split = append(c.Split, s)
		case fieldCfgFallback:
			v, k, err := consumeVarint(payload)
			if err != nil {
				return Configuration{}, err
			}
			payload = payload[k:]
			c.Fallback = append(c.Fallback, uint8(v))
		case fieldCfgProcessing:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Configuration{}, err
			}
			payload = payload[k:]
			p, err := decodeProcessing(v)
			if err != nil {
				return Configuration{}, err
			}
			c.Processing = append(c.Processing, p)
		case fieldCfgDecoding:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Configuration{}, err
			}
			payload = payload[k:]
			d, err := decodeDecoding(v)
			if err != nil {
				return Configuration{}, err
			}
			c.Decoding = append(c.Decoding, d)
		case fieldCfgTemplates:
			v, k, err := consumeBytesField(payload)
			if err != nil {
				return Configuration{}, err
			}
			payload = payload[k:]
			t, err := decodeTemplate(v)
			if err != nil {
				return Configuration{}, err
			}
			c.Templates = append(c.Templates, t)
		default:
			k := protowire.ConsumeFieldValue(num, typ, payload)
			if k < 0 {
				return Configuration{}, ErrTruncated
			}
			payload = payload[k:]
		}
	}
	return c, nil
}

func decodeNormalization(payload []byte) (Normalization, error) {
	var n Normalization
	for len(payload) > 0 {
		num, typ, k := protowire.ConsumeTag(payload)
		if k < 0 {
			return Normalization{}, ErrTruncated
		}
		payload = payload[k:]
		switch num {
		case fieldNormKind:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Kind = uint8(v)
		case fieldNormScheme:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Scheme = uint8(v)
		case fieldNormUpper:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Upper = v != 0
		case fieldNormText:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Text = string(v)
		case fieldNormCharacter:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Character = int32(uint32(v))
		case fieldNormLeft:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Left = uint32(v)
		case fieldNormRight:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Right = uint32(v)
		case fieldNormPad:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Pad = v != 0
		case fieldNormPattern:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Pattern = string(v)
		case fieldNormReplacement:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Normalization{}, err
			}
			payload = payload[m:]
			n.Replacement = string(v)
		default:
			m := protowire.ConsumeFieldValue(num, typ, payload)
			if m < 0 {
				return Normalization{}, ErrTruncated
			}
			payload = payload[m:]
		}
	}
	return n, nil
}

func decodeSplit(payload []byte) (Split, error) {
	var s Split
	for len(payload) > 0 {
		num, typ, k := protowire.ConsumeTag(payload)
		if k < 0 {
			return Split{}, ErrTruncated
		}
		payload = payload[k:]
		switch num {
		case fieldSplitKind:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Split{}, err
			}
			payload = payload[m:]
			s.Kind = uint8(v)
		case fieldSplitPattern:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Split{}, err
			}
			payload = payload[m:]
			s.Pattern = string(v)
		case fieldSplitCharacter:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Split{}, err
			}
			payload = payload[m:]
			s.Character = int32(uint32(v))
		case fieldSplitBehavior:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Split{}, err
			}
			payload = payload[m:]
			s.Behavior = uint8(v)
		default:
			m := protowire.ConsumeFieldValue(num, typ, payload)
			if m < 0 {
				return Split{}, ErrTruncated
			}
			payload = payload[m:]
		}
	}
	return s, nil
}

func decodeProcessing(payload []byte) (Processing, error) {
	var p Processing
	for len(payload) > 0 {
		num, typ, k := protowire.ConsumeTag(payload)
		if k < 0 {
			return Processing{}, ErrTruncated
		}
		payload = payload[k:]
		switch num {
		case fieldProcKind:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.Kind = uint8(v)
		case fieldProcID:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.ID = uint32(v)
		case fieldProcLeft:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.Left = uint32(v)
		case fieldProcRight:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.Right = uint32(v)
		case fieldProcLength:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.Length = uint32(v)
		case fieldProcStride:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.Stride = uint32(v)
		case fieldProcDirection:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Processing{}, err
			}
			payload = payload[m:]
			p.Direction = uint8(v)
		default:
			m := protowire.ConsumeFieldValue(num, typ, payload)
			if m < 0 {
				return Processing{}, ErrTruncated
			}
			payload = payload[m:]
		}
	}
	return p, nil
}

func decodeDecoding(payload []byte) (Decoding, error) {
	var d Decoding
	for len(payload) > 0 {
		num, typ, k := protowire.ConsumeTag(payload)
		if k < 0 {
			return Decoding{}, ErrTruncated
		}
		payload = payload[k:]
		switch num {
		case fieldDecKind:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Kind = uint8(v)
		case fieldDecCharacter:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Character = int32(uint32(v))
		case fieldDecLeft:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Left = uint32(v)
		case fieldDecRight:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Right = uint32(v)
		case fieldDecPad:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Pad = v != 0
		case fieldDecPattern:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Pattern = string(v)
		case fieldDecReplacement:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Decoding{}, err
			}
			payload = payload[m:]
			d.Replacement = string(v)
		default:
			m := protowire.ConsumeFieldValue(num, typ, payload)
			if m < 0 {
				return Decoding{}, ErrTruncated
			}
			payload = payload[m:]
		}
	}
	return d, nil
}

func decodeTemplate(payload []byte) (Template, error) {
	var t Template
	for len(payload) > 0 {
		num, typ, k := protowire.ConsumeTag(payload)
		if k < 0 {
			return Template{}, ErrTruncated
		}
		payload = payload[k:]
		switch num {
		case fieldTplContent:
			v, m, err := consumeBytesField(payload)
			if err != nil {
				return Template{}, err
			}
			payload = payload[m:]
			t.Content = string(v)
		case fieldTplPosition:
			v, m, err := consumeVarint(payload)
			if err != nil {
				return Template{}, err
			}
			payload = payload[m:]
			t.Position = uint8(v)
		default:
			m := protowire.ConsumeFieldValue(num, typ, payload)
			if m < 0 {
				return Template{}, ErrTruncated
			}
			payload = payload[m:]
		}
	}
	return t, nil
}
