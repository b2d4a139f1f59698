package kitoken

import (
	"bytes"
	"context"
	"sort"

	"golang.org/x/exp/mmap"
	"k8s.io/klog/v2"

	"github.com/inference-tools/kitoken/internal/wire"
)

// MarshalBinary serializes the Definition to kitoken's binary wire format:
// a "kitoken" magic, a version pair, and a protowire-encoded payload.
func (d *Definition) MarshalBinary() ([]byte, error) {
	return wire.Encode(toWireDefinition(d)), nil
}

// DefinitionFromBytes parses a Definition previously produced by
// MarshalBinary, re-running the same invariant checks NewDefinition applies
// to a hand-built Definition.
func DefinitionFromBytes(data []byte) (*Definition, error) {
	wd, err := wire.Decode(data)
	if err != nil {
		return nil, err
	}
	meta, model, specials, config := fromWireDefinition(wd)
	return NewDefinition(meta, model, specials, config)
}

// DefinitionFromFile memory-maps path, copies the mapped bytes into a heap
// buffer of the file's length and decodes the Definition from that buffer.
// ctx bounds only the open, never any later Encode/Decode call.
func DefinitionFromFile(ctx context.Context, path string) (*Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	klog.V(2).InfoS("kitoken: loading definition", "path", path, "bytes", reader.Len())

	buf := make([]byte, reader.Len())
	if _, err := reader.ReadAt(buf, 0); err != nil {
		return nil, err
	}

	def, err := DefinitionFromBytes(buf)
	if err != nil {
		klog.ErrorS(err, "kitoken: definition decode failed", "path", path)
		return nil, err
	}
	return def, nil
}

// DefinitionsEqual reports whether two Definitions describe the same
// tokenizer: their wire bytes match once each metadata pair list is sorted,
// so metadata order is not significant to equality.
func DefinitionsEqual(a, b *Definition) bool {
	if a == nil || b == nil {
		return a == b
	}
	return bytes.Equal(canonicalWireBytes(a), canonicalWireBytes(b))
}

func canonicalWireBytes(d *Definition) []byte {
	sorted := *d
	sorted.Meta.Meta = append([]KeyValue(nil), d.Meta.Meta...)
	sort.Slice(sorted.Meta.Meta, func(i, j int) bool {
		a, b := sorted.Meta.Meta[i], sorted.Meta.Meta[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Value < b.Value
	})
	return wire.Encode(toWireDefinition(&sorted))
}

func toWireDefinition(d *Definition) wire.Definition {
	return wire.Definition{
		Meta:     toWireMetadata(d.Meta),
		Model:    toWireModel(d.Model),
		Specials: toWireSpecials(d.Specials),
		Config:   toWireConfig(d.Config),
	}
}

func toWireMetadata(m Metadata) wire.Metadata {
	var kv []wire.KeyValue
	for _, e := range m.Meta {
		kv = append(kv, wire.KeyValue{Key: e.Key, Value: e.Value})
	}
	return wire.Metadata{Version: m.Version, Source: m.Source, Meta: kv}
}

func toWireModel(m Model) wire.Model {
	var vocab []wire.Token
	for _, t := range m.Vocab {
		vocab = append(vocab, wire.Token{ID: t.ID, Bytes: t.Bytes})
	}
	var scores []float32
	scores = append(scores, m.Scores...)
	return wire.Model{
		Kind:         wire.ModelKind(m.Kind),
		Vocab:        vocab,
		Chars:        m.Chars,
		Scores:       scores,
		MaxWordChars: m.MaxWordChars,
	}
}

func toWireSpecials(specials SpecialVocab) []wire.Special {
	var out []wire.Special
	for _, s := range specials {
		out = append(out, wire.Special{
			ID:      s.ID,
			Bytes:   s.Bytes,
			Kind:    wire.SpecialKind(s.Kind),
			Ident:   s.Ident,
			Score:   s.Score,
			Extract: s.Extract,
		})
	}
	return out
}

func toWireConfig(c Configuration) wire.Configuration {
	var norm []wire.Normalization
	for _, n := range c.Normalization {
		norm = append(norm, wire.Normalization{
			Kind:        uint8(n.Kind),
			Scheme:      uint8(n.Scheme),
			Upper:       n.Upper,
			Text:        n.Text,
			Character:   n.Character,
			Left:        n.Left,
			Right:       n.Right,
			Pad:         n.Pad,
			Pattern:     n.Pattern,
			Replacement: n.Replacement,
		})
	}
	var sp []wire.Split
	for _, s := range c.Split {
		sp = append(sp, wire.Split{Kind: uint8(s.Kind), Pattern: s.Pattern, Character: s.Character, Behavior: uint8(s.Behavior)})
	}
	var fb []uint8
	for _, f := range c.Fallback {
		fb = append(fb, uint8(f))
	}
	var proc []wire.Processing
	for _, p := range c.Processing {
		proc = append(proc, wire.Processing{
			Kind:      uint8(p.Kind),
			ID:        p.ID,
			Left:      p.Left,
			Right:     p.Right,
			Length:    p.Length,
			Stride:    p.Stride,
			Direction: uint8(p.Direction),
		})
	}
	var dec []wire.Decoding
	for _, d := range c.Decoding {
		dec = append(dec, wire.Decoding{
			Kind:        uint8(d.Kind),
			Character:   d.Character,
			Left:        d.Left,
			Right:       d.Right,
			Pad:         d.Pad,
			Pattern:     d.Pattern,
			Replacement: d.Replacement,
		})
	}
	var tpl []wire.Template
	for _, t := range c.Templates {
		tpl = append(tpl, wire.Template{Content: t.Content, Position: uint8(t.Position)})
	}
	return wire.Configuration{
		Normalization: norm,
		Split:         sp,
		Fallback:      fb,
		Processing:    proc,
		Decoding:      dec,
		Templates:     tpl,
	}
}

func fromWireDefinition(wd wire.Definition) (Metadata, Model, SpecialVocab, Configuration) {
	meta := fromWireMetadata(wd.Meta)
	model := fromWireModel(wd.Model)
	specials := fromWireSpecials(wd.Specials)
	config := fromWireConfig(wd.Config)
	return meta, model, specials, config
}

func fromWireMetadata(m wire.Metadata) Metadata {
	var kv []KeyValue
	for _, e := range m.Meta {
		kv = append(kv, KeyValue{Key: e.Key, Value: e.Value})
	}
	return Metadata{Version: m.Version, Source: m.Source, Meta: kv}
}

func fromWireModel(m wire.Model) Model {
	var vocab Vocab
	for _, t := range m.Vocab {
		vocab = append(vocab, Token{ID: t.ID, Bytes: t.Bytes})
	}
	var scores Scores
	scores = append(scores, m.Scores...)
	return Model{
		Kind:         ModelKind(m.Kind),
		Vocab:        vocab,
		Chars:        m.Chars,
		Scores:       scores,
		MaxWordChars: m.MaxWordChars,
	}
}

func fromWireSpecials(specials []wire.Special) SpecialVocab {
	var out SpecialVocab
	for _, s := range specials {
		out = append(out, SpecialToken{
			ID:      s.ID,
			Bytes:   s.Bytes,
			Kind:    SpecialTokenKind(s.Kind),
			Ident:   s.Ident,
			Score:   s.Score,
			Extract: s.Extract,
		})
	}
	return out
}

func fromWireConfig(c wire.Configuration) Configuration {
	var norm []Normalization
	for _, n := range c.Normalization {
		norm = append(norm, Normalization{
			Kind:        NormalizationKind(n.Kind),
			Scheme:      UnicodeScheme(n.Scheme),
			Upper:       n.Upper,
			Text:        n.Text,
			Character:   n.Character,
			Left:        n.Left,
			Right:       n.Right,
			Pad:         n.Pad,
			Pattern:     n.Pattern,
			Replacement: n.Replacement,
		})
	}
	var sp []Split
	for _, s := range c.Split {
		sp = append(sp, Split{Kind: SplitKind(s.Kind), Pattern: s.Pattern, Character: s.Character, Behavior: SplitBehavior(s.Behavior)})
	}
	var fb []Fallback
	for _, f := range c.Fallback {
		fb = append(fb, Fallback(f))
	}
	var proc []Processing
	for _, p := range c.Processing {
		proc = append(proc, Processing{
			Kind:      ProcessingKind(p.Kind),
			ID:        p.ID,
			Left:      p.Left,
			Right:     p.Right,
			Length:    p.Length,
			Stride:    p.Stride,
			Direction: Direction(p.Direction),
		})
	}
	var dec []Decoding
	for _, d := range c.Decoding {
		dec = append(dec, Decoding{
			Kind:        DecodingKind(d.Kind),
			Character:   d.Character,
			Left:        d.Left,
			Right:       d.Right,
			Pad:         d.Pad,
			Pattern:     d.Pattern,
			Replacement: d.Replacement,
		})
	}
	var tpl []Template
	for _, t := range c.Templates {
		tpl = append(tpl, Template{Content: t.Content, Position: TemplatePosition(t.Position)})
	}
	return Configuration{
		Normalization: norm,
		Split:         sp,
		Fallback:      fb,
		Processing:    proc,
		Decoding:      dec,
		Templates:     tpl,
	}
}
