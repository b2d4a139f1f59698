// Package convert builds kitoken Definitions from the already-parsed,
// in-memory shapes of four upstream tokenizer ecosystems: tiktoken,
// tekken, sentencepiece and the HuggingFace tokenizers library.
// Parsing each upstream wire format (base64 lines, tekken JSON, the
// sentencepiece protobuf, tokenizer.json) is left to the caller, who
// hands this package the parsed vocabulary/merge data and gets back a
// validated *kitoken.Definition.
package convert

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

// ErrInvalidData is returned when the caller-supplied parsed data is
// structurally inconsistent (wrong lengths, unresolvable references)
// in a way that is specific to the converter rather than to the
// general Definition invariants, which NewDefinition re-checks
// regardless.
var ErrInvalidData = errors.New("convert: invalid source data")

// compileSplit wraps regexutil.Compile with the converter package's
// error context, so a malformed upstream regex is reported with the
// pattern that failed.
func compileSplit(pattern string) error {
	if _, err := regexutil.Compile(pattern); err != nil {
		return errors.Wrapf(err, "convert: invalid split pattern %q", pattern)
	}
	return nil
}

func logConverted(source string, vocabSize, specialsSize int) {
	klog.V(2).InfoS("kitoken/convert: definition built", "source", source, "vocab", vocabSize, "specials", specialsSize)
}
