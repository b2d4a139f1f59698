// Package process implements the post-processing pipeline: a
// sequence of transforms applied to the encoded token-id stream before it
// is returned to the caller.
package process

// Direction selects which end of the stream a transform operates from.
type Direction uint8

const (
	Left Direction = iota
	Right
)

// Kind tags the variant carried by a Step.
type Kind uint8

const (
	Strip Kind = iota
	Collapse
	Truncate
	Pad
)

// Step is a single post-processor pipeline entry.
type Step struct {
	Kind Kind

	ID        uint32    // Strip, Collapse, Pad
	StripL    int       // Strip
	StripR    int       // Strip
	Length    int       // Truncate, Pad
	Stride    int       // Truncate, Pad
	Direction Direction // Truncate, Pad
}

// Apply runs a single Step over ids, returning the transformed stream.
func Apply(ids []uint32, step Step) []uint32 {
	switch step.Kind {
	case Strip:
		return applyStrip(ids, step.ID, step.StripL, step.StripR)
	case Collapse:
		return applyCollapse(ids, step.ID)
	case Truncate:
		return applyTruncate(ids, step.Length, step.Direction)
	case Pad:
		return applyPad(ids, step.Length, step.ID, step.Stride, step.Direction)
	}
	return ids
}

// Pipeline runs every step in sequence.
func Pipeline(ids []uint32, steps []Step) []uint32 {
	for _, step := range steps {
		ids = Apply(ids, step)
	}
	return ids
}

func applyStrip(ids []uint32, id uint32, left, right int) []uint32 {
	start := 0
	for start < len(ids) && left > 0 && ids[start] == id {
		start++
		left--
	}
	end := len(ids)
	for end > start && right > 0 && ids[end-1] == id {
		end--
		right--
	}
	return append([]uint32{}, ids[start:end]...)
}

func applyCollapse(ids []uint32, id uint32) []uint32 {
	if len(ids) == 0 {
		return ids
	}
	out := make([]uint32, 0, len(ids))
	for i, v := range ids {
		if v == id && i > 0 && ids[i-1] == id {
			continue
		}
		out = append(out, v)
	}
	return out
}

func applyTruncate(ids []uint32, length int, dir Direction) []uint32 {
	if length <= 0 || len(ids) <= length {
		return ids
	}
	if dir == Right {
		return append([]uint32{}, ids[len(ids)-length:]...)
	}
	return append([]uint32{}, ids[:length]...)
}

func applyPad(ids []uint32, length int, id uint32, stride int, dir Direction) []uint32 {
	target := length
	if stride > 0 && target%stride != 0 {
		target = ((target / stride) + 1) * stride
	}
	if len(ids) >= target {
		return ids
	}
	padding := make([]uint32, target-len(ids))
	for i := range padding {
		padding[i] = id
	}
	out := make([]uint32, 0, target)
	if dir == Right {
		out = append(out, ids...)
		out = append(out, padding...)
	} else {
		out = append(out, padding...)
		out = append(out, ids...)
	}
	return out
}
