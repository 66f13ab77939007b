package dispatch

import (
	"strconv"
	"strings"

	"github.com/loom-ml/loom/internal/tensor"
)

// Variant identifies one compiled kernel specialization. The struct is
// built first and serialized only at the kernel-cache boundary, so the
// string encoding can evolve without leaking into dispatch logic.
type Variant struct {
	Category      BinaryOpType
	Rank          int // collapsed rank, general category only
	Width         IndexWidth
	WorkPerThread int
	Op            string
	Type          string // element-type tag, e.g. "float32"
}

// Key serializes the variant into the kernel cache key. Equal variants
// always produce equal keys, and any two variants the width policy can
// actually produce map to different keys (work-per-thread is a function
// of category, width, and element type, all of which are encoded).
//
// Encoding: category tag; for the general category the collapsed rank if
// at most 3, else "n" plus the work-per-thread value, plus "large" under
// wide indexing; for the compact categories "2" under wide indexing or
// "n" when one thread computes several elements; then "_", the operator
// name, and the element-type tag.
func (v Variant) Key() string {
	var sb strings.Builder
	sb.WriteString(v.Category.String())
	if v.Category == General {
		if v.Rank <= 3 {
			sb.WriteString(strconv.Itoa(v.Rank))
		} else {
			sb.WriteString("n")
			sb.WriteString(strconv.Itoa(v.WorkPerThread))
		}
		if v.Width == Wide {
			sb.WriteString("large")
		}
	} else {
		if v.Width == Wide {
			sb.WriteString("2")
		} else if v.WorkPerThread > 1 {
			sb.WriteString("n")
		}
	}
	sb.WriteString("_")
	sb.WriteString(v.Op)
	sb.WriteString(v.Type)
	return sb.String()
}

// makeVariant assembles the variant for a classified dispatch.
func makeVariant(bopt BinaryOpType, rank int, width IndexWidth, wpt int, op Op, dtype tensor.DataType) Variant {
	return Variant{
		Category:      bopt,
		Rank:          rank,
		Width:         width,
		WorkPerThread: wpt,
		Op:            op.Name(),
		Type:          dtype.TypeName(),
	}
}
