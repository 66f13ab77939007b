package dispatch

// Op identifies a binary elementwise operator. Operator selection is a
// table lookup, so families that share a binding shape (the bitwise group,
// the comparison group) need no per-operator branching.
type Op int

// Binary operators with compiled kernel variants.
const (
	OpAdd Op = iota
	OpArcTan2
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpDivide
	OpDivMod
	OpEqual
	OpGreater
	OpGreaterEqual
	OpLeftShift
	OpLess
	OpLessEqual
	OpLogAddExp
	OpLogicalAnd
	OpLogicalOr
	OpMaximum
	OpMinimum
	OpMultiply
	OpNotEqual
	OpPower
	OpRemainder
	OpRightShift
	OpSubtract
)

// opInfo describes how an operator binds: its kernel name fragment and how
// many output buffers the kernel writes.
type opInfo struct {
	name    string
	outputs int
}

var opTable = [...]opInfo{
	OpAdd:          {"add", 1},
	OpArcTan2:      {"arctan2", 1},
	OpBitwiseAnd:   {"bitwise_and", 1},
	OpBitwiseOr:    {"bitwise_or", 1},
	OpBitwiseXor:   {"bitwise_xor", 1},
	OpDivide:       {"div", 1},
	OpDivMod:       {"divmod", 2},
	OpEqual:        {"eq", 1},
	OpGreater:      {"gt", 1},
	OpGreaterEqual: {"ge", 1},
	OpLeftShift:    {"lshift", 1},
	OpLess:         {"lt", 1},
	OpLessEqual:    {"le", 1},
	OpLogAddExp:    {"lae", 1},
	OpLogicalAnd:   {"land", 1},
	OpLogicalOr:    {"lor", 1},
	OpMaximum:      {"max", 1},
	OpMinimum:      {"min", 1},
	OpMultiply:     {"mul", 1},
	OpNotEqual:     {"neq", 1},
	OpPower:        {"pow", 1},
	OpRemainder:    {"rem", 1},
	OpRightShift:   {"rshift", 1},
	OpSubtract:     {"sub", 1},
}

// Name returns the operator's kernel name fragment.
func (op Op) Name() string {
	if int(op) >= len(opTable) {
		return "unknown"
	}
	return opTable[op].name
}

// Outputs returns how many output buffers the operator's kernel writes.
func (op Op) Outputs() int {
	if int(op) >= len(opTable) {
		return 1
	}
	return opTable[op].outputs
}

// String returns the kernel name fragment.
func (op Op) String() string {
	return op.Name()
}
