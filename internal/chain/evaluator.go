package chain

// Compare applies a comparison operator to a value and threshold. Pure,
// no I/O; unknown operators compare false (operators are checked at the
// workflow-edit boundary).
func Compare(value float64, op Op, threshold float64) bool {
	switch op {
	case OpGTE:
		return value >= threshold
	case OpGT:
		return value > threshold
	case OpLTE:
		return value <= threshold
	case OpLT:
		return value < threshold
	default:
		return false
	}
}
