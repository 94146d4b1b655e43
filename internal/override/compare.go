package override

import "fmt"

func compareEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func valueInSlice(needle, haystack interface{}) bool {
	slice, ok := haystack.([]interface{})
	if !ok {
		return false
	}
	for _, item := range slice {
		if compareEqual(needle, item) {
			return true
		}
	}
	return false
}

func compareOrdered(op Operator, a, b interface{}) (bool, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch op {
		case OpLessThan:
			return af < bf, nil
		case OpLessThanOrEqual:
			return af <= bf, nil
		case OpGreaterThan:
			return af > bf, nil
		case OpGreaterThanOrEqual:
			return af >= bf, nil
		}
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch op {
		case OpLessThan:
			return as < bs, nil
		case OpLessThanOrEqual:
			return as <= bs, nil
		case OpGreaterThan:
			return as > bs, nil
		case OpGreaterThanOrEqual:
			return as >= bs, nil
		}
	}
	return false, fmt.Errorf("cannot compare %T and %T with operator %q", a, b, op)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
