// internal/controls/values.go
package controls

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoValue is returned when a relative change is asked of a control
// whose current value is not known yet.
var ErrNoValue = errors.New("controls: no current value")

// Relative adds delta to the current numeric value and clamps the result.
// NaN bounds are ignored.
func Relative(current any, delta, min, max float64) (float64, error) {
	if current == nil {
		return 0, ErrNoValue
	}
	base, err := toFloat(current)
	if err != nil {
		return 0, err
	}
	v := base + delta
	if math.IsNaN(v) {
		return 0, fmt.Errorf("controls: relative result is NaN")
	}
	if !math.IsNaN(min) && v < min {
		v = min
	}
	if !math.IsNaN(max) && v > max {
		v = max
	}
	return v, nil
}

// Convert interprets a textual value as "number", "boolean" or "string".
// Unknown types are treated as string.
func Convert(value, typ string) (any, error) {
	switch typ {
	case "number":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("controls: %q is not a number", value)
		}
		return f, nil
	case "boolean":
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "false", "0":
			return false, nil
		case "true", "1":
			return true, nil
		default:
			return value != "", nil
		}
	default:
		return value, nil
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("controls: current value %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("controls: current value of type %T is not numeric", v)
	}
}
