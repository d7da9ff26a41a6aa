package media

import "fmt"

// IntConstraint supports browser-like exact/ideal/min/max constraint patterns.
// Use the constructor functions ExactInt(), IdealInt(), RangeInt() for convenience.
type IntConstraint struct {
	Exact *int
	Ideal *int
	Min   *int
	Max   *int
}

// Value returns the effective value, preferring exact > ideal > min.
// Returns (0, false) if no value is set.
func (c IntConstraint) Value() (int, bool) {
	if c.Exact != nil {
		return *c.Exact, true
	}
	if c.Ideal != nil {
		return *c.Ideal, true
	}
	if c.Min != nil {
		return *c.Min, true
	}
	return 0, false
}

// IsExact returns true if this constraint requires an exact match.
func (c IntConstraint) IsExact() bool {
	return c.Exact != nil
}

// Validate checks if a value satisfies the constraint.
func (c IntConstraint) Validate(value int) error {
	if c.Exact != nil && value != *c.Exact {
		return &OverconstrainedError{
			Constraint: "value",
			Message:    fmt.Sprintf("requires exact %d, got %d", *c.Exact, value),
		}
	}
	if c.Min != nil && value < *c.Min {
		return &OverconstrainedError{
			Constraint: "value",
			Message:    fmt.Sprintf("minimum is %d, got %d", *c.Min, value),
		}
	}
	if c.Max != nil && value > *c.Max {
		return &OverconstrainedError{
			Constraint: "value",
			Message:    fmt.Sprintf("maximum is %d, got %d", *c.Max, value),
		}
	}
	return nil
}

// resolve picks a value for the named constraint: the effective value or
// def, capped by the constraint's Max and by limit. An exact value above
// limit cannot be satisfied.
func (c IntConstraint) resolve(name string, def, limit int) (int, error) {
	v, ok := c.Value()
	if !ok {
		v = def
	}
	if c.Max != nil && v > *c.Max {
		v = *c.Max
	}
	if limit > 0 && v > limit {
		if c.IsExact() {
			return 0, &OverconstrainedError{
				Constraint: name,
				Message:    fmt.Sprintf("requires exact %d, sensor maximum is %d", v, limit),
			}
		}
		v = limit
	}
	if err := c.Validate(v); err != nil {
		err.(*OverconstrainedError).Constraint = name
		return 0, err
	}
	return v, nil
}

// FloatConstraint supports browser-like exact/ideal/min/max for floating-point values.
type FloatConstraint struct {
	Exact *float64
	Ideal *float64
	Min   *float64
	Max   *float64
}

// Value returns the effective value, preferring exact > ideal > min.
// Returns (0, false) if no value is set.
func (c FloatConstraint) Value() (float64, bool) {
	if c.Exact != nil {
		return *c.Exact, true
	}
	if c.Ideal != nil {
		return *c.Ideal, true
	}
	if c.Min != nil {
		return *c.Min, true
	}
	return 0, false
}

// IsExact returns true if this constraint requires an exact match.
func (c FloatConstraint) IsExact() bool {
	return c.Exact != nil
}

// Validate checks if a value satisfies the constraint.
func (c FloatConstraint) Validate(value float64) error {
	if c.Exact != nil && value != *c.Exact {
		return &OverconstrainedError{
			Constraint: "value",
			Message:    fmt.Sprintf("requires exact %v, got %v", *c.Exact, value),
		}
	}
	if c.Min != nil && value < *c.Min {
		return &OverconstrainedError{
			Constraint: "value",
			Message:    fmt.Sprintf("minimum is %v, got %v", *c.Min, value),
		}
	}
	if c.Max != nil && value > *c.Max {
		return &OverconstrainedError{
			Constraint: "value",
			Message:    fmt.Sprintf("maximum is %v, got %v", *c.Max, value),
		}
	}
	return nil
}

// OverconstrainedError is returned when constraints cannot be satisfied.
// Matches browser's OverconstrainedError interface.
type OverconstrainedError struct {
	Constraint string
	Message    string
}

func (e *OverconstrainedError) Error() string {
	return fmt.Sprintf("overconstrained: %s - %s", e.Constraint, e.Message)
}

// Helper functions for creating constraint values

// ExactInt creates an IntConstraint that requires an exact value.
func ExactInt(v int) IntConstraint {
	return IntConstraint{Exact: &v}
}

// IdealInt creates an IntConstraint with an ideal (preferred) value.
func IdealInt(v int) IntConstraint {
	return IntConstraint{Ideal: &v}
}

// RangeInt creates an IntConstraint with min and max bounds.
func RangeInt(minVal, maxVal int) IntConstraint {
	return IntConstraint{Min: &minVal, Max: &maxVal}
}

// ExactFloat creates a FloatConstraint that requires an exact value.
func ExactFloat(v float64) FloatConstraint {
	return FloatConstraint{Exact: &v}
}

// IdealFloat creates a FloatConstraint with an ideal (preferred) value.
func IdealFloat(v float64) FloatConstraint {
	return FloatConstraint{Ideal: &v}
}

// RangeFloat creates a FloatConstraint with min and max bounds.
func RangeFloat(minVal, maxVal float64) FloatConstraint {
	return FloatConstraint{Min: &minVal, Max: &maxVal}
}
