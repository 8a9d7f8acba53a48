package aggregates

import (
	"fmt"

	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
)

// Collector accumulates field violations across a validation pass so the
// caller receives every broken rule in one error instead of the first.
type Collector struct {
	violations []domainagg.FieldViolation
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(field, code, message string, rejected any) {
	c.violations = append(c.violations, domainagg.FieldViolation{
		Field:         field,
		Code:          code,
		Message:       message,
		RejectedValue: rejected,
	})
}

func (c *Collector) Addf(field, code string, rejected any, format string, args ...any) {
	c.Add(field, code, fmt.Sprintf(format, args...), rejected)
}

// Merge appends another collector's violations, prefixing each field path.
func (c *Collector) Merge(prefix string, other *Collector) {
	if other == nil {
		return
	}
	for _, v := range other.violations {
		field := v.Field
		if prefix != "" {
			if field == "" {
				field = prefix
			} else {
				field = prefix + "." + field
			}
		}
		c.violations = append(c.violations, domainagg.FieldViolation{
			Field:         field,
			Code:          v.Code,
			Message:       v.Message,
			RejectedValue: v.RejectedValue,
		})
	}
}

func (c *Collector) HasViolations() bool {
	return len(c.violations) > 0
}

func (c *Collector) Violations() []domainagg.FieldViolation {
	out := make([]domainagg.FieldViolation, len(c.violations))
	copy(out, c.violations)
	return out
}

// Err flushes the collector into a single validation error, or nil when the
// pass found nothing.
func (c *Collector) Err(op string) error {
	if !c.HasViolations() {
		return nil
	}
	return domainagg.NewValidationError(op, c.Violations())
}
