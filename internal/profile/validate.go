package profile

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Issue is a single out-of-range value found by Validate.
type Issue struct {
	Field string
	Rule  string
	Value any
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %v violates %s", i.Field, i.Value, i.Rule)
}

// Validate reports values outside their plausible range. The result is
// advisory: a profile with issues is still served as is.
func (p *Profile) Validate() []Issue {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Field: "profile", Rule: err.Error()}}
	}

	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		issues = append(issues, Issue{Field: fe.Namespace(), Rule: rule, Value: fe.Value()})
	}
	return issues
}
