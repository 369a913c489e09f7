package screens

import (
	"errors"
	"sync"

	"amia-console/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(salaryRange, PositionInput{})
	})
	return validate
}

// salaryRange rejects a minimum salary above the maximum.
func salaryRange(sl validator.StructLevel) {
	p := sl.Current().Interface().(PositionInput)
	if p.SalaryMin != nil && p.SalaryMax != nil && *p.SalaryMin > *p.SalaryMax {
		sl.ReportError(p.SalaryMin, "SalaryMin", "SalaryMin", "salary_range", "")
	}
}

// fieldMessage maps a failing struct field, optionally narrowed to one tag,
// to the message shown to the user.
type fieldMessage struct {
	field string
	tag   string
	msg   string
}

// checkForm validates v and reports the first failure in messages order as a
// validation error.
func checkForm(v any, messages []fieldMessage) error {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}
	var failed validator.ValidationErrors
	if !errors.As(err, &failed) || len(failed) == 0 {
		return domain.Validation(err.Error())
	}
	for _, m := range messages {
		for _, fe := range failed {
			if fe.StructField() == m.field && (m.tag == "" || fe.Tag() == m.tag) {
				return domain.Validation(m.msg)
			}
		}
	}
	return domain.Validation(failed[0].Error())
}
