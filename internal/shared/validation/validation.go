package validation

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register installs custom validators on gin's binding engine. Called once
// from main before routes are set up.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("feerate", validFeeRate); err != nil {
		return err
	}
	return v.RegisterValidation("afterfield", afterField)
}

// validFeeRate accepts percentages in [0,100].
func validFeeRate(fl validator.FieldLevel) bool {
	rate := fl.Field().Float()
	return rate >= 0 && rate <= 100
}

// afterField checks that a time.Time field is strictly after the named
// sibling field, e.g. `binding:"afterfield=ValidFrom"`.
func afterField(fl validator.FieldLevel) bool {
	field, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}

	other, _, _, found := fl.GetStructFieldOK2()
	if !found {
		return false
	}
	otherTime, ok := other.Interface().(time.Time)
	if !ok {
		return false
	}

	return field.After(otherTime)
}
