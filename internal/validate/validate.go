package validate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/listingdesk/internal/apperror"
)

var (
	v        = validator.New(validator.WithRequiredStructEnabled())
	nonSpace = regexp.MustCompile(`\S`)
)

func init() {
	// notblank: the string has at least one non-whitespace character.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	})
}

// Struct validates s against its `validate` tags and returns an apperror
// listing every failing field, or nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Validation(apperror.CodeValidationError, err.Error())
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		part := fe.Field() + " failed " + fe.Tag()
		if fe.Param() != "" {
			part += "=" + fe.Param()
		}
		parts = append(parts, part)
	}
	return apperror.Validation(apperror.CodeValidationError, strings.Join(parts, "; "))
}
