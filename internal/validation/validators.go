package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validate is shared by config loading, request parsing and nudge persistence.
// The nudge_category tag accepts only known models.NudgeCategory values.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("nudge_category", validateNudgeCategory); err != nil {
		panic(fmt.Sprintf("failed to register nudge_category validator: %v", err))
	}
	return v
}

func validateNudgeCategory(fl validator.FieldLevel) bool {
	return models.NudgeCategory(fl.Field().String()).Valid()
}

// SanitizeText trims text and drops control characters other than newline
// and tab. Model output passes through it before it is stored.
func SanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(text))
}
