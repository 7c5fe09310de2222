package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type TicketPayload struct {
	Title       string `json:"title" validate:"required,max=128"`
	Description string `json:"description" validate:"max=2048"`
}

type ReviewPayload struct {
	Title   string `json:"title" validate:"required,max=128"`
	Rating  int    `json:"rating" validate:"min=0,max=5"`
	Content string `json:"content" validate:"max=2048"`
}

// CollectValidationErrors flattens validator output into the field-scoped
// human messages we hand back for redisplay.
func CollectValidationErrors(err error) []string {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	var out []string
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s: this field is required", field))
		case "max":
			out = append(out, fmt.Sprintf("%s: must be at most %s", field, fe.Param()))
		case "min":
			out = append(out, fmt.Sprintf("%s: must be at least %s", field, fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s: invalid value", field))
		}
	}
	return out
}

// ValidateStruct runs the shared validator over any tagged struct so field
// errors read the same no matter which layer raised them.
func ValidateStruct(s any) []string {
	return CollectValidationErrors(validate.Struct(s))
}

func ValidateReviewPayload(payload ReviewPayload) []string {
	return CollectValidationErrors(validate.Struct(payload))
}

func ValidateTicketPayload(payload TicketPayload) []string {
	return CollectValidationErrors(validate.Struct(payload))
}
