package provider

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/donate/infra/config"
)

// ValidateRequest checks a submitted donation request. The honey-pot is
// checked first; it fails with the same opaque message as any other
// validation error so automated abuse learns nothing from the response.
func ValidateRequest(req *DonationRequest) error {
	if strings.TrimSpace(req.ConfirmEmail) != "" {
		return NewError(KindValidation, "Your donation could not be processed")
	}

	if err := config.App().Validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			return NewError(KindValidation, friendlyMessage(verrs[0]))
		}
		return WrapError(KindValidation, "Invalid request", err)
	}

	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func friendlyMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing required field %s", field)
	case "email":
		return "Invalid email address"
	case "oneof":
		return fmt.Sprintf("Invalid value for %s", field)
	case "len":
		return fmt.Sprintf("Invalid %s", field)
	default:
		return fmt.Sprintf("Invalid %s", field)
	}
}
