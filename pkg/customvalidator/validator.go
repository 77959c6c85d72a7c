package customvalidator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"gpit-system/pkg/constants"
)

// RegisterCustomValidations registers every domain-specific rule on the
// shared validator instance.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("serial_number", isSerialNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("user_role", isUserRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("manual_status", isManualStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_blank", isNotBlank); err != nil {
		return err
	}
	return nil
}

var serialRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-_/]{2,63}$`)

func isSerialNumber(fl validator.FieldLevel) bool {
	return serialRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

func isUserRole(fl validator.FieldLevel) bool {
	return constants.IsValidRole(fl.Field().String())
}

func isManualStatus(fl validator.FieldLevel) bool {
	return constants.IsManualEquipmentStatus(fl.Field().String())
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
