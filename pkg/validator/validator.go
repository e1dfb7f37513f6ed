package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

func (e ErrorResponse) String() string {
	return fmt.Sprintf("Field '%s' failed on tag '%s'", e.FailedField, e.Tag)
}

var validate = validator.New()

var (
	principalRoles = map[string]bool{"admin": true, "supplier": true, "dropshipper": true}
	panels         = map[string]bool{"Admin": true, "Supplier": true, "Dropshipper": true}
)

func init() {
	validate.RegisterValidation("principal_role", func(fl validator.FieldLevel) bool {
		return principalRoles[strings.ToLower(fl.Field().String())]
	})
	validate.RegisterValidation("panel", func(fl validator.FieldLevel) bool {
		return panels[fl.Field().String()]
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}
