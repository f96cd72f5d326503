package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"store-rating-api/internal/domain"
	"store-rating-api/pkg/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
		return utils.StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct 把第一个字段错误转成 ValidationError
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.Validation(err.Error())
	}
	return domain.Validation(fieldMessage(ves[0]))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min", "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", fe.Field(), bound(fe.Tag()), fe.Param())
		}
		return fmt.Sprintf("%s must be %s %s", fe.Field(), bound(fe.Tag()), fe.Param())
	case "strongpw":
		return fmt.Sprintf("%s must be %d-%d characters with an uppercase letter and a special character",
			fe.Field(), utils.PasswordMinLen, utils.PasswordMaxLen)
	case "role":
		return fe.Field() + " must be one of ADMIN, USER, STORE_OWNER"
	}
	return fe.Field() + " is invalid"
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
