package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// missingFields lists the json names of absent required fields in
// declaration order.
func missingFields(in any) ([]string, error) {
	err := validate.Struct(in)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing, nil
}

// requireFields returns a validation error naming every absent field.
func requireFields(in any) error {
	missing, err := missingFields(in)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.NewValidationError(
		fmt.Sprintf("Missing value(s): [%s]", strings.Join(missing, ", ")),
		map[string]any{"missing": missing},
	)
}
