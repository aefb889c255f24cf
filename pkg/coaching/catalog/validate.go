package catalog

import (
	"sync"

	"identity-coach-be/internal/constant"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func paramsValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("phase", func(fl validator.FieldLevel) bool {
			return constant.Phase(fl.Field().String()).Conversational()
		})
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return constant.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
			return constant.Topic(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

func validateParams(params interface{}) error {
	return paramsValidator().Struct(params)
}

func enumOf[T ~string](values []T) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
