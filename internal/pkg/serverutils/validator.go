package serverutils

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	requestValidator *validator.Validate
	validatorOnce    sync.Once
)

// ValidateRequest checks validate tags on a request DTO and turns failures into a 400.
func ValidateRequest(req interface{}) error {
	validatorOnce.Do(func() {
		requestValidator = validator.New(validator.WithRequiredStructEnabled())
	})

	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(messages, "; "))
}
