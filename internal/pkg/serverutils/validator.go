package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into a
// 400 with a readable field list.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if errs, ok := err.(validator.ValidationErrors); ok {
			fieldErrors = errs
		} else {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		messages := make([]string, len(fieldErrors))
		for i, fe := range fieldErrors {
			messages[i] = fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag())
		}
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(messages, "; "))
	}
	return nil
}
