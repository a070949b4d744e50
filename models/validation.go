package models

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

var fieldLabels = map[string]string{
	"Name":               "Name",
	"Description":        "Description",
	"Price":              "Price",
	"QuantityInStock":    "Quantity in stock",
	"LowStockThreshold":  "Low stock threshold",
	"CategoryID":         "Category ID",
	"GuestName":          "Guest name",
	"GuestEmail":         "Guest email",
	"FullName":           "Full name",
	"Email":              "Email",
	"ContactInformation": "Contact information",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return v
}

// decimalValue lets numeric tags such as gt=0 apply to decimal fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Validate checks the validate tags of a model and returns one readable
// message per failing field. A nil result means the model is valid.
func Validate(model any) []string {
	err := validate.Struct(model)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, messageFor(fe))
	}
	return messages
}

func messageFor(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "email":
		return label + " must be a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return label + " cannot be negative"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
