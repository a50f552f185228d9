package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Bet type validation
	validate.RegisterValidation("bet_type", func(fl validator.FieldLevel) bool {
		betType := fl.Field().String()
		validTypes := []string{"single", "multiple", "system"}
		for _, t := range validTypes {
			if betType == t {
				return true
			}
		}
		return false
	})

	// Sport validation
	validate.RegisterValidation("sport", func(fl validator.FieldLevel) bool {
		sport := fl.Field().String()
		validSports := []string{"cricket", "football", "basketball", "tennis", "kabaddi", "esports", "other"}
		for _, s := range validSports {
			if sport == s {
				return true
			}
		}
		return false
	})

	// Currency validation
	validate.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		currency := fl.Field().String()
		validCurrencies := []string{"BDT", "USD", "EUR", "USDT", ""}
		for _, c := range validCurrencies {
			if currency == c {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Must be a valid email address"
		case "min":
			errors[field] = "Value is below the allowed minimum"
		case "max":
			errors[field] = "Value is above the allowed maximum"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "bet_type":
			errors[field] = "Must be one of: single, multiple, system"
		case "sport":
			errors[field] = "Unknown sport"
		case "currency":
			errors[field] = "Unsupported currency"
		default:
			errors[field] = "Invalid value"
		}
	}
	return errors
}
