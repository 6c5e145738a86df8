package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/usecase"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("amount", validAmount)

	return v
}

var validAmount validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return domain.ValidateAmount(d) == nil
}

// SubmitTransactionRequest is the body of POST /api/transactions.
type SubmitTransactionRequest struct {
	ClientIdentification string           `json:"clientIdentification" validate:"required,min=1,max=50"`
	AccountNumber        string           `json:"accountNumber"        validate:"required,min=5,max=25"`
	Amount               *decimal.Decimal `json:"amount"               validate:"required,amount"`
}

// Validate checks field constraints and returns a VALIDATION_ERROR listing
// every failing field.
func (r *SubmitTransactionRequest) Validate() error {
	r.ClientIdentification = strings.TrimSpace(r.ClientIdentification)
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return domain.NewValidationError("Validation failed: %v", err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fe.Field()+": "+fieldErrorMessage(fe))
	}

	return domain.NewValidationError("Validation failed: %s", strings.Join(messages, ", "))
}

// ToUseCaseInput converts to use case input.
func (r *SubmitTransactionRequest) ToUseCaseInput() usecase.ProcessTransactionInput {
	input := usecase.ProcessTransactionInput{
		ClientIdentification: r.ClientIdentification,
		AccountNumber:        r.AccountNumber,
	}
	if r.Amount != nil {
		input.Amount = *r.Amount
	}
	return input
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "amount":
		return fmt.Sprintf("must be between %s and %s with at most %d decimal places",
			domain.MinAmount.StringFixed(domain.AmountScale), domain.MaxAmount.StringFixed(domain.AmountScale), domain.AmountScale)
	default:
		return "is invalid"
	}
}
