package service

import (
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage/sqlite"
	"github.com/mmynk/tabsettle/internal/token"
	"github.com/mmynk/tabsettle/internal/tracker"
)

var validate = newValidator()

// newValidator registers the token amount tags. Struct fields carrying a tag
// are validated as a whole, so the tags see decimal.Decimal directly.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// token_amount: positive whole base units within the token's range.
	if err := v.RegisterValidation("token_amount", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && models.ValidAmount(d)
	}); err != nil {
		panic(err)
	}

	// token_allowance: like token_amount, but zero revokes.
	if err := v.RegisterValidation("token_allowance", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && (d.IsZero() || models.ValidAmount(d))
	}); err != nil {
		panic(err)
	}

	return v
}

// validateRequest checks the struct tags of a request message.
func validateRequest(msg any) error {
	if err := validate.Struct(msg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				messages = append(messages, fmt.Sprintf("field '%s' failed validation '%s'", e.Field(), e.Tag()))
			}
			err = fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
		}
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// toConnectError maps ledger and account errors to connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, tracker.ErrTransferExecutionFailed):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, tracker.ErrDuplicateParticipant):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, tracker.ErrParticipantsNotRegistered),
		errors.Is(err, calculator.ErrUnknownParticipant):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, tracker.ErrInsufficientBalance),
		errors.Is(err, tracker.ErrUnbalancedLedger):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, tracker.ErrInvalidAmount),
		errors.Is(err, tracker.ErrInvalidIdentity),
		errors.Is(err, sqlite.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAmount):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
