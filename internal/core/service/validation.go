package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/loga-alumni/portal/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	return v
}

// validateInput reports the first failing field as a *domain.ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}
	fe := errs[0]
	return &domain.ValidationError{Field: lowerFirst(fe.Field()), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// writeError wraps a failed store write with the notice shown to the member.
// A missing document stays domain.ErrNotFound.
func writeError(collection, op, notice string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	return &domain.StoreWriteError{Collection: collection, Op: op, Notice: notice, Err: err}
}

func requireSignedIn(actor domain.Actor) error {
	if actor.Account.ID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}
	if !actor.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}
