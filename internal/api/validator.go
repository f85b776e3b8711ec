package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"docuchat/backend/internal/apperr"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the shared validator instance. Building one per
// request would redo the expensive struct-tag parsing every time.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// validateRequest checks a DTO against its `validate` tags and wraps any
// failure in apperr.ErrValidation with a readable field-by-field message.
func validateRequest(payload interface{}) error {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: unexpected validation error: %s", apperr.ErrValidation, err.Error())
	}

	var messages []string
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", fieldErr.Field(), fieldErr.Tag()))
	}
	return fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(messages, "; "))
}
