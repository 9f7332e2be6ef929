package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidItem wraps every structural validation failure.
var ErrInvalidItem = errors.New("invalid item")

// Validate checks the structural rules of an item before it is persisted.
// Data-quality problems such as missing prices are not validation errors;
// the aggregation engine reports those.
func Validate(it Item) error {
	err := validate.Struct(it)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate item: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidItem, it.ID, strings.Join(msgs, "; "))
}
