// Package forms validates submitted form data and turns it into service input.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so messages line up with the inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError maps form field names to messages. NonField holds
// messages that are about the submission as a whole.
type ValidationError struct {
	Fields   map[string][]string `json:"fields"`
	NonField []string            `json:"nonField,omitempty"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+len(e.NonField))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	parts = append(parts, e.NonField...)
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 && len(e.NonField) == 0 {
		return nil
	}
	return e
}

// check runs the struct tags and collects their failures.
func check(form interface{}) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(form)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), message(fe))
		}
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "oneof":
		return "Select a valid choice."
	case "number", "numeric":
		return "Enter a whole number."
	case "datetime":
		return "Enter a valid date."
	case "uuid":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

// FromServiceError turns a service conflict into a field message. It returns
// nil for errors that are not about a specific input.
func FromServiceError(err error) *ValidationError {
	verr := &ValidationError{}
	switch {
	case errors.Is(err, services.ErrMemberNumberTaken):
		verr.Add("member_number", "A member with this membership number is already registered.")
	case errors.Is(err, services.ErrEmailTaken):
		verr.Add("email", "This email address is already in use.")
	case errors.Is(err, services.ErrUsernameTaken):
		verr.Add("username", "A user with that username already exists.")
	case errors.Is(err, services.ErrAreaNotFound):
		verr.Add("area", "Select a valid choice. That choice is not one of the available choices.")
	case errors.Is(err, services.ErrConflict):
		verr.NonField = append(verr.NonField, "Someone else saved a conflicting change. Please try again.")
	default:
		return nil
	}
	return verr
}

// parseDate reads a YYYY-MM-DD value, using today when it is blank.
func parseDate(raw string) (datatypes.Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Today(), true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return datatypes.Date{}, false
	}
	return models.DateOf(t), true
}

// FormatDate renders a date the way the forms accept it.
func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(dateLayout)
}
