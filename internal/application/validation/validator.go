package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/billdesk/pkg/apperror"
)

const dateLayout = "2006-01-02"

var (
	digitsRe        = regexp.MustCompile(`^\d+$`)
	invoiceNumberRe = regexp.MustCompile(`^INV-\d{4}-\d{3}$`)
)

// Validator checks dashboard forms before anything is sent to the API
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option customizes a Validator
type Option func(*Validator)

// WithClock replaces time.Now, for cheque date checks
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRe.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("invoice_number", func(fl validator.FieldLevel) bool {
		return invoiceNumberRe.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("not_before_today", v.notBeforeToday)

	v.validate.RegisterStructValidation(v.paymentRules, PaymentForm{})
	v.validate.RegisterStructValidation(exportRangeRules, ExportRange{})
	return v
}

// today is the start of the current local day
func (v *Validator) today() time.Time {
	now := v.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (v *Validator) notBeforeToday(fl validator.FieldLevel) bool {
	now := v.now()
	d, err := time.ParseInLocation(dateLayout, fl.Field().String(), now.Location())
	if err != nil {
		return false
	}
	return !d.Before(v.today())
}

// check runs tags against value and reports the first failure under field
func check(sl validator.StructLevel, value any, field, structField, tags string) {
	err := sl.Validator().Var(value, tags)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			sl.ReportError(value, field, structField, fe.Tag(), fe.Param())
			return
		}
	}
}

// translate converts validator output into an apperror validation error
func (v *Validator) translate(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: message(messages, fe),
		})
	}
	return apperror.NewValidationError(fields)
}

func message(messages map[string]string, fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		if strings.Contains(msg, "%s") {
			return strings.ReplaceAll(msg, "%s", fe.Param())
		}
		return msg
	}
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}
