package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

const (
	notBlankTag = "notblank"
	lteTotalTag = "lte_total"
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names rather than Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	registerFn := func(ut.Translator) error { return nil }
	_ = validate.RegisterTranslation(notBlankTag, translator, registerFn,
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " cannot be blank"
		})
	_ = validate.RegisterTranslation(lteTotalTag, translator, registerFn,
		func(_ ut.Translator, fe validator.FieldError) string {
			return "male_students + female_students cannot exceed total_students"
		})

	validate.RegisterStructValidation(schoolStructValidation, School{})
}

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of an input record.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// collect runs the validator on v and appends translated failures under prefix.
// Errors other than field failures are returned unchanged.
func (e *ValidationError) collect(prefix string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		field := fieldPath(prefix, fe.Namespace())
		e.add(field, fmt.Sprintf("%s: %s", field, fe.Translate(translator)))
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace and
// prepends the section prefix.
func fieldPath(prefix, namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	if prefix == "" {
		return namespace
	}
	return prefix + "." + namespace
}

func (e *ValidationError) result() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateSchool checks identity fields and every recorded profile section.
// It returns a *ValidationError listing all rejected fields.
func ValidateSchool(s School) error {
	var verr ValidationError
	if err := verr.collect("", s); err != nil {
		return err
	}
	for _, sec := range []struct {
		name string
		v    any
		set  bool
	}{
		{"infrastructure", s.Infrastructure.OrZero(), s.Infrastructure.IsSet()},
		{"internet", s.Internet.OrZero(), s.Internet.IsSet()},
		{"software", s.Software.OrZero(), s.Software.IsSet()},
		{"human_capacity", s.HumanCapacity.OrZero(), s.HumanCapacity.IsSet()},
		{"pedagogical_usage", s.PedagogicalUsage.OrZero(), s.PedagogicalUsage.IsSet()},
		{"student_engagement", s.StudentEngagement.OrZero(), s.StudentEngagement.IsSet()},
		{"community_engagement", s.CommunityEngagement.OrZero(), s.CommunityEngagement.IsSet()},
		{"accessibility", s.Accessibility.OrZero(), s.Accessibility.IsSet()},
		{"environmental_practice", s.EnvironmentPractice.OrZero(), s.EnvironmentPractice.IsSet()},
		{"performance", s.Performance.OrZero(), s.Performance.IsSet()},
	} {
		if !sec.set {
			continue
		}
		if err := verr.collect(sec.name, sec.v); err != nil {
			return err
		}
	}
	if hc, ok := s.HumanCapacity.Get(); ok && s.TotalTeachers > 0 && hc.ICTTrainedTeachers > s.TotalTeachers {
		verr.add("human_capacity.ict_trained_teachers", "human_capacity.ict_trained_teachers: cannot exceed total_teachers")
	}
	return verr.result()
}

// ValidateReport checks a report's date, period and recorded sections.
func ValidateReport(r ICTReport) error {
	var verr ValidationError
	if r.Date.IsZero() {
		verr.add("date", "date: date is a required field")
	}
	if err := verr.collect("", r); err != nil {
		return err
	}
	for _, sec := range []struct {
		name string
		v    any
		set  bool
	}{
		{"infrastructure", r.Infrastructure.OrZero(), r.Infrastructure.IsSet()},
		{"usage", r.Usage.OrZero(), r.Usage.IsSet()},
		{"software", r.Software.OrZero(), r.Software.IsSet()},
		{"capacity", r.Capacity.OrZero(), r.Capacity.IsSet()},
	} {
		if !sec.set {
			continue
		}
		if err := verr.collect(sec.name, sec.v); err != nil {
			return err
		}
	}
	if c, ok := r.Capacity.Get(); ok && c.TotalTeachers > 0 && c.ICTTrainedTeachers > c.TotalTeachers {
		verr.add("capacity.ict_trained_teachers", "capacity.ict_trained_teachers: cannot exceed total_teachers")
	}
	return verr.result()
}

func schoolStructValidation(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(School)
	if !ok || s.TotalStudents == 0 {
		return
	}
	if s.MaleStudents+s.FemaleStudents > s.TotalStudents {
		sl.ReportError(s.MaleStudents, "male_students", "MaleStudents", lteTotalTag, "")
	}
}

// ValidateAccountRequest checks a new account's name, role and optional key.
func ValidateAccountRequest(req CreateAccountRequest) error {
	var verr ValidationError
	if err := verr.collect("", req); err != nil {
		return err
	}
	return verr.result()
}
