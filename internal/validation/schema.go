package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"contactform/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	MsgFirstNameRequired = "First name is required"
	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Invalid email address"
	MsgContactNumber     = "Contact number must be in the format 04xx xxx xxx"
	MsgWebsiteInvalid    = "Must be a valid URL"
)

var (
	contactNumberPattern = regexp.MustCompile(`^04\d{8}$`)
	topLevelDomain       = regexp.MustCompile(`\.[A-Za-z]{2,}$`)

	validate = newValidator()
)

// structFields maps form fields to ContactRecord field names for StructPartial.
var structFields = map[models.Field]string{
	models.FieldFirstName:      "FirstName",
	models.FieldEmail:          "Email",
	models.FieldContactNumber:  "ContactNumber",
	models.FieldCompanyWebsite: "CompanyWebsite",
	models.FieldMessage:        "Message",
}

func newValidator() *validator.Validate {
	v := validator.New()
	// FieldError.Field() reports the JSON name, which is the models.Field value
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("au_mobile", func(fl validator.FieldLevel) bool {
		return contactNumberPattern.MatchString(fl.Field().String())
	})
	// the built-in email rule accepts single-letter TLDs
	_ = v.RegisterValidation("email_tld", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		at := strings.LastIndex(s, "@")
		return at >= 0 && topLevelDomain.MatchString(s[at+1:])
	})
	return v
}

// Errors 字段 -> 错误信息；为空表示校验通过
type Errors map[models.Field]string

// Has reports whether field carries an error.
func (e Errors) Has(field models.Field) bool {
	_, ok := e[field]
	return ok
}

// Validate evaluates every rule against candidate and returns all field errors at once.
func Validate(candidate models.ContactRecord) Errors {
	return toErrors(validate.Struct(candidate))
}

// ValidateField checks a single field. It returns the error message and false when
// the field is invalid.
func ValidateField(field models.Field, candidate models.ContactRecord) (string, bool) {
	name, ok := structFields[field]
	if !ok {
		return "", true
	}
	msg, bad := toErrors(validate.StructPartial(candidate, name))[field]
	return msg, !bad
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email,email_tld") == nil
}

// IsAbsoluteURL reports whether s is a URL with a scheme and a host
// (or an opaque part, e.g. "mailto:team@example.com").
func IsAbsoluteURL(s string) bool {
	return validate.Var(s, "required,url") == nil
}

func toErrors(err error) Errors {
	errs := Errors{}
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only a non-struct argument gets here, which ContactRecord never is
		for _, f := range models.Fields {
			errs[f] = err.Error()
		}
		return errs
	}
	for _, fe := range verrs {
		field := models.Field(fe.Field())
		errs[field] = message(field, fe.Tag())
	}
	return errs
}

func message(field models.Field, tag string) string {
	switch field {
	case models.FieldFirstName:
		return MsgFirstNameRequired
	case models.FieldEmail:
		if tag == "required" {
			return MsgEmailRequired
		}
		return MsgEmailInvalid
	case models.FieldContactNumber:
		return MsgContactNumber
	case models.FieldCompanyWebsite:
		return MsgWebsiteInvalid
	}
	return "Invalid " + string(field)
}
