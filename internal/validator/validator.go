package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// customTags are the domain validators and their English messages.
var customTags = []struct {
	tag     string
	fn      govalidator.Func
	message string
}{
	{"sessionkind", validateSessionKind, "{0} must be one of exhibition, artwork, integrated"},
	{"timeslot", validateTimeSlot, "{0} must be one of morning, afternoon, evening"},
	{"typecode", validateTypeCode, "{0} must be a valid four-letter personality type code"},
}

// Setup registers the validator with English translations and the domain tags on
// Gin's binding engine. Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		register(v)
	}
}

func register(v *govalidator.Validate) {
	// Use the JSON (or form/uri) tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form", "uri"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	for _, ct := range customTags {
		_ = v.RegisterValidation(ct.tag, ct.fn)
		message := ct.message
		tag := ct.tag
		_ = v.RegisterTranslation(tag, trans,
			func(u ut.Translator) error { return u.Add(tag, message, true) },
			func(u ut.Translator, fe govalidator.FieldError) string {
				t, _ := u.T(tag, fe.Field())
				return t
			},
		)
	}
}

func validateSessionKind(fl govalidator.FieldLevel) bool {
	return model.SessionKind(fl.Field().String()).Valid()
}

func validateTimeSlot(fl govalidator.FieldLevel) bool {
	return model.TimeSlot(fl.Field().String()).Valid()
}

func validateTypeCode(fl govalidator.FieldLevel) bool {
	_, err := personality.ParseTypeCode(fl.Field().String())
	return err == nil
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindQuery binds and validates query parameters into dst.
func BindQuery(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindURI binds and validates path parameters into dst.
func BindURI(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindUri(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
