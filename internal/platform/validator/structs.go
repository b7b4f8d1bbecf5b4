// internal/platform/validator/structs.go
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Service holds the struct validator and its english translator.
type Service struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Service
)

// Get returns the shared struct validator. It is read-only after the
// first call.
func Get() *Service {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// yaml, then json tag names in messages: config errors should name
		// the key the user wrote
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"yaml", "json"} {
				tag := fld.Tag.Get(key)
				if idx := strings.Index(tag, ","); idx >= 0 {
					tag = tag[:idx]
				}
				if tag != "" && tag != "-" {
					return tag
				}
			}
			return fld.Name
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
			return IsDomain(NormalizeDomain(fl.Field().String()))
		})
		_ = v.RegisterValidation("cveid", func(fl validator.FieldLevel) bool {
			return IsCVEID(fl.Field().String())
		})
		registerMessage(v, trans, "domain", "{0} must be a domain name")
		registerMessage(v, trans, "cveid", "{0} must look like CVE-YYYY-NNNN")

		svc = &Service{Validator: v, Translator: trans}
	})
	return svc
}

// Struct validates s and returns an error whose message lists every
// failing field, e.g. "whois.timeout must be greater than 0".
func Struct(s any) error {
	err := Get().Validator.Struct(s)
	if err == nil {
		return nil
	}
	msgs := Messages(err)
	if len(msgs) == 0 {
		return err
	}
	return &Error{Fields: msgs, cause: err}
}

// Error is returned by Struct.
type Error struct {
	Fields []string
	cause  error
}

func (e *Error) Error() string { return strings.Join(e.Fields, "; ") }
func (e *Error) Unwrap() error { return e.cause }

// Messages translates validation errors. Field names use the dotted
// namespace without the root struct name.
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Translate(Get().Translator)
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		if ns != "" && ns != fe.Field() {
			msg = strings.Replace(msg, fe.Field(), ns, 1)
		}
		out = append(out, msg)
	}
	return out
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field())
			return msg
		},
	)
}
