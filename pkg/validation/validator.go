package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/otomasyon-magazasi/pkg/iban"
)

var (
	usernameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{2,29}$`)
	slugRe     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	plain      = validator.New()
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers marketplace validators and alias tags.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs tag name resolution, custom validators and aliases on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("iban", func(fl validator.FieldLevel) bool {
		return iban.Valid(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	v.RegisterAlias("pwd", "min=8")
	v.RegisterAlias("strongpwd", "min=8,max=72,containsany=0123456789,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZÇĞİÖŞÜ,containsany=abcdefghijklmnopqrstuvwxyzçğıöşü")
	v.RegisterAlias("phone", "e164")
}

// IsUsername reports whether s is a valid username: 3-30 chars, lower-case
// letters, digits or underscore, starting with a letter.
func IsUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return plain.Var(s, "required,email") == nil
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "geçersiz JSON"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "geçersiz istek"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "zorunlu alan"
	case "email":
		return "geçerli bir e-posta adresi olmalı"
	case "url", "uri":
		return "geçerli bir URL olmalı"
	case "uuid", "uuid4":
		return "geçerli bir kimlik olmalı"
	case "username":
		return "3-30 karakter, küçük harf ile başlamalı; yalnızca küçük harf, rakam ve alt çizgi içerebilir"
	case "iban":
		return "geçerli bir TR IBAN olmalı"
	case "slug":
		return "yalnızca küçük harf, rakam ve tire içerebilir"
	case "pwd":
		return "en az 8 karakter olmalı"
	case "strongpwd", "containsany":
		return "en az 8 karakter; büyük harf, küçük harf ve rakam içermeli"
	case "phone", "e164":
		return "geçerli bir telefon numarası olmalı"
	case "oneof":
		return "şunlardan biri olmalı: " + strings.Join(strings.Fields(param), ", ")
	case "len":
		return fmt.Sprintf("tam olarak %s karakter olmalı", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "en az " + param + " olmalı"
		}
		return "en az " + param + " karakter olmalı"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "en fazla " + param + " olmalı"
		}
		return "en fazla " + param + " karakter olmalı"
	case "gte":
		return param + " veya daha büyük olmalı"
	case "lte":
		return param + " veya daha küçük olmalı"
	case "gt":
		return param + " değerinden büyük olmalı"
	case "lt":
		return param + " değerinden küçük olmalı"
	case "eqfield":
		return param + " alanı ile aynı olmalı"
	case "dive", "unique":
		return "liste öğeleri geçersiz"
	}
	if param != "" {
		return fmt.Sprintf("'%s' kuralı (%s) sağlanmadı", fe.Tag(), param)
	}
	return fmt.Sprintf("'%s' kuralı sağlanmadı", fe.Tag())
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
