package api

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to its validation messages
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

var registerJSONNames sync.Once

// useJSONFieldNames makes validator report fields by their json tag
func useJSONFieldNames() {
	registerJSONNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindErrorBody converts a ShouldBindJSON error into a 400 response body
func bindErrorBody(err error) gin.H {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out.add(fe.Field(), messageForTag(fe.Tag(), fe.Param()))
		}
		return out.body()
	}

	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		msg := "Invalid value."
		if te.Type != nil && te.Type.Kind() == reflect.String {
			msg = "Not a valid string."
		}
		out.add(te.Field, msg)
		return out.body()
	}

	return gin.H{"detail": "JSON parse error - " + err.Error()}
}

func (fe FieldErrors) body() gin.H {
	h := gin.H{}
	for k, v := range fe {
		h[k] = v
	}
	return h
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + param + " characters."
	case "min":
		return "Ensure this field has at least " + param + " characters."
	case "gt":
		return "Ensure this value is greater than " + param + "."
	default:
		return "Invalid value."
	}
}
