package handler

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the username and slug tags to gin's validator and
// makes field errors report JSON names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return service.ValidateUsername(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return service.ValidateSlug(fl.Field().String()) == nil
		})
	})
}

// bindJSON decodes the body into dst. An empty body counts as {} so partial
// updates without fields still go through. Binding failures come back as
// *service.ValidationError.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &service.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	}
	return service.NewValidationError("", "invalid request body: "+err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "invalid email format"
	case "username", "slug":
		var verr *service.ValidationError
		check := service.ValidateUsername
		if fe.Tag() == "slug" {
			check = service.ValidateSlug
		}
		if errors.As(check(fmt.Sprint(fe.Value())), &verr) {
			for _, msg := range verr.Fields {
				return msg
			}
		}
	}
	return "invalid value"
}
