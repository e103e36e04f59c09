package handler

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var kenyanPhone = regexp.MustCompile(`^(\+254|0)[17]\d{8}$`)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator
// and reports struct fields by their JSON names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		err = v.RegisterValidation("kephone", func(fl validator.FieldLevel) bool {
			return kenyanPhone.MatchString(fl.Field().String())
		})
	})
	return err
}
