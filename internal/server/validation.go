package server

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	genderPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z_-]{0,15}$`)

	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators adds the custom binding tags used by request structs:
//
//	gender   - a single word, letters plus '-' or '_', at most 16 chars
//	notblank - not empty after trimming spaces
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
			return genderPattern.MatchString(fl.Field().String())
		}); err != nil {
			validatorsErr = err
			return
		}
		validatorsErr = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validatorsErr
}
