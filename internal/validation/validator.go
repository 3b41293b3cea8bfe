package validation

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for the closed enum fields.
func Init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Unknown enum values are rejected at the binding edge, never stored.
	v.RegisterAlias("department", "oneof=HR IT Finance Marketing Operations Legal")
	v.RegisterAlias("userstatus", "oneof=active away busy")
	v.RegisterAlias("priority", "oneof=low medium high")
	v.RegisterAlias("tasktype", "oneof=individual group")
}
