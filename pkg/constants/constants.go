package constants

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey       ContextKey = "app"
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	ParamsKey    ContextKey = "params"
	RequestStart ContextKey = "requestStart"
)

var sqlIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Validate is the shared validator. It knows the "sqlident" tag for names
// that end up as SQL identifiers.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return sqlIdent.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}
