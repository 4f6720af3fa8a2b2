package upload

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/constants"
)

type CreateDTO struct {
	Type     string `json:"type" validate:"required,oneof=item_master inbound outbound inventory"`
	FileName string `json:"file_name" validate:"required,max=255"`
	Replace  bool   `json:"replace"`
}

func (d *CreateDTO) Normalize() {
	d.Type = strings.ToLower(strings.TrimSpace(d.Type))
	d.FileName = strings.TrimSpace(d.FileName)
}

// Ok validates the DTO and returns field errors keyed by field name.
func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()
	err := constants.Validate.Struct(d)
	if err == nil {
		return map[string]string{}, true
	}
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		errs["_"] = err.Error()
		return errs, false
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			errs[fe.Field()] = fe.Field() + " is required"
		case "oneof":
			errs[fe.Field()] = fe.Field() + " must be one of: " + fe.Param()
		default:
			errs[fe.Field()] = fe.Field() + " is invalid"
		}
	}
	return errs, false
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*target = v
	}
	return ok
}
