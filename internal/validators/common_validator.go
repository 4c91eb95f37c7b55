package validators

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("object_id", validateObjectID)
}

// FieldError is a single failed check, flattened for the API response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (e FieldErrors) HasErrors() bool { return len(e) > 0 }

// ToMap flattens the errors into field -> message for the response envelope.
func (e FieldErrors) ToMap() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

// ValidateStruct runs the tag-driven checks and converts the library's error
// shape into FieldErrors.
func ValidateStruct(s interface{}) FieldErrors {
	var out FieldErrors
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				out = append(out, FieldError{
					Field:   strings.ToLower(ve.Field()),
					Message: messageForTag(ve),
				})
			}
		} else {
			out = append(out, FieldError{Field: "request", Message: err.Error()})
		}
	}
	return out
}

func messageForTag(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + ve.Param()
	case "min":
		return "must be at least " + ve.Param()
	case "max":
		return "must be at most " + ve.Param()
	case "object_id":
		return "must be a valid object id"
	}
	return "is invalid"
}

func validateObjectID(fl validator.FieldLevel) bool {
	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
