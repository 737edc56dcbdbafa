package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nxkoriyav/accountd/internal/apperrors"
)

var validate = newValidator()

type Struct any

// ErrorResponse is the single error shape the API speaks: a stable machine
// code plus a human description, with per-field details for validation
type ErrorResponse struct {
	ErrorCode    string            `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Fields       map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, data, code)
}

// BusinessError renders err with its stable code and safe description
func BusinessError(w http.ResponseWriter, err error, status int) {
	code, message := apperrors.Describe(err)

	jsonWithStatus(w, ErrorResponse{
		ErrorCode:    code,
		ErrorMessage: message,
	}, status)
}

// InternalError hides the fault behind a generic response
func InternalError(w http.ResponseWriter) {
	jsonWithStatus(w, ErrorResponse{
		ErrorCode:    "INTERNAL_SERVER_ERROR",
		ErrorMessage: "internal server error",
	}, http.StatusInternalServerError)
}

// Render json decoding error
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		ErrorCode: apperrors.Code(apperrors.ErrInvalidRequest),
	}

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		response.ErrorMessage = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		response.ErrorMessage = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render validation errors with user-friendly per-field messages
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		ErrorCode:    apperrors.Code(apperrors.ErrInvalidRequest),
		ErrorMessage: "Request validation failed",
		Fields:       make(map[string]string, len(errs)),
	}

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "gte":
			message = fmt.Sprintf("Value must be at least %s", fieldError.Param())
		case "lte":
			message = fmt.Sprintf("Value must be at most %s", fieldError.Param())
		case "len":
			message = fmt.Sprintf("Value must be exactly %s characters", fieldError.Param())
		case "numeric":
			message = "Value must contain digits only"
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using
// struct tags. Writes the appropriate error response itself, so on a non-nil
// error the caller only returns.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
