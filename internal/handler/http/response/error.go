package response

import (
	"errors"
	"net/http"

	"github.com/orgnest/console-backend-go/internal/domain/employee"
	"github.com/orgnest/console-backend-go/internal/domain/facility"
	"github.com/orgnest/console-backend-go/internal/domain/payroll"
	"github.com/orgnest/console-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Payroll domain errors
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound):
		NotFound(w, "Compensation record not found")
	case errors.Is(err, payroll.ErrRecordAlreadyExists):
		Conflict(w, "A compensation record already exists for this employee and period")
	case errors.Is(err, payroll.ErrInvalidStateTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrRecordNotEditable):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrSigningNotAllowed):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidAmount):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Facility domain errors
	case errors.Is(err, facility.ErrFacilityNotFound):
		NotFound(w, "Facility not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
