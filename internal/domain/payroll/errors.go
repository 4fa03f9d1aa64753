package payroll

import "errors"

var (
	ErrRecordNotFound                = errors.New("compensation record not found")
	ErrRecordAlreadyExists           = errors.New("compensation record already exists for this period")
	ErrInvalidStateTransition        = errors.New("state transition not permitted from current status")
	ErrRecordNotEditable             = errors.New("compensation record can no longer be edited")
	ErrInvalidAmount                 = errors.New("invalid monetary amount")
	ErrInvalidPeriod                 = errors.New("invalid pay period")
	ErrSigningNotAllowed             = errors.New("signing not allowed for current status")
	ErrEmployeeHasNoBaseCompensation = errors.New("employee has no base compensation configured")
)
