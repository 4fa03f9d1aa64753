package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgnest/console-backend-go/internal/pkg/validator"
)

func TestCreateRecordRequestValidate(t *testing.T) {
	valid := CreateRecordRequest{
		EmployeeID:  "emp-1",
		PeriodMonth: 3,
		PeriodYear:  2025,
		BaseAmount:  d("10000"),
		Currency:    "USD",
	}
	require.NoError(t, valid.Validate())

	t.Run("missing employee", func(t *testing.T) {
		req := valid
		req.EmployeeID = ""
		err := req.Validate()
		require.Error(t, err)

		var errs validator.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs.ToMap(), "employee_id")
	})

	t.Run("month out of range", func(t *testing.T) {
		req := valid
		req.PeriodMonth = 0
		assert.Error(t, req.Validate())
		req.PeriodMonth = 13
		assert.Error(t, req.Validate())
	})

	t.Run("negative base", func(t *testing.T) {
		req := valid
		req.BaseAmount = d("-1")
		err := req.Validate()
		require.Error(t, err)

		var errs validator.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs.ToMap(), "base_amount")
	})

	t.Run("unnamed line item", func(t *testing.T) {
		req := valid
		req.Deductions = []LineItem{{Name: " ", Amount: d("100")}}
		err := req.Validate()
		require.Error(t, err)

		var errs validator.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs.ToMap(), "deductions")
	})
}

func TestUpdateRecordRequestTouchesFinancials(t *testing.T) {
	assert.False(t, (&UpdateRecordRequest{}).TouchesFinancials())

	bank := "First National"
	assert.False(t, (&UpdateRecordRequest{BankName: &bank}).TouchesFinancials())

	base := d("100")
	assert.True(t, (&UpdateRecordRequest{BaseAmount: &base}).TouchesFinancials())

	items := []LineItem{}
	assert.True(t, (&UpdateRecordRequest{Allowances: &items}).TouchesFinancials())
}

func TestParsePaymentDate(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now, ParsePaymentDate(nil, now))

	s := "2025-03-31"
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), ParsePaymentDate(&s, now))

	bad := "31/03/2025"
	assert.Equal(t, now, ParsePaymentDate(&bad, now))
}
