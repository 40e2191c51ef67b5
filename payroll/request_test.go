package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

func TestNewRunRequest_Defaults(t *testing.T) {
	req := payroll.NewRunRequest(payroll.MustPeriodFor(2025, time.January))

	assert.True(t, req.OvertimeRate.Equal(decimal.RequireFromString("12.21")))
	assert.Equal(t, payroll.DefaultConcurrency, req.Workers())
	assert.NoError(t, req.Validate())
}

func TestRunRequest_Validate_RejectsNonPayPeriod(t *testing.T) {
	req := payroll.NewRunRequest(generic.Period{
		Start: generic.NewTimePoint(2025, time.January, 1),
		End:   generic.NewTimePoint(2025, time.January, 31),
	})

	err := req.Validate()

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidPeriod))
	assert.True(t, generic.IsConfigError(err))
}

func TestRunRequest_Validate_CollectsFieldErrors(t *testing.T) {
	req := payroll.NewRunRequest(payroll.MustPeriodFor(2025, time.January))
	req.OvertimeRate = decimal.RequireFromString("-1")
	req.Concurrency = 100
	req.ExcludedEmployees = []payroll.EmployeeID{5, -2}

	err := req.Validate()

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidRequest))
	var verr *generic.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "gte", fields["OvertimeRate"])
	assert.Equal(t, "lte", fields["Concurrency"])
	assert.Equal(t, "gt", fields["Excluded[1]"])
}

func TestParseEmployeeIDs(t *testing.T) {
	got := payroll.ParseEmployeeIDs(" 42, abc, 7 ,, -3, 42, 1.5, 0")

	assert.Equal(t, []payroll.EmployeeID{7, 42}, got)
	assert.Empty(t, payroll.ParseEmployeeIDs(""))
}

func TestRunRequest_Excludes(t *testing.T) {
	req := payroll.NewRunRequest(payroll.MustPeriodFor(2025, time.January))
	req.ExcludedEmployees = []payroll.EmployeeID{3}

	assert.True(t, req.Excludes(3))
	assert.False(t, req.Excludes(4))
}
