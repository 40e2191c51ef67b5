package payroll

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
)

// RunRequest carries every parameter of one export run. The engine keeps no
// state between runs; everything it needs arrives here.
type RunRequest struct {
	Period            generic.Period
	ExcludedEmployees []EmployeeID
	OvertimeRate      decimal.Decimal
	Debug             bool
	Concurrency       int
}

// NewRunRequest returns a request for p with the default overtime rate and
// concurrency.
func NewRunRequest(p generic.Period) RunRequest {
	return RunRequest{
		Period:       p,
		OvertimeRate: MinimumWage,
		Concurrency:  DefaultConcurrency,
	}
}

// requestRules is the shape validator checks. Decimal and period values are
// projected onto plain fields so struct tags can express the rules.
type requestRules struct {
	StartYear    int          `validate:"gte=2000,lte=2100"`
	OvertimeRate float64      `validate:"gte=0,lte=1000"`
	Concurrency  int          `validate:"gte=0,lte=32"`
	Excluded     []EmployeeID `validate:"dive,gt=0"`
}

var validate = validator.New()

// Validate checks the request. Failures unwrap to generic.ErrInvalidRequest,
// or generic.ErrInvalidPeriod when the period is not an 11th-to-10th period.
func (r RunRequest) Validate() error {
	if r.Period.Start.IsZero() || !IsPayPeriod(r.Period) {
		return &generic.InvalidPeriodError{Year: r.Period.Start.Year(), Month: int(r.Period.Start.Month()), Day: r.Period.Start.Day()}
	}

	rate, _ := r.OvertimeRate.Float64()
	err := validate.Struct(requestRules{
		StartYear:    r.Period.Start.Year(),
		OvertimeRate: rate,
		Concurrency:  r.Concurrency,
		Excluded:     r.ExcludedEmployees,
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &generic.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, generic.FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Workers returns the effective concurrency.
func (r RunRequest) Workers() int {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return r.Concurrency
}

// Excludes reports whether id was excluded from the run.
func (r RunRequest) Excludes(id EmployeeID) bool {
	for _, x := range r.ExcludedEmployees {
		if x == id {
			return true
		}
	}
	return false
}

// ParseEmployeeIDs reads a comma-separated id list. Parts that are not
// plain positive integers are ignored. The result is sorted and unique.
func ParseEmployeeIDs(s string) []EmployeeID {
	seen := make(map[EmployeeID]bool)
	var ids []EmployeeID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n == 0 {
			continue
		}
		id := EmployeeID(n)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
