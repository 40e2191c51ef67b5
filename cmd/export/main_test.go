package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ScenarioDryRun(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	// GIVEN: a built-in data set, CSV and PDF, nothing recorded
	code := run(context.Background(), options{
		envFile:  filepath.Join(dir, "missing.env"),
		scenario: "care-home",
		formats:  "csv,pdf",
		out:      dir,
		dryRun:   true,
	}, &stdout)

	// THEN: both files are written and the summary printed
	require.Equal(t, 0, code, stdout.String())
	for _, name := range []string{"payroll_export_20250111_20250210.csv", "payroll_export_20250111_20250210.pdf"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, stdout.String(), "Payroll export 11 Jan 2025 - 10 Feb 2025")
	assert.Contains(t, stdout.String(), "Total pay:      £3,306.81")
}

func TestRun_ScenarioStepsAndRecords(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	// GIVEN: the overtime data set stepped back a month, recorded in a file ledger
	code := run(context.Background(), options{
		envFile:  filepath.Join(dir, "missing.env"),
		scenario: "overtime",
		prev:     1,
		formats:  "xlsx",
		out:      dir,
		db:       filepath.Join(dir, "ledger.db"),
	}, &stdout)

	require.Equal(t, 0, code, stdout.String())
	_, err := os.Stat(filepath.Join(dir, "payroll_export_20241211_20250110.xlsx"))
	assert.NoError(t, err)
	assert.Contains(t, stdout.String(), "Run:")
}

func TestRun_BadFlags(t *testing.T) {
	dir := t.TempDir()
	base := options{envFile: filepath.Join(dir, "missing.env"), out: dir, dryRun: true, scenario: "care-home"}

	bad := base
	bad.formats = "doc"
	assert.Equal(t, 2, run(context.Background(), bad, &bytes.Buffer{}))

	bad = base
	bad.formats = "csv"
	bad.scenario = "nope"
	assert.Equal(t, 2, run(context.Background(), bad, &bytes.Buffer{}))

	bad = base
	bad.formats = "csv"
	bad.overtimeRate = "lots"
	assert.Equal(t, 2, run(context.Background(), bad, &bytes.Buffer{}))
}

func TestSelectPeriod(t *testing.T) {
	p, src, err := selectPeriod(options{year: 2025, month: 3, next: 10}, nil)

	require.NoError(t, err)
	assert.Nil(t, src)
	assert.Equal(t, "2026-01-11", p.Start.String())
	assert.Equal(t, "2026-02-10", p.End.String())

	_, _, err = selectPeriod(options{year: 2025, month: 13}, nil)
	assert.Error(t, err)
}
