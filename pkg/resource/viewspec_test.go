package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseViewSpecs(t *testing.T) {
	specs, err := ParseViewSpecs("reports/report_id/int,logs/log_id/string")
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, ViewSpec{Name: "reports", PrimaryKey: "report_id", PKType: RouteInt}, specs[0])
	assert.Equal(t, ViewSpec{Name: "logs", PrimaryKey: "log_id", PKType: RouteString}, specs[1])
}

func TestParseViewSpecsSingle(t *testing.T) {
	specs, err := ParseViewSpecs("metrics/sample/float")
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, RouteFloat, specs[0].PKType)
}

func TestParseViewSpecsErrors(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"missing field", "reports/report_id"},
		{"too many fields", "reports/report_id/int/extra"},
		{"bad type tag", "reports/report_id/decimal"},
		{"empty name", "/report_id/int"},
		{"empty pk", "reports//int"},
		{"empty string", ""},
		{"only commas", ",,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseViewSpecs(tt.spec)
			assert.Error(t, err)
		})
	}
}
