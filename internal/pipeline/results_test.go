package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() *Results {
	return &Results{
		Model:        "LinearRegression",
		MSE:          0.041234,
		RMSE:         0.203061,
		TrainSamples: 400,
		TestSamples:  100,
		Timestamp:    "2025-03-14 09:26:53",
		RunID:        "run_01HQZX3V5K8TYGJ2M4N6P7R9S0",
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{FormatJSON, []string{`"model": "LinearRegression"`, `"train_samples": 400`, `"mse": 0.041234`}},
		{FormatYAML, []string{"model: LinearRegression", "train_samples: 400", "run_id: run_01HQZX3V5K8TYGJ2M4N6P7R9S0"}},
		{FormatTOML, []string{"model = 'LinearRegression'", "test_samples = 100", "rmse = 0.203061"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := sampleResults().Encode(tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, string(data), want)
			}

			decoded, err := DecodeResults(data, tt.format)
			require.NoError(t, err)
			assert.Equal(t, sampleResults(), decoded)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "json, yaml, toml")
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"out/results.json": FormatJSON,
		"results.yml":      FormatYAML,
		"results.TOML":     FormatTOML,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("results")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeResultsRejectsBadRunID(t *testing.T) {
	_, err := DecodeResults([]byte("model: LinearRegression\nrun_id: job_42\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
}
