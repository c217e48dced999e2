package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/observability-demo/internal/shared/id"
)

// TimestampLayout formats Results.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// Results summarizes a completed run.
type Results struct {
	Model        string  `json:"model" yaml:"model" toml:"model"`
	MSE          float64 `json:"mse" yaml:"mse" toml:"mse"`
	RMSE         float64 `json:"rmse" yaml:"rmse" toml:"rmse"`
	TrainSamples int     `json:"train_samples" yaml:"train_samples" toml:"train_samples"`
	TestSamples  int     `json:"test_samples" yaml:"test_samples" toml:"test_samples"`
	Timestamp    string  `json:"timestamp" yaml:"timestamp" toml:"timestamp"`
	RunID        string  `json:"run_id" yaml:"run_id" toml:"run_id"`
}

// Formats lists the supported export formats.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatTOML}
}

// ParseFormat normalizes format, rejecting unknown values.
func ParseFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// Encode renders r in the given format.
func (r *Results) Encode(format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch f {
	case FormatJSON:
		data, err = sonic.MarshalIndent(r, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(r)
	case FormatTOML:
		data, err = toml.Marshal(r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode results as %s: %w", f, err)
	}
	return data, nil
}

// DecodeResults parses data produced by Encode.
func DecodeResults(data []byte, format string) (*Results, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	var r Results
	switch f {
	case FormatJSON:
		err = sonic.Unmarshal(data, &r)
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	case FormatTOML:
		err = toml.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s results: %w", f, err)
	}
	if r.RunID != "" {
		if _, err := id.ParseRunID(r.RunID); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) (string, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
