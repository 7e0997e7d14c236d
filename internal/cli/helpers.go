package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// newLogger builds a production logger writing to stderr so that results
// on stdout stay machine-readable.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// parseCounts parses "conversions/trials", e.g. "150/1000".
func parseCounts(s string) (conversions, trials int, err error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid counts %q: expected conversions/trials", s)
	}
	conversions, err = strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid conversions in %q: %w", s, err)
	}
	trials, err = strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid trials in %q: %w", s, err)
	}
	if conversions < 0 || trials < 0 || conversions > trials {
		return 0, 0, fmt.Errorf("invalid counts %q: need 0 <= conversions <= trials", s)
	}
	return conversions, trials, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
