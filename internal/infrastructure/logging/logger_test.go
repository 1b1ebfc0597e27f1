package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerForStageBracket(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewMavenHandler(&buf, nil))

	logger := NewLoggerForStage(base, "cascade")
	logger.Info("pass applied", "pass", "charges_total")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[INFO] [cascade] ["), out)
	assert.Contains(t, out, "pass=charges_total")
	// The stage renders as the bracket tag, never as key=value.
	assert.NotContains(t, out, "stage=cascade")
}

func TestNewLoggerForStageNilBase(t *testing.T) {
	assert.NotNil(t, NewLoggerForStage(nil, "intake"))
}
