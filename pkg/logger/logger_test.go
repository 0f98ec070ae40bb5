package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"development defaults", Options{Development: true}, logrus.DebugLevel, false},
		{"production defaults", Options{}, logrus.InfoLevel, true},
		{"explicit level", Options{Level: "WARN"}, logrus.WarnLevel, true},
		{"invalid level", Options{Level: "loud"}, logrus.InfoLevel, true},
		{"json in development", Options{Development: true, Format: "JSON"}, logrus.DebugLevel, true},
		{"text in production", Options{Format: "text"}, logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Output = &buf
			log := New(tt.opts)

			assert.Equal(t, tt.wantLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestRunFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	log.WithFields(RunFields("run-1", "dk", 20)).Info("Optimization completed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, "dk", line["site"])
	assert.Equal(t, float64(20), line["requested"])
	assert.Equal(t, "Optimization completed", line["msg"])
}

func TestInitLoggerSetsGlobal(t *testing.T) {
	log := InitLogger(Options{Output: &bytes.Buffer{}})
	assert.Same(t, log, GetLogger())
	assert.Equal(t, "svc", WithService("svc").Data["service"])
}
