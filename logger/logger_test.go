// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package logger_test

import (
	"os"
	"testing"

	"github.com/elastic/usersvc-monitoring/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLogger(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "tempFileLoggerTest-")
	require.NoError(t, err)
	defer tempFile.Close()

	// No encoder option: ECS formatting is the package default.
	l, err := logger.New(logger.WithOutputPaths(tempFile.Name()))
	require.NoError(t, err)

	l.Infof("%s", "logger-test-info")
	l.Debugf("%s", "logger-test-debug")

	tempFileContents, err := os.ReadFile(tempFile.Name())
	require.NoError(t, err)

	assert.Regexp(t, `{"log.level":"info","@timestamp":".*","log.origin":{"function":"github.com/elastic/usersvc-monitoring/logger_test.TestDefaultLogger","file.name":"logger/logger_test.go","file.line":.*},"message":"logger-test-info","ecs.version":"1.6.0"}`, string(tempFileContents))
	assert.NotContains(t, string(tempFileContents), "logger-test-debug")
}

func TestLoggerCustomEncoderConfig(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "tempFileLoggerTest-")
	require.NoError(t, err)
	defer tempFile.Close()

	encoderConfig := ecszap.NewDefaultEncoderConfig().ToZapCoreEncoderConfig()
	encoderConfig.MessageKey = "log.message"

	l, err := logger.New(
		logger.WithEncoderConfig(encoderConfig),
		logger.WithOutputPaths(tempFile.Name()),
	)
	require.NoError(t, err)

	l.Infof("%s", "logger-test-custom-encoder")

	tempFileContents, err := os.ReadFile(tempFile.Name())
	require.NoError(t, err)
	assert.Contains(t, string(tempFileContents), `"log.message":"logger-test-custom-encoder"`)
}

func TestLoggerParseLogLevel(t *testing.T) {
	testCases := []struct {
		level         string
		expectedLevel zapcore.Level
		expectedErr   bool
	}{
		{
			level:         "dEbuG",
			expectedLevel: zapcore.DebugLevel,
		},
		{
			level:         "InFo",
			expectedLevel: zapcore.InfoLevel,
		},
		{
			level:         "WaRning",
			expectedLevel: zapcore.WarnLevel,
		},
		{
			level:         "warn",
			expectedLevel: zapcore.WarnLevel,
		},
		{
			level:         "eRRor",
			expectedLevel: zapcore.ErrorLevel,
		},
		{
			level:         "FaTal",
			expectedLevel: zapcore.FatalLevel,
		},
		{
			level:         "OFF",
			expectedLevel: zapcore.FatalLevel + 1,
		},
		{
			level:       "Inva@Lid3",
			expectedErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			l, err := logger.ParseLogLevel(tc.level)
			if tc.expectedErr {
				require.Error(t, err)
			} else {
				require.Equal(t, tc.expectedLevel, l)
			}
		})
	}
}

func TestLoggerSetLogLevel(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "tempFileLoggerTest-")
	require.NoError(t, err)
	defer tempFile.Close()

	l, err := logger.New(
		logger.WithOutputPaths(tempFile.Name()),
		logger.WithLevel(zap.DebugLevel),
	)
	require.NoError(t, err)

	l.Debugf("%s", "logger-test-debug-enabled")
	tempFileContents, err := os.ReadFile(tempFile.Name())
	require.NoError(t, err)

	assert.Regexp(t, `{"log.level":"debug","@timestamp":".*","log.origin":{"function":"github.com/elastic/usersvc-monitoring/logger_test.TestLoggerSetLogLevel","file.name":"logger/logger_test.go","file.line":.*},"message":"logger-test-debug-enabled","ecs.version":"1.6.0"}`, string(tempFileContents))
}
