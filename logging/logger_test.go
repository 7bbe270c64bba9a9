package logging_test

import (
	"bytes"
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/logging"
)

func TestLoggerWritesToAppender(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("planner", logging.NewWriterAppender(&buf))
	logger.Infof("starting job %s", "demo.json")
	test.That(t, buf.String(), test.ShouldContainSubstring, "starting job demo.json")
	test.That(t, buf.String(), test.ShouldContainSubstring, "planner")
}

func TestNamedLoggerPreservesAppenders(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("driver", logging.NewWriterAppender(&buf))
	child := logger.Named("dispatch")
	child.Warnf("retrying read")
	test.That(t, buf.String(), test.ShouldContainSubstring, "driver.dispatch")
	test.That(t, buf.String(), test.ShouldContainSubstring, "retrying read")
}
