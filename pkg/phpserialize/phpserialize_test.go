package phpserialize

import (
	"testing"

	"github.com/op/go-logging"
)

func TestLoggerQuietByDefault(t *testing.T) {
	if log.IsEnabledFor(logging.DEBUG) {
		t.Error("debug logging enabled without a configured backend")
	}
	if !log.IsEnabledFor(logging.WARNING) {
		t.Error("warnings disabled")
	}
}
