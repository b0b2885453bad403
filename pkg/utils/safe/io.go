package safe

import (
	"context"
	"errors"
	"io"
	"syscall"

	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

// Write writes a response body. A write error cannot be reported to the
// client anymore, so it is only logged. Disconnected clients are logged at
// debug level.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err == nil {
		return
	}

	logger := logging.From(ctx)
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		logger.Debug("client went away during write", "written", n, "size", len(data))
		return
	}
	logger.Error("failed to write response", "error", err, "written", n, "size", len(data))
}
