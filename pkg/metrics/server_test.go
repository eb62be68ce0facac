package metrics

import (
	"context"
	"io"
	"testing"

	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

func TestServeEmptyAddrIsNoop(t *testing.T) {
	stop := Serve(context.Background(), "", nil)
	stop()
}

func TestServeStopsCleanly(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "metrics-test", Output: io.Discard})
	stop := Serve(context.Background(), "127.0.0.1:0", logg)
	stop()
}
