package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
)

func TestTimeLogsRequestIDAndError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	ctx := context.WithValue(context.Background(), RequestIDKey, "abc")
	err := errors.New("boom")
	Time(ctx, "weatherapi.forecast")(&err)
	Time(context.Background(), "weatherapi.search")(nil)

	out := buf.String()
	if !strings.Contains(out, "req_id=abc op=weatherapi.forecast") || !strings.Contains(out, "err=boom") {
		t.Fatalf("unexpected log output %q", out)
	}
	if !strings.Contains(out, "op=weatherapi.search dur=") {
		t.Fatalf("expected success line, got %q", out)
	}
}
