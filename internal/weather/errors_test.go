package weather

import (
	"errors"
	"io"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := error(&Error{Kind: KindNetwork, Err: io.ErrUnexpectedEOF})

	if !errors.Is(err, ErrNetwork) {
		t.Fatal("expected network error to match ErrNetwork")
	}
	if errors.Is(err, ErrDecoding) {
		t.Fatal("did not expect network error to match ErrDecoding")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatal("expected cause to be preserved")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindInvalidURL}, "invalid URL"},
		{&Error{Kind: KindInvalidResponse, StatusCode: 403}, "invalid response from server (status 403)"},
		{&Error{Kind: KindDecoding, Err: errors.New("unexpected end of JSON input")}, "error decoding data: unexpected end of JSON input"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
