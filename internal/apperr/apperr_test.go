package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(KindUnknownTool, "dispatch", "tool %q is not in the catalog", "nope")
	if got := err.Error(); got != `unknown_tool: dispatch: tool "nope" is not in the catalog` {
		t.Fatalf("unexpected message: %s", got)
	}
	bare := &Error{Kind: KindConnection, Err: errors.New("boom")}
	if got := bare.Error(); got != "connection: boom" {
		t.Fatalf("unexpected message without op: %s", got)
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil error should print <nil>")
	}
}

func TestKindThroughWrapping(t *testing.T) {
	root := errors.New("dial tcp: refused")
	err := fmt.Errorf("query failed: %w", Wrap(KindCompletionEndpoint, "chat/completions", root))

	if KindOf(err) != KindCompletionEndpoint {
		t.Fatalf("expected completion kind, got %q", KindOf(err))
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected root error to be reachable")
	}
	if !errors.Is(err, &Error{Kind: KindCompletionEndpoint}) {
		t.Fatalf("expected kind match through errors.Is")
	}
	if errors.Is(err, &Error{Kind: KindConnection}) {
		t.Fatalf("did not expect connection kind to match")
	}
	if IsFatal(err) {
		t.Fatalf("completion failures are not fatal")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindToolExecution, "call", nil) != nil {
		t.Fatalf("wrapping nil should return nil")
	}
	if KindOf(nil) != "" {
		t.Fatalf("nil error has no kind")
	}
}

func TestIsFatal(t *testing.T) {
	for _, kind := range []Kind{KindConnection, KindNotConnected} {
		if !IsFatal(New(kind, "op", "x")) {
			t.Fatalf("expected %s to be fatal", kind)
		}
	}
	for _, kind := range []Kind{KindCompletionEndpoint, KindArgumentParse, KindToolExecution, KindUnknownTool} {
		if IsFatal(New(kind, "op", "x")) {
			t.Fatalf("expected %s to be recoverable", kind)
		}
	}
	if !strings.Contains(New(KindToolExecution, "", "x").Error(), "tool_execution") {
		t.Fatalf("kind should be part of the message")
	}
}
