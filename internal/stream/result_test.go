package stream

import (
	"errors"
	"testing"

	"github.com/brianly1003/phxstream/internal/demand"
	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/testutil"
)

func newPush() *testutil.MockPush {
	return testutil.NewMockChannel("room:1").Push("new_msg", events.Payload{"body": "hi"}, 0).(*testutil.MockPush)
}

func TestResultSubscription_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		wantValues  int
		wantDone    int
		wantErr     error
		wantErrKind domain.PushErrorKind
	}{
		{"ok", events.ReplyStatusOK, 1, 1, nil, 0},
		{"error", events.ReplyStatusError, 0, 0, domain.ErrPushRejected, domain.Rejected},
		{"timeout", events.ReplyStatusTimeout, 0, 0, domain.ErrPushTimedOut, domain.TimedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			push := newPush()
			rec := testutil.NewRecordingObserver[events.Message]()

			h := Result(push).Attach(rec)
			h.Request(demand.Unlimited)
			push.Trigger(tt.status, events.Payload{"reason": tt.name})

			if n := len(rec.Values()); n != tt.wantValues {
				t.Errorf("values = %d, want %d", n, tt.wantValues)
			}
			if rec.Completions() != tt.wantDone {
				t.Errorf("completions = %d, want %d", rec.Completions(), tt.wantDone)
			}

			failures := rec.Failures()
			if tt.wantErr == nil {
				if len(failures) != 0 {
					t.Errorf("failures = %v, want none", failures)
				}
				reply := rec.Values()[0]
				if reply.Response()["reason"] != "ok" {
					t.Errorf("reply response = %v, want reason=ok", reply.Response())
				}
				return
			}

			if len(failures) != 1 {
				t.Fatalf("failures = %v, want exactly one", failures)
			}
			if !errors.Is(failures[0], tt.wantErr) {
				t.Errorf("failure = %v, want %v", failures[0], tt.wantErr)
			}
			var pushErr *domain.PushError
			if !errors.As(failures[0], &pushErr) {
				t.Fatalf("failure %T is not *domain.PushError", failures[0])
			}
			if pushErr.Kind != tt.wantErrKind {
				t.Errorf("Kind = %v, want %v", pushErr.Kind, tt.wantErrKind)
			}
			if pushErr.Reply.Response()["reason"] != tt.name {
				t.Errorf("Reply response = %v, want reason=%s", pushErr.Reply.Response(), tt.name)
			}
		})
	}
}

func TestResultSubscription_DeliversOnce(t *testing.T) {
	push := newPush()
	rec := testutil.NewRecordingObserver[events.Message]()

	sub := NewResultSubscription(push, rec)
	sub.Request(demand.Max(1))

	push.Trigger(events.ReplyStatusOK, nil)
	// A misbehaving collaborator firing again must not reach the observer.
	sub.succeed(events.Message{})
	sub.reject(events.Message{})

	if n := len(rec.Values()); n != 1 {
		t.Errorf("values = %d, want 1", n)
	}
	if rec.Completions() != 1 {
		t.Errorf("completions = %d, want 1", rec.Completions())
	}
	if n := len(rec.Failures()); n != 0 {
		t.Errorf("failures = %d, want 0", n)
	}
	if !sub.done() {
		t.Error("done() = false after outcome")
	}
}

func TestResultSubscription_LazyRegistration(t *testing.T) {
	push := newPush()
	rec := testutil.NewRecordingObserver[events.Message]()

	h := Result(push).Attach(rec)
	if n := push.HookCount(events.ReplyStatusOK); n != 0 {
		t.Fatalf("hooks before Request = %d, want 0", n)
	}

	h.Request(demand.None)
	if n := push.HookCount(events.ReplyStatusOK); n != 0 {
		t.Fatalf("hooks after Request(None) = %d, want 0", n)
	}

	h.Request(demand.Max(1))
	h.Request(demand.Max(1))
	for _, status := range []string{events.ReplyStatusOK, events.ReplyStatusError, events.ReplyStatusTimeout} {
		if n := push.HookCount(status); n != 1 {
			t.Errorf("hooks for %q = %d, want 1", status, n)
		}
	}
}

func TestResultSubscription_AlreadyResolved(t *testing.T) {
	push := newPush()
	push.Trigger(events.ReplyStatusTimeout, nil)

	rec := testutil.NewRecordingObserver[events.Message]()
	Result(push).Attach(rec).Request(demand.Unlimited)

	failures := rec.Failures()
	if len(failures) != 1 || !errors.Is(failures[0], domain.ErrPushTimedOut) {
		t.Errorf("failures = %v, want one timeout", failures)
	}
}

func TestResultSubscription_CancelBeforeOutcome(t *testing.T) {
	push := newPush()
	rec := testutil.NewRecordingObserver[events.Message]()

	h := Result(push).Attach(rec)
	h.Request(demand.Unlimited)
	h.Cancel()
	h.Cancel()
	push.Trigger(events.ReplyStatusOK, nil)

	if n := len(rec.Values()); n != 0 {
		t.Errorf("values = %d after Cancel, want 0", n)
	}
	if rec.Completions() != 0 {
		t.Errorf("completions = %d after Cancel, want 0", rec.Completions())
	}
}

func TestResultSubscription_CancelBeforeRequest(t *testing.T) {
	push := newPush()
	rec := testutil.NewRecordingObserver[events.Message]()

	h := Result(push).Attach(rec)
	h.Cancel()
	h.Request(demand.Unlimited)

	if n := push.HookCount(events.ReplyStatusOK); n != 0 {
		t.Errorf("hooks = %d after Cancel, want 0", n)
	}
}

func TestResult_MultipleAttaches(t *testing.T) {
	push := newPush()
	s := Result(push)

	first := testutil.NewRecordingObserver[events.Message]()
	second := testutil.NewRecordingObserver[events.Message]()
	s.Attach(first).Request(demand.Unlimited)
	s.Attach(second).Request(demand.Unlimited)

	push.Trigger(events.ReplyStatusOK, nil)

	if first.Completions() != 1 || second.Completions() != 1 {
		t.Errorf("completions = (%d, %d), want (1, 1)", first.Completions(), second.Completions())
	}
}

func TestResultSubscription_ReleasesRequest(t *testing.T) {
	tests := []struct {
		name string
		act  func(sub *ResultSubscription)
		want bool
	}{
		{"before request", func(*ResultSubscription) {}, true},
		{"after zero request", func(sub *ResultSubscription) { sub.Request(demand.None) }, true},
		{"after registration", func(sub *ResultSubscription) { sub.Request(demand.Max(1)) }, false},
		{"after cancel", func(sub *ResultSubscription) { sub.Cancel() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := NewResultSubscription(newPush(), testutil.NewRecordingObserver[events.Message]())
			tt.act(sub)

			sub.mu.Lock()
			held := sub.request != nil
			sub.mu.Unlock()
			if held != tt.want {
				t.Errorf("holds request = %v, want %v", held, tt.want)
			}
		})
	}
}
