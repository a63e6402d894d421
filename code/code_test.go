package code

import (
	"context"
	"errors"
	"testing"
)

func TestRegistration(t *testing.T) {
	const message = "fun for the whole family"
	c := Register(-100, message)
	if got := c.Error(); got != message {
		t.Errorf("Register(-100): got %q, want %q", got, message)
	} else if c != -100 {
		t.Errorf("Register(-100): got %d instead", c)
	}
}

func TestRegistrationError(t *testing.T) {
	defer func() {
		if v := recover(); v != nil {
			t.Logf("Register correctly panicked: %v", v)
		} else {
			t.Fatalf("Register should have panicked on input %d, but did not", ParseError)
		}
	}()
	Register(int32(ParseError), "bogus")
}

type fakeCoded struct{ code Code }

func (f fakeCoded) Error() string { return "fake" }
func (f fakeCoded) ErrCode() Code { return f.code }

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, NoError},
		{"coded", fakeCoded{code: InvalidParams}, InvalidParams},
		{"wrapped-coded", errors.Join(fakeCoded{code: MethodNotFound}), MethodNotFound},
		{"cancelled", context.Canceled, Cancelled},
		{"deadline", context.DeadlineExceeded, DeadlineExceeded},
		{"other", errors.New("boom"), InternalError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := FromError(test.err); got != test.want {
				t.Errorf("FromError(%v) = %v, want %v", test.err, got, test.want)
			}
		})
	}
}
