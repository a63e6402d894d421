package mcp

import (
	"context"
	"testing"

	"github.com/mcpkit/mcpcore/code"
)

func TestRegisterMethodRoundTrip(t *testing.T) {
	reg := NewMethodRegistry()
	RegisterMethod(reg, "add", func(_ context.Context, p struct{ A, B int }) (int, error) {
		return p.A + p.B, nil
	})

	req := NewRequest(IntID(1), "add", Value(`{"A":2,"B":3}`))
	result, rpcErr := reg.dispatch(context.Background(), req)
	if rpcErr != nil {
		t.Fatalf("dispatch: %v", rpcErr)
	}
	if string(result) != "5" {
		t.Errorf("dispatch result = %s, want 5", result)
	}
}

func TestRegistryMethodNotFound(t *testing.T) {
	reg := NewMethodRegistry()
	req := NewRequest(IntID(1), "missing", nil)
	_, rpcErr := reg.dispatch(context.Background(), req)
	if rpcErr == nil {
		t.Fatalf("dispatch of an unregistered method should fail")
	}
	if rpcErr.Code != code.MethodNotFound {
		t.Errorf("rpcErr.Code = %v, want %v", rpcErr.Code, code.MethodNotFound)
	}
}

func TestRegistryInvalidParams(t *testing.T) {
	reg := NewMethodRegistry()
	RegisterMethod(reg, "add", func(_ context.Context, p struct{ A int }) (int, error) {
		return p.A, nil
	})
	req := NewRequest(IntID(1), "add", Value(`"not an object"`))
	_, rpcErr := reg.dispatch(context.Background(), req)
	if rpcErr == nil {
		t.Fatalf("dispatch with mistyped params should fail")
	}
	if rpcErr.Code != code.InvalidParams {
		t.Errorf("rpcErr.Code = %v, want %v", rpcErr.Code, code.InvalidParams)
	}
}

func TestRegisterMethodReplacesPrevious(t *testing.T) {
	reg := NewMethodRegistry()
	RegisterMethod(reg, "f", func(_ context.Context, _ struct{}) (int, error) { return 1, nil })
	RegisterMethod(reg, "f", func(_ context.Context, _ struct{}) (int, error) { return 2, nil })

	result, rpcErr := reg.dispatch(context.Background(), NewRequest(IntID(1), "f", nil))
	if rpcErr != nil {
		t.Fatalf("dispatch: %v", rpcErr)
	}
	if string(result) != "2" {
		t.Errorf("dispatch result = %s, want 2 (latest registration should win)", result)
	}
}

func TestUnregister(t *testing.T) {
	reg := NewMethodRegistry()
	RegisterMethod(reg, "f", func(_ context.Context, _ struct{}) (int, error) { return 1, nil })
	reg.Unregister("f")
	if _, ok := reg.Lookup("f"); ok {
		t.Errorf("Lookup should fail after Unregister")
	}
}
