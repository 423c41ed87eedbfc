package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestEngine(h *JSONRPCHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/rpc", h.Handle)
	return engine
}

func postRPC(t *testing.T, engine *gin.Engine, body string) JSONRPCResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected HTTP 200, got %d", w.Code)
	}
	var resp JSONRPCResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return resp
}

func TestJSONRPCMethodDispatch(t *testing.T) {
	h := NewJSONRPCHandler()
	h.RegisterMethod("echo", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
		var p map[string]interface{}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, NewError(ErrInvalidParams, "invalid parameters format")
		}
		return p, nil
	})
	engine := newTestEngine(h)

	resp := postRPC(t, engine, `{"jsonrpc":"2.0","id":1,"method":"echo","params":{"a":"b"}}`)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok || result["a"] != "b" {
		t.Errorf("Expected echoed params, got: %v", resp.Result)
	}
}

func TestJSONRPCErrorCodes(t *testing.T) {
	h := NewJSONRPCHandler()
	h.RegisterMethod("fail.invalid", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
		return nil, NewError(ErrInvalidParams, "bad input")
	})
	h.RegisterMethod("fail.wrapped", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
		return nil, WrapError(ErrInvalidParams, "bad input", errors.New("page must be >= 0"))
	})
	h.RegisterMethod("fail.internal", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
		return nil, errors.New("boom")
	})
	engine := newTestEngine(h)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"parse error", `{not json`, ErrParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"fail.invalid"}`, ErrInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"nope"}`, ErrMethodNotFound},
		{"invalid params", `{"jsonrpc":"2.0","id":1,"method":"fail.invalid","params":{}}`, ErrInvalidParams},
		{"wrapped invalid params", `{"jsonrpc":"2.0","id":1,"method":"fail.wrapped","params":{}}`, ErrInvalidParams},
		{"handler failure", `{"jsonrpc":"2.0","id":1,"method":"fail.internal","params":{}}`, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postRPC(t, engine, tt.body)
			if resp.Error == nil {
				t.Fatal("Expected an error response")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Expected code %d, got %d", tt.wantCode, resp.Error.Code)
			}
			if resp.Result != nil {
				t.Errorf("Expected no result alongside error, got: %v", resp.Result)
			}
		})
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapError(ErrInvalidParams, "bad input", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	var apiErr *Error
	if !errors.As(error(err), &apiErr) {
		t.Fatal("Expected errors.As to match *Error")
	}
	if apiErr.Code != ErrInvalidParams {
		t.Errorf("Expected code %d, got %d", ErrInvalidParams, apiErr.Code)
	}
}
