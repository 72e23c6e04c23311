package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeProducerFailure, "source broke")
	if err.Code != ErrCodeProducerFailure {
		t.Errorf("expected code %s, got %s", ErrCodeProducerFailure, err.Code)
	}
	if err.Message != "source broke" {
		t.Errorf("expected message 'source broke', got %q", err.Message)
	}
	if err.ExitCode != ExitProducer {
		t.Errorf("expected exit %d, got %d", ExitProducer, err.ExitCode)
	}
	if err.Retryable {
		t.Error("PRODUCER_FAILURE should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_Timeout_Success(t *testing.T) {
	err := Timeout("queue.get")
	if err.Code != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", err.Code)
	}
	if err.Details["operation"] != "queue.get" {
		t.Errorf("expected operation=queue.get, got %v", err.Details["operation"])
	}
	if !strings.Contains(err.Error(), "queue.get timed out") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestAppError_Configuration_EmptyField(t *testing.T) {
	err := Configuration("", "capacity must be positive")
	if _, ok := err.Details["field"]; ok {
		t.Error("expected no 'field' key in details when field is empty")
	}
	if err.ExitCode != ExitConfiguration {
		t.Errorf("expected exit %d, got %d", ExitConfiguration, err.ExitCode)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	root := fmt.Errorf("malformed element")
	err := ProducerFailure(nil).WithCause(root)
	if !stderrors.Is(err, root) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "cause: malformed element") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := ConsumerFailure(nil).WithDetail("items", 3)
	err.WithDetails(map[string]any{"role": "consumer", "items": 4})
	if err.Details["items"] != 4 {
		t.Errorf("expected items=4 after merge, got %v", err.Details["items"])
	}
	if err.Details["role"] != "consumer" {
		t.Errorf("expected role=consumer, got %v", err.Details["role"])
	}
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	sentinel := Timeout("queue.put")
	other := Timeout("queue.get")
	wrapped := fmt.Errorf("outer: %w", other)

	if !stderrors.Is(wrapped, sentinel) {
		t.Error("expected errors.Is to match TIMEOUT errors by code")
	}
	if stderrors.Is(wrapped, ProducerFailure(nil)) {
		t.Error("TIMEOUT should not match PRODUCER_FAILURE")
	}
}

func TestHasCode_Table(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct", Timeout("x"), ErrCodeTimeout, true},
		{"wrapped", fmt.Errorf("w: %w", ConsumerFailure(nil)), ErrCodeConsumerFailure, true},
		{"joined", stderrors.Join(ProducerFailure(nil), ConsumerFailure(nil)), ErrCodeConsumerFailure, true},
		{"other code", Timeout("x"), ErrCodeCanceled, false},
		{"plain", fmt.Errorf("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasCode(tc.err, tc.code); got != tc.want {
				t.Errorf("HasCode = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		exit      int
		retryable bool
	}{
		{"Timeout", Timeout("op"), ErrCodeTimeout, ExitTimeout, true},
		{"Canceled", Canceled("op", nil), ErrCodeCanceled, ExitCanceled, false},
		{"ProducerFailure", ProducerFailure(nil), ErrCodeProducerFailure, ExitProducer, false},
		{"ConsumerFailure", ConsumerFailure(nil), ErrCodeConsumerFailure, ExitConsumer, false},
		{"Configuration", Configuration("f", "r"), ErrCodeConfiguration, ExitConfiguration, false},
		{"Internal", Internal(nil), ErrCodeInternal, ExitFailure, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("code = %s, want %s", tc.err.Code, tc.code)
			}
			if tc.err.ExitCode != tc.exit {
				t.Errorf("exit = %d, want %d", tc.err.ExitCode, tc.exit)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("retryable = %v, want %v", tc.err.Retryable, tc.retryable)
			}
		})
	}
}

func TestExitCodeFor_Unknown(t *testing.T) {
	if got := ExitCodeFor("SOMETHING_ELSE"); got != ExitFailure {
		t.Errorf("expected %d for unknown code, got %d", ExitFailure, got)
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	err := ProducerFailure(fmt.Errorf("bad row")).WithDetail("items_sent", 2)
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeProducerFailure {
		t.Errorf("expected PRODUCER_FAILURE, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "bad row" {
		t.Errorf("expected cause 'bad row', got %q", resp.Error.Cause)
	}

	data, jerr := json.Marshal(resp)
	if jerr != nil {
		t.Fatal(jerr)
	}
	if !strings.Contains(string(data), `"code":"PRODUCER_FAILURE"`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", Internal(nil))
	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}

	_, ok = AsAppError(fmt.Errorf("not an app error"))
	if ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("expected IsAppError false for plain error")
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrap_AppErrorPassthrough(t *testing.T) {
	orig := Timeout("queue.put")
	if got := Wrap(orig); got != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}
}

func TestWrap_PlainError(t *testing.T) {
	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
}
