package lattice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds_MatchExactlyOneSentinel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"validation", &ValidationError{Field: "query", Reason: "must not be empty"}, KindValidation},
		{"transport", &TransportError{Op: "search", Err: errors.New("connection refused")}, KindTransport},
		{"service", &ServiceError{StatusCode: 500, Message: "boom"}, KindService},
		{"protocol", &ProtocolError{Reason: "bad"}, KindProtocol},
	}

	sentinels := []error{ErrValidation, ErrTransport, ErrService, ErrProtocol}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := 0
			for _, s := range sentinels {
				if errors.Is(tt.err, s) {
					matches++
				}
			}
			assert.Equal(t, 1, matches)
			assert.Equal(t, tt.kind, KindOf(tt.err))

			wrapped := fmt.Errorf("indexing handbook: %w", tt.err)
			assert.Equal(t, tt.kind, KindOf(wrapped))
		})
	}

	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindNone, KindOf(errors.New("unrelated")))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "lattice: invalid query: must not be empty",
		(&ValidationError{Field: "query", Reason: "must not be empty"}).Error())
	assert.Equal(t, "lattice: service returned 404: not found",
		(&ServiceError{StatusCode: 404, Message: "not found"}).Error())
	assert.Equal(t, "lattice: protocol error: bad",
		(&ProtocolError{Reason: "bad"}).Error())
	assert.Contains(t,
		(&TransportError{Op: "list", Err: errors.New("dial tcp: refused")}).Error(),
		"dial tcp: refused")
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&TransportError{Op: "search", Err: cause})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestServiceError_ErrorField(t *testing.T) {
	svc := newFakeService(t, respond(http.StatusNotFound, `{"error":"not found"}`))

	_, err := svc.Client().List(context.Background(), ListRequest{})
	require.Error(t, err)

	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 404, se.StatusCode)
	assert.Equal(t, "not found", se.Message)
	assert.True(t, IsServiceError(err))
}

func TestServiceError_Message(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"no error field", http.StatusBadRequest, `{"detail":"bad k"}`, `{"detail":"bad k"}`},
		{"null error field", http.StatusBadRequest, `{"error":null,"code":7}`, `{"code":7,"error":null}`},
		{"structured error field", http.StatusUnprocessableEntity, `{"error":{"field":"k"}}`, `{"field":"k"}`},
		{"non-JSON body", http.StatusBadGateway, `<html>bad gateway</html>`, `<html>bad gateway</html>`},
		{"empty body", http.StatusServiceUnavailable, ``, ``},
		{"array body", http.StatusInternalServerError, `["a","b"]`, `["a","b"]`},
		{"trailing text after object", http.StatusInternalServerError, `{"error":"busy"} retry later`, `{"error":"busy"} retry later`},
		{"large number in error", http.StatusConflict, `{"error":{"doc":9007199254740993}}`, `{"doc":9007199254740993}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(t, respond(tt.status, tt.body))

			_, err := svc.Client().Clear(context.Background(), ClearRequest{})
			se, ok := AsServiceError(err)
			require.True(t, ok, "expected service error, got %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestSuccessfulResponse_NonObject(t *testing.T) {
	svc := newFakeService(t, respond(http.StatusOK, `[{"text":"a"}]`))

	_, err := svc.Client().Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
	assert.Contains(t, err.Error(), "expected JSON object, got array")
}

func TestSuccessfulResponse_NonJSONBecomesErrorPayload(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, _ recordedRequest) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok, queued"))
	})

	payload, err := svc.Client().List(context.Background(), ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"error": "ok, queued"}, payload)
}

func TestTransportError_ServerUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client, err := Connect(testAPIKey, WithBaseURL("http://"+addr))
	require.NoError(t, err)

	_, err = client.Progress(context.Background(), "job-1")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)
}

func TestTransportError_Timeout(t *testing.T) {
	release := make(chan struct{})
	svc := newFakeService(t, func(w http.ResponseWriter, _ recordedRequest) {
		<-release
		writeJSON(w, http.StatusOK, `{}`)
	})
	defer close(release)

	client := svc.Client(WithTimeout(50 * time.Millisecond))

	_, err := client.List(context.Background(), ListRequest{})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestTransportError_ContextCanceled(t *testing.T) {
	svc := newFakeService(t, respond(http.StatusOK, `{}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Client().Clear(ctx, ClearRequest{})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "service", ErrorKind(&ServiceError{StatusCode: 503}))
	assert.Equal(t, "", ErrorKind(nil))
}
