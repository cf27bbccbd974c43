package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUntil(t *testing.T, sc *bufio.Scanner, prefix string) string {
	t.Helper()
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, prefix) {
			return line
		}
	}
	t.Fatalf("stream ended before %q", prefix)
	return ""
}

func TestBroadcasterStreamsEvents(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	assert.Equal(t, "event: connected", readUntil(t, sc, "event:"))

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Broadcast(Event{Event: "product_created", ID: "1", Data: map[string]any{"id": 1}})
	assert.Equal(t, "event: product_created", readUntil(t, sc, "event:"))
	assert.Equal(t, "id: 1", readUntil(t, sc, "id:"))
	assert.Equal(t, `data: {"id":1}`, readUntil(t, sc, "data:"))
}

func TestBroadcasterRunLeavesStreamsUntilClose(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 1, b.ClientCount())

	b.Close()
	assert.Equal(t, 0, b.ClientCount())

	late := httptest.NewRecorder()
	b.ServeHTTP(late, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, late.Code)
}

func TestBroadcasterSkipsFullClients(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	client, ok := b.add()
	require.True(t, ok)
	for i := 0; i < clientBuffer+10; i++ {
		b.Broadcast(Event{Event: "x"})
	}
	assert.Len(t, client, clientBuffer)

	b.remove(client)
	b.remove(client)
	assert.Equal(t, 0, b.ClientCount())
}
