package rpc

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleReaderTimesOutOnSilence(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	r := NewIdleReader(server, 20*time.Millisecond)
	buf := make([]byte, 16)
	_, err := r.Read(buf)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestIdleReaderResetsDeadlineOnEachRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	r := NewIdleReader(server, 200*time.Millisecond)
	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Write([]byte("a"))
		time.Sleep(100 * time.Millisecond)
		client.Write([]byte("b"))
		client.Close()
	}()

	buf := make([]byte, 1)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
	<-done
}
