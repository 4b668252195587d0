package session_test

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithReadTimeout_Disabled(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = server.Close() }()
	defer func() { _ = client.Close() }()

	stream := session.WithReadTimeout(server, -time.Second)

	read := make(chan error, 1)
	go func() {
		buf := make([]byte, 4)
		_, err := io.ReadFull(stream, buf)
		read <- err
	}()

	select {
	case err := <-read:
		t.Fatalf("read returned without data: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	_, err := client.Write([]byte("ping"))
	require.NoError(t, err)
	assert.NoError(t, <-read)
}

func TestConnStream_Interrupt(t *testing.T) {
	t.Run("unblocks a pending read", func(t *testing.T) {
		server, client := net.Pipe()
		defer func() { _ = server.Close() }()
		defer func() { _ = client.Close() }()

		stream := session.WithReadTimeout(server, 0)

		read := make(chan error, 1)
		go func() {
			_, err := stream.Read(make([]byte, 1))
			read <- err
		}()

		time.Sleep(20 * time.Millisecond)
		stream.Interrupt()

		select {
		case err := <-read:
			assert.ErrorIs(t, err, session.ErrInterrupted)
		case <-time.After(2 * time.Second):
			t.Fatal("read was not interrupted")
		}
	})

	t.Run("fails later reads even with a read timeout", func(t *testing.T) {
		server, client := net.Pipe()
		defer func() { _ = server.Close() }()
		defer func() { _ = client.Close() }()

		stream := session.WithReadTimeout(server, time.Hour)
		stream.Interrupt()
		assert.True(t, stream.Interrupted())

		_, err := stream.Read(make([]byte, 1))
		assert.ErrorIs(t, err, session.ErrInterrupted)
	})

	t.Run("ends an idle session", func(t *testing.T) {
		server, client := net.Pipe()
		defer func() { _ = server.Close() }()
		defer func() { _ = client.Close() }()

		d := newDispatcher(t, memStore{})
		stream := session.WithReadTimeout(server, 0)

		done := make(chan error, 1)
		go func() {
			done <- session.New(stream, d, session.Config{}).Run(context.Background())
		}()

		time.Sleep(20 * time.Millisecond)
		stream.Interrupt()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, webroot.ErrConnection)
			assert.ErrorIs(t, err, session.ErrInterrupted)
		case <-time.After(2 * time.Second):
			t.Fatal("session did not end")
		}
	})
}

func TestWithReadTimeout_IdleClientEndsSession(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = server.Close() }()
	defer func() { _ = client.Close() }()

	d := newDispatcher(t, memStore{})
	stream := session.WithReadTimeout(server, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- session.New(stream, d, session.Config{}).Run(context.Background())
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, webroot.ErrConnection)
		assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("session did not time out")
	}
}

func TestWithReadTimeout_ServesOverPipe(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = server.Close() }()

	d := newDispatcher(t, memStore{})
	stream := session.WithReadTimeout(server, time.Second)

	done := make(chan error, 1)
	go func() {
		done <- session.New(stream, d, session.Config{}).Run(context.Background())
	}()

	go func() {
		_, _ = client.Write([]byte(get("/forbidden")))
	}()

	want := "HTTP/1.1 403 FORBIDDEN\r\n"
	buf := make([]byte, len(want))
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := readFull(client, buf)
	require.NoError(t, err)
	assert.Equal(t, want, string(buf))

	require.NoError(t, client.Close())
	assert.NoError(t, <-done)
}

func readFull(c net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := c.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
