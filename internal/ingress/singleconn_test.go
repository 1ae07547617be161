package ingress

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleConnListenerYieldsOnce(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()

	ln := newSingleConnListener(c1)

	got, err := ln.Accept()
	require.NoError(t, err)
	require.Equal(t, c1, got)

	_, err = ln.Accept()
	require.ErrorIs(t, err, io.EOF)
}

func TestSingleConnListenerAddrAndClose(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	ln := newSingleConnListener(c1)
	require.Equal(t, c1.LocalAddr(), ln.Addr())
	require.NoError(t, ln.Close())

	_, _ = ln.Accept()
	require.Nil(t, ln.Addr())
}
