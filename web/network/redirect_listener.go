// Package network holds listener wrappers for the web server.
package network

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// tlsHandshake is the record type byte every TLS client hello starts with.
const tlsHandshake = 0x16

// RedirectListener sits under a tls.Listener on a TLS port. Connections
// that open with plain HTTP get a 308 to the https URL and are closed;
// TLS connections pass through untouched.
type RedirectListener struct {
	net.Listener
}

func NewRedirectListener(listener net.Listener) net.Listener {
	return &RedirectListener{Listener: listener}
}

func (l *RedirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &peekConn{Conn: conn, r: bufio.NewReader(conn)}, nil
}

type peekConn struct {
	net.Conn
	r       *bufio.Reader
	checked bool
}

func (c *peekConn) Read(buf []byte) (int, error) {
	if !c.checked {
		c.checked = true
		first, err := c.r.Peek(1)
		if err != nil {
			return 0, err
		}
		if first[0] != tlsHandshake {
			c.redirect()
			return 0, net.ErrClosed
		}
	}
	return c.r.Read(buf)
}

func (c *peekConn) redirect() {
	defer c.Conn.Close()
	req, err := http.ReadRequest(c.r)
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusPermanentRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", req.Host, req.RequestURI))
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
}
