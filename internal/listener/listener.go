package listener

import (
	"fmt"
	"net"
	"strconv"
)

// BindError is returned when the requested address cannot be bound
// (already in use, insufficient privilege, invalid host).
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Listener is a bound TCP listener whose concrete address is known.
// Port 0 at bind time is resolved to the OS-assigned port.
type Listener struct {
	net.Listener
	host string
	port int
}

// Bind reserves host:port. Pass port 0 to let the OS choose a free port;
// Port() then reports the one actually assigned.
func Bind(host string, port int) (*Listener, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if port < 0 || port > 65535 {
		return nil, &BindError{Addr: addr, Err: fmt.Errorf("port out of range")}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		return nil, &BindError{Addr: addr, Err: fmt.Errorf("unexpected address type %T", ln.Addr())}
	}
	return &Listener{Listener: ln, host: host, port: tcpAddr.Port}, nil
}

// Host returns the host the listener was bound to, as requested.
func (l *Listener) Host() string {
	return l.host
}

// Port returns the concrete port assigned to the listener.
func (l *Listener) Port() int {
	return l.port
}

// Address returns host:port with the assigned port.
func (l *Listener) Address() string {
	return net.JoinHostPort(l.host, strconv.Itoa(l.port))
}
