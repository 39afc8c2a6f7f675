package listener

import (
	"errors"
	"net"
	"strconv"
	"testing"
)

func TestBind_EphemeralPortIsAssigned(t *testing.T) {
	l, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	if l.Port() == 0 {
		t.Error("Port() = 0, want OS-assigned nonzero port")
	}
	if got, want := l.Address(), "127.0.0.1:"+strconv.Itoa(l.Port()); got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}
	if got := l.Addr().(*net.TCPAddr).Port; got != l.Port() {
		t.Errorf("Addr().Port = %d, want %d", got, l.Port())
	}
}

func TestBind_TwoEphemeralBindsGetDifferentPorts(t *testing.T) {
	first, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer first.Close()
	second, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer second.Close()

	if first.Port() == second.Port() {
		t.Errorf("both listeners got port %d, want distinct ports", first.Port())
	}
}

func TestBind_PortInUse(t *testing.T) {
	taken, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer taken.Close()

	l, err := Bind("127.0.0.1", taken.Port())
	if err == nil {
		l.Close()
		t.Fatal("Bind() on a port in use: expected error, got nil")
	}
	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("error = %T, want *BindError", err)
	}
	if bindErr.Addr != taken.Address() {
		t.Errorf("BindError.Addr = %q, want %q", bindErr.Addr, taken.Address())
	}
	if bindErr.Unwrap() == nil {
		t.Error("BindError should wrap the underlying OS error")
	}
}

func TestBind_InvalidAddress(t *testing.T) {
	tests := []struct {
		name string
		host string
		port int
	}{
		{"negative port", "127.0.0.1", -1},
		{"port too large", "127.0.0.1", 70000},
		{"unresolvable host", "no such host.invalid", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := Bind(tc.host, tc.port)
			if err == nil {
				l.Close()
				t.Fatal("expected error, got nil")
			}
			var bindErr *BindError
			if !errors.As(err, &bindErr) {
				t.Errorf("error = %T, want *BindError", err)
			}
		})
	}
}
