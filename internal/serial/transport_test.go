package serial

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePort mimics go.bug.st/serial: Read returns (0, nil) once the read
// timeout elapses without data.
type fakePort struct {
	readCh  chan []byte
	timeout time.Duration

	writeMu  sync.Mutex
	writes   []string
	writeErr error

	closed bool
}

func newFakePort() *fakePort {
	return &fakePort{readCh: make(chan []byte, 16), timeout: 20 * time.Millisecond}
}

func (f *fakePort) Read(p []byte) (int, error) {
	select {
	case b, ok := <-f.readCh:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	case <-time.After(f.timeout):
		return 0, nil
	}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, string(p))
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func (f *fakePort) SetReadTimeout(d time.Duration) error {
	f.timeout = d
	return nil
}

func testConfig() PortConfig {
	cfg := DefaultConfig()
	cfg.ReadTimeoutMs = 50
	return cfg
}

func TestReadLineSplitsChunks(t *testing.T) {
	port := newFakePort()
	tr := NewTransport("fake", port, testConfig())

	port.readCh <- []byte("TOTAL_SHI")
	port.readCh <- []byte("PS=3\r\nATTACK\nWI")

	for _, want := range []string{"TOTAL_SHIPS=3", "ATTACK"} {
		got, err := tr.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %q, got=%q", want, got)
		}
	}

	// "WI" is incomplete and must survive the timeout
	if _, err := tr.ReadLine(); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}
	port.readCh <- []byte("N\n")
	got, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if got != "WIN" {
		t.Errorf("expected WIN, got=%q", got)
	}

	if stats := tr.Stats(); stats.LinesReceived != 3 {
		t.Errorf("expected 3 lines received, got %d", stats.LinesReceived)
	}
}

func TestReadLineTimeoutIsBounded(t *testing.T) {
	port := newFakePort()
	tr := NewTransport("fake", port, testConfig())

	start := time.Now()
	_, err := tr.ReadLine()
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected timeout to return promptly, took %v", elapsed)
	}
}

func TestReadLinePartialNearDeadline(t *testing.T) {
	port := newFakePort()
	cfg := testConfig()
	cfg.ReadTimeoutMs = 100
	tr := NewTransport("fake", port, cfg)

	go func() {
		time.Sleep(90 * time.Millisecond)
		port.readCh <- []byte("PARTIAL")
	}()

	start := time.Now()
	_, err := tr.ReadLine()
	elapsed := time.Since(start)
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("expected ReadLine within one timeout, took %v", elapsed)
	}

	port.readCh <- []byte("\n")
	got, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if got != "PARTIAL" {
		t.Errorf("expected PARTIAL, got=%q", got)
	}
}

func TestReadLineReportsIOErrors(t *testing.T) {
	port := newFakePort()
	close(port.readCh)
	tr := NewTransport("fake", port, testConfig())

	_, err := tr.ReadLine()
	if !errors.Is(err, ErrReadFailed) {
		t.Fatalf("expected ErrReadFailed, got %v", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF in the chain, got %v", err)
	}
	if stats := tr.Stats(); stats.Errors != 1 {
		t.Errorf("expected 1 error counted, got %d", stats.Errors)
	}
}

func TestReadLineOverlongLine(t *testing.T) {
	port := newFakePort()
	cfg := testConfig()
	cfg.MaxLineLength = 4
	tr := NewTransport("fake", port, cfg)

	port.readCh <- []byte("ABCDEF\n")
	got, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if got != "ABCDEF" && got != "ABCD" {
		t.Errorf("unexpected overlong line: %q", got)
	}
}

func TestWriteLineAppendsNewline(t *testing.T) {
	port := newFakePort()
	tr := NewTransport("fake", port, testConfig())

	if err := tr.WriteLine("START"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}
	if err := tr.WriteLine("SET DIFFICULTY=2\n"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}

	want := []string{"START\n", "SET DIFFICULTY=2\n"}
	if len(port.writes) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(port.writes))
	}
	for i := range want {
		if port.writes[i] != want[i] {
			t.Errorf("write %d: expected %q, got=%q", i, want[i], port.writes[i])
		}
	}
}

func TestWriteLineError(t *testing.T) {
	port := newFakePort()
	unplugged := errors.New("device unplugged")
	port.writeErr = unplugged
	tr := NewTransport("fake", port, testConfig())

	err := tr.WriteLine("START")
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	if !errors.Is(err, unplugged) {
		t.Errorf("expected the port error to stay in the chain, got %v", err)
	}
}

func TestClosedTransport(t *testing.T) {
	port := newFakePort()
	tr := NewTransport("fake", port, testConfig())

	if err := tr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if !port.closed {
		t.Error("expected underlying port to be closed")
	}
	if _, err := tr.ReadLine(); !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected ErrPortClosed on read, got %v", err)
	}
	if err := tr.WriteLine("START"); !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected ErrPortClosed on write, got %v", err)
	}
}

func TestPortConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.BaudRate = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for baud 0, got %v", err)
	}

	bad = DefaultConfig()
	bad.ReadTimeoutMs = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero timeout, got %v", err)
	}
}

func TestParseParityAndStopBits(t *testing.T) {
	if p, err := ParseParity("Even"); err != nil || p != ParityEven {
		t.Errorf("expected ParityEven, got %v (%v)", p, err)
	}
	if _, err := ParseParity("sideways"); err == nil {
		t.Error("expected error for unknown parity")
	}
	if sb, err := ParseStopBits(2); err != nil || sb != StopBits2 {
		t.Errorf("expected StopBits2, got %v (%v)", sb, err)
	}
	if _, err := ParseStopBits(3); err == nil {
		t.Error("expected error for 3 stop bits")
	}
}
