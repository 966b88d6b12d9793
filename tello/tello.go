// tello.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package tello

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultTelloAddr        = "192.168.10.1"
	defaultTelloControlPort = 8889
	defaultLocalControlPort = 8800
	defaultLocalStatePort   = 8890
)

const (
	defaultResponseTimeout = 7 * time.Second
	defaultTakeoffTimeout  = 20 * time.Second
	defaultStateWait       = time.Second
	stateWaitPoll          = 50 * time.Millisecond
	minCommandGap          = 100 * time.Millisecond
	connectAttempts        = 3
)

// Errors returned by the Tello command channel.
var (
	ErrNotConnected  = errors.New("tello: not connected")
	ErrTimeout       = errors.New("tello: timeout waiting for response")
	ErrCommandFailed = errors.New("tello: command failed")
	ErrOutOfRange    = errors.New("tello: argument out of range")
	ErrNoState       = errors.New("tello: no state received yet")
)

// Tello holds the current state of a connection to a Tello drone speaking the SDK text protocol.
// The zero value is usable and will connect to the default addresses.
type Tello struct {
	ctrlMu                      sync.Mutex // this mutex serialises commands and protects the control fields
	ctrlConn, stateConn         *net.UDPConn
	ctrlStopChan, stateStopChan chan bool
	ctrlConnected               bool
	ctrlLastSent                time.Time
	respChan                    chan string
	streamStop                  chan struct{}
	flyMu                       sync.RWMutex
	flying                      bool         // set by a successful takeoff, cleared by land or emergency
	fdMu                        sync.RWMutex // this mutex protects the flight data fields
	fd                          FlightData   // our private amalgamated store of the latest state
	fdReceived                  bool         // has any state packet arrived?
	fdStreaming                 bool         // are we currently sending FlightData out?

	addr            string
	ctrlPort        int
	localPort       int
	statePort       int
	responseTimeout time.Duration
	takeoffTimeout  time.Duration
	stateWait       time.Duration
	logger          *slog.Logger
}

// Option configures a Tello created by New.
type Option func(*Tello)

// WithAddress sets the drone's IP address.
func WithAddress(addr string) Option { return func(t *Tello) { t.addr = addr } }

// WithControlPort sets the drone's UDP command port.
func WithControlPort(port int) Option { return func(t *Tello) { t.ctrlPort = port } }

// WithLocalPort sets the local UDP port commands are sent from. 0 picks a free port.
func WithLocalPort(port int) Option { return func(t *Tello) { t.localPort = port } }

// WithStatePort sets the local UDP port on which state packets are received. 0 picks a free port.
func WithStatePort(port int) Option { return func(t *Tello) { t.statePort = port } }

// WithResponseTimeout bounds the wait for each command response.
func WithResponseTimeout(d time.Duration) Option { return func(t *Tello) { t.responseTimeout = d } }

// WithTakeoffTimeout bounds the wait for the takeoff acknowledgement, which the Tello
// only sends once it is hovering.
func WithTakeoffTimeout(d time.Duration) Option { return func(t *Tello) { t.takeoffTimeout = d } }

// WithStateWait bounds how long Connect waits for the first state packet. 0 skips the wait.
func WithStateWait(d time.Duration) Option { return func(t *Tello) { t.stateWait = d } }

// WithLogger routes the listener diagnostics to logger.
func WithLogger(logger *slog.Logger) Option { return func(t *Tello) { t.logger = logger } }

// New returns an unconnected Tello configured with the default SDK addresses, as modified by opts.
func New(opts ...Option) *Tello {
	tello := &Tello{
		addr:            defaultTelloAddr,
		ctrlPort:        defaultTelloControlPort,
		localPort:       defaultLocalControlPort,
		statePort:       defaultLocalStatePort,
		responseTimeout: defaultResponseTimeout,
		takeoffTimeout:  defaultTakeoffTimeout,
		stateWait:       defaultStateWait,
	}
	for _, opt := range opts {
		opt(tello)
	}
	return tello
}

// Connect connects using the addresses configured by New.
// It is a no-op if the control connection is already up.
func (tello *Tello) Connect() error {
	if tello.ControlConnected() {
		return nil
	}
	if tello.addr == "" {
		return tello.ControlConnectDefault()
	}
	return tello.ControlConnect(tello.addr, tello.ctrlPort, tello.localPort)
}

// ControlConnect attempts to connect to a Tello at the provided network addr.
// It starts listening for command responses and state packets, puts the Tello into SDK mode
// and waits for it to acknowledge, then gives the state stream a moment to deliver its first packet.
func (tello *Tello) ControlConnect(udpAddr string, droneUDPPort int, localUDPPort int) (err error) {
	// first check that we are not already connected
	tello.ctrlMu.Lock()
	if tello.ctrlConnected || tello.ctrlConn != nil {
		tello.ctrlMu.Unlock()
		return errors.New("tello: already connected")
	}

	droneAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(udpAddr, strconv.Itoa(droneUDPPort)))
	if err != nil {
		tello.ctrlMu.Unlock()
		return err
	}
	localAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(localUDPPort))
	if err != nil {
		tello.ctrlMu.Unlock()
		return err
	}
	tello.ctrlConn, err = net.DialUDP("udp", localAddr, droneAddr)
	if err != nil {
		tello.ctrlMu.Unlock()
		return err
	}
	stateAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(tello.statePortOrDefault()))
	if err == nil {
		tello.stateConn, err = net.ListenUDP("udp", stateAddr)
	}
	if err != nil {
		tello.ctrlConn.Close()
		tello.ctrlConn = nil
		tello.ctrlMu.Unlock()
		return err
	}

	// start the listener Goroutines
	tello.ctrlStopChan = make(chan bool, 2)
	tello.stateStopChan = make(chan bool, 2)
	tello.respChan = make(chan string, 1)
	tello.streamStop = make(chan struct{})
	go tello.controlResponseListener(tello.ctrlConn, tello.respChan, tello.ctrlStopChan)
	go tello.stateListener(tello.stateConn, tello.stateStopChan)
	tello.ctrlMu.Unlock()

	// say hello to the Tello, the first 'command' is sometimes lost so try a few times
	for t := 0; t < connectAttempts; t++ {
		if err = tello.sendControlCommand("command"); err == nil {
			break
		}
		tello.log().Debug("no response to SDK mode request", "attempt", t+1, "err", err)
	}
	if err != nil {
		tello.ControlDisconnect()
		return fmt.Errorf("tello: waiting for response to connection request: %w", err)
	}

	tello.ctrlMu.Lock()
	tello.ctrlConnected = true
	tello.ctrlMu.Unlock()

	if !tello.waitForState(tello.stateWait) {
		tello.log().Warn("no state received from the Tello yet", "waited", tello.stateWait)
	}
	return nil
}

// waitForState polls for the first state packet for up to d.
func (tello *Tello) waitForState(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		tello.fdMu.RLock()
		received := tello.fdReceived
		tello.fdMu.RUnlock()
		if received || d <= 0 || !time.Now().Before(deadline) {
			return received
		}
		time.Sleep(stateWaitPoll)
	}
}

// ControlConnectDefault attempts to connect to a Tello on the default network addresses.
func (tello *Tello) ControlConnectDefault() (err error) {
	return tello.ControlConnect(defaultTelloAddr, defaultTelloControlPort, defaultLocalControlPort)
}

// ControlDisconnect stops the listeners and closes the connections to a Tello.
func (tello *Tello) ControlDisconnect() {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.ctrlConn == nil {
		return
	}
	tello.ctrlStopChan <- true
	tello.stateStopChan <- true
	tello.ctrlConn.Close()
	tello.stateConn.Close()
	close(tello.streamStop)
	tello.ctrlConn = nil
	tello.stateConn = nil
	tello.ctrlConnected = false

	tello.fdMu.Lock()
	tello.fdStreaming = false
	tello.fdMu.Unlock()
}

// ControlConnected returns true if we are currently connected
func (tello *Tello) ControlConnected() (c bool) {
	tello.ctrlMu.Lock()
	c = tello.ctrlConnected
	tello.ctrlMu.Unlock()
	return c
}

// GetFlightData returns the current known state of the Tello
func (tello *Tello) GetFlightData() FlightData {
	tello.fdMu.RLock()
	rfd := tello.fd
	tello.fdMu.RUnlock()
	return rfd
}

// StreamFlightData starts a Goroutine which sends FlightData to a channel every period.
// This streamer does not block on the channel, so unconsumed updates are lost.
// The channel is closed when the control connection is closed.
func (tello *Tello) StreamFlightData(period time.Duration) (<-chan FlightData, error) {
	tello.ctrlMu.Lock()
	stop := tello.streamStop
	tello.ctrlMu.Unlock()
	if stop == nil {
		return nil, ErrNotConnected
	}
	tello.fdMu.Lock()
	if tello.fdStreaming {
		tello.fdMu.Unlock()
		return nil, errors.New("tello: already streaming data from this Tello")
	}
	tello.fdStreaming = true
	tello.fdMu.Unlock()

	fdChan := make(chan FlightData, 2)
	go func() {
		defer close(fdChan)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			select {
			case fdChan <- tello.GetFlightData():
			default:
			}
		}
	}()
	return fdChan, nil
}

func (tello *Tello) controlResponseListener(conn *net.UDPConn, respChan chan string, stop chan bool) {
	buff := make([]byte, 1024)

	for {
		n, err := conn.Read(buff)

		select {
		case <-stop:
			tello.log().Debug("control response listener stopped")
			return
		default:
		}
		if err != nil {
			tello.log().Warn("network read error", "err", err)
			continue
		}
		resp := strings.TrimSpace(string(buff[:n]))
		// a late response may still be waiting; the newest one wins
		select {
		case respChan <- resp:
		default:
			select {
			case <-respChan:
			default:
			}
			respChan <- resp
		}
	}
}

func (tello *Tello) stateListener(conn *net.UDPConn, stop chan bool) {
	buff := make([]byte, 1024)

	for {
		n, err := conn.Read(buff)

		select {
		case <-stop:
			tello.log().Debug("state listener stopped")
			return
		default:
		}
		if err != nil {
			tello.log().Warn("state read error", "err", err)
			continue
		}
		tello.handleState(buff[:n])
	}
}

// handleState merges one state packet into the flight data store
func (tello *Tello) handleState(pkt []byte) {
	fd, err := parseState(string(pkt))
	if err != nil {
		tello.log().Debug("unparseable state packet", "packet", string(pkt), "err", err)
		return
	}
	fd.Received = time.Now()
	tello.fdMu.Lock()
	tello.fd = fd
	tello.fdReceived = true
	tello.fdMu.Unlock()
}

// sendCommand sends one SDK command and waits up to timeout for its textual response.
// A timeout <= 0 means the configured response timeout.
func (tello *Tello) sendCommand(cmd string, timeout time.Duration) (string, error) {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.ctrlConn == nil {
		return "", ErrNotConnected
	}

	if gap := time.Since(tello.ctrlLastSent); gap < minCommandGap {
		time.Sleep(minCommandGap - gap)
	}
	// discard any stale response from an earlier, timed-out command
	select {
	case <-tello.respChan:
	default:
	}

	_, err := tello.ctrlConn.Write([]byte(cmd))
	tello.ctrlLastSent = time.Now()
	if err != nil {
		return "", fmt.Errorf("tello: sending %q: %w", cmd, err)
	}

	if timeout <= 0 {
		timeout = tello.responseTimeout
	}
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}
	select {
	case resp := <-tello.respChan:
		return resp, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("%w: %q after %v", ErrTimeout, cmd, timeout)
	}
}

// sendControlCommand sends a command that the Tello acknowledges with 'ok'.
func (tello *Tello) sendControlCommand(cmd string) error {
	return tello.sendControlCommandWithin(cmd, 0)
}

func (tello *Tello) sendControlCommandWithin(cmd string, timeout time.Duration) error {
	resp, err := tello.sendCommand(cmd, timeout)
	if err != nil {
		return err
	}
	if !strings.EqualFold(resp, "ok") {
		return fmt.Errorf("%w: %q returned %q", ErrCommandFailed, cmd, resp)
	}
	return nil
}

// sendReadCommand sends a query (eg. 'battery?') and returns the integer the Tello replies with.
func (tello *Tello) sendReadCommand(cmd string) (int, error) {
	resp, err := tello.sendCommand(cmd, 0)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(resp)
	if err != nil {
		return 0, fmt.Errorf("%w: %q returned %q", ErrCommandFailed, cmd, resp)
	}
	return v, nil
}

// sendCommandNoReply sends a command the Tello never answers, eg. 'rc'.
func (tello *Tello) sendCommandNoReply(cmd string) error {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.ctrlConn == nil {
		return ErrNotConnected
	}
	_, err := tello.ctrlConn.Write([]byte(cmd))
	tello.ctrlLastSent = time.Now()
	if err != nil {
		return fmt.Errorf("tello: sending %q: %w", cmd, err)
	}
	return nil
}

func (tello *Tello) setFlying(f bool) {
	tello.flyMu.Lock()
	tello.flying = f
	tello.flyMu.Unlock()
}

// Flying reports whether the Tello has taken off and not yet landed, as far as we know.
func (tello *Tello) Flying() bool {
	tello.flyMu.RLock()
	defer tello.flyMu.RUnlock()
	return tello.flying
}

func (tello *Tello) statePortOrDefault() int {
	if tello.addr == "" && tello.statePort == 0 {
		// zero value Tello
		return defaultLocalStatePort
	}
	return tello.statePort
}

func (tello *Tello) log() *slog.Logger {
	if tello.logger == nil {
		return slog.Default()
	}
	return tello.logger
}
