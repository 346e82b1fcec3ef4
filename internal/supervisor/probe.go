package supervisor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Iron-Ham/devstrap/internal/config"
)

// Probe reports whether a started process is ready to serve.
type Probe interface {
	Check(ctx context.Context) error
	String() string
}

// TCPProbe succeeds once Address accepts a connection.
type TCPProbe struct {
	Address string
	Timeout time.Duration
}

// Check dials Address once.
func (p TCPProbe) Check(ctx context.Context) error {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (p TCPProbe) String() string { return "tcp " + p.Address }

// HTTPProbe succeeds once URL answers with a status below 500.
type HTTPProbe struct {
	URL    string
	Client *http.Client
}

// Check issues one GET request.
func (p HTTPProbe) Check(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s returned %d", p.URL, resp.StatusCode)
	}
	return nil
}

func (p HTTPProbe) String() string { return "http " + p.URL }

// ProbeFromConfig builds the configured probe, or nil when none is set.
func ProbeFromConfig(c config.ProbeConfig) Probe {
	switch c.Type {
	case "tcp":
		return TCPProbe{Address: c.Address, Timeout: time.Second}
	case "http":
		return HTTPProbe{URL: c.URL}
	default:
		return nil
	}
}
