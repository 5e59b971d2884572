package models

import (
	"net"
	"strconv"
	"time"
)

// Status is the observable outcome of a reachability check.
type Status string

const (
	StatusOnline  Status = "Online"
	StatusOffline Status = "Offline"
	StatusError   Status = "Error"
)

// FailureKind classifies why a check did not reach Online.
type FailureKind string

const (
	KindNone    FailureKind = ""
	KindTimeout FailureKind = "timeout"
	KindRefused FailureKind = "refused"
	KindOther   FailureKind = "other"
)

// Status maps a failure kind to the reported outcome. Only timeout and
// refused count as Offline.
func (k FailureKind) Status() Status {
	switch k {
	case KindNone:
		return StatusOnline
	case KindTimeout, KindRefused:
		return StatusOffline
	default:
		return StatusError
	}
}

// Endpoint identifies a TCP listener to probe.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Address returns the dialable "host:port" form.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return e.Address()
}

// Target defines a named host and the ports checked on it.
type Target struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Host  string `yaml:"host" json:"host"`
	Ports []int  `yaml:"ports" json:"ports"`
}

// Endpoints expands the target into one endpoint per port.
func (t Target) Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(t.Ports))
	for _, p := range t.Ports {
		out = append(out, Endpoint{Host: t.Host, Port: p})
	}
	return out
}

// CheckResult captures the outcome of a single endpoint check.
type CheckResult struct {
	TargetID  string      `json:"target_id,omitempty"`
	Name      string      `json:"name"`
	Endpoint  Endpoint    `json:"endpoint"`
	Status    Status      `json:"status"`
	Kind      FailureKind `json:"kind,omitempty"`
	LatencyMS *float64    `json:"latency_ms,omitempty"`
	Error     string      `json:"error,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Online reports whether the endpoint accepted the connection.
func (r CheckResult) Online() bool {
	return r.Status == StatusOnline
}

// Run stores the results of one round of checks. It is never persisted.
type Run struct {
	Timestamp time.Time     `json:"timestamp"`
	Results   []CheckResult `json:"results"`
}
