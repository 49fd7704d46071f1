package resilience

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
)

// Error classes used as metric labels
const (
	ClassNone        = ""
	ClassTimeout     = "timeout"
	ClassCanceled    = "canceled"
	ClassCircuitOpen = "circuit_open"
	ClassNetwork     = "network"
	ClassRateLimit   = "rate_limit"
	ClassStatus      = "status"
	ClassOther       = "other"
)

// StatusError is returned by HTTP gateways for unexpected response codes
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := e.Service + " returned status " + strconv.Itoa(e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Classify maps an error to a coarse class for metrics and log fields
func Classify(err error) string {
	if err == nil {
		return ClassNone
	}

	if errors.Is(err, ErrCircuitOpen) {
		return ClassCircuitOpen
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == 429 {
			return ClassRateLimit
		}
		return ClassStatus
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case containsAny(errStr, "deadline exceeded", "timeout", "i/o timeout"):
		return ClassTimeout
	case containsAny(errStr, "rate limit", "too many requests", "resource exhausted"):
		return ClassRateLimit
	case containsAny(errStr,
		"connection refused",
		"connection reset",
		"connection closed",
		"network is unreachable",
		"no route to host",
		"no such host",
	):
		return ClassNetwork
	}
	return ClassOther
}

func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
