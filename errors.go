package tiptop

import (
	"fmt"
	"strings"
)

// Error types for the simulation protocol. The remote service is opaque, so
// every failure carries as much diagnostic context as the response allowed.
// No error here is retried automatically; retry policy belongs to the caller.

// SyntaxError reports configuration text that is structurally unusable.
// The parser is tolerant by design (unrecognized values degrade to strings,
// stray lines are skipped), so this error is rare.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("tiptop: syntax error at offset %d: %s", e.Offset, e.Message)
}

// TransportError reports a failure before an HTTP response was received:
// DNS resolution, connection refused, TLS, or the request timeout expiring.
// The wrapped error is the underlying cause.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "tiptop: transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerHTTPError reports a non-200 HTTP status from the service endpoint.
// Body holds the response text truncated to a bounded length.
type ServerHTTPError struct {
	Status int
	Body   string
}

func (e *ServerHTTPError) Error() string {
	return fmt.Sprintf("tiptop: server returned HTTP %d: %s", e.Status, e.Body)
}

// ConfigRejectedError reports that the service could not parse the
// submitted configuration. The server detected this before the simulation
// ran, so no result exists.
type ConfigRejectedError struct {
	Message string
}

func (e *ConfigRejectedError) Error() string {
	return "tiptop: config rejected by server: " + e.Message
}

// ServiceExitError reports a non-zero administrative exit code in the
// service's JSON status part. The exit code is the authoritative success
// signal: it wins even when the response also carried a binary part.
type ServiceExitError struct {
	Code    int
	Message string
}

func (e *ServiceExitError) Error() string {
	return fmt.Sprintf("tiptop: service exit code %d: %s", e.Code, e.Message)
}

// PartSummary describes one part of a decoded multipart response: its
// content type, its Content-Disposition header, and a truncated textual
// preview of its payload.
type PartSummary struct {
	ContentType string
	Disposition string
	Preview     string
}

func (p PartSummary) String() string {
	return fmt.Sprintf("%s (%s): %q", p.ContentType, p.Disposition, p.Preview)
}

// MissingResultError reports a 200 response that contained no usable binary
// result part. Parts enumerates everything the server did send, which is
// the primary tool for diagnosing unexpected server behavior.
type MissingResultError struct {
	Parts []PartSummary
}

func (e *MissingResultError) Error() string {
	var sb strings.Builder
	sb.WriteString("tiptop: server response contains no result file; received ")
	fmt.Fprintf(&sb, "%d part(s)", len(e.Parts))
	for i, p := range e.Parts {
		fmt.Fprintf(&sb, "\n  part %d: %s", i, p.String())
	}
	return sb.String()
}

// RoleNotFoundError reports access to a result role (open-loop PSF,
// coordinate table, ...) that the response did not carry.
type RoleNotFoundError struct {
	Role string
}

func (e *RoleNotFoundError) Error() string {
	return "tiptop: result has no " + e.Role
}

// IndexOutOfRangeError reports a wavelength index past the number of
// channels in the result.
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("tiptop: wavelength index %d out of range (have %d channels)", e.Index, e.Length)
}
