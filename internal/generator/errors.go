package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// Kind classifies a generation failure. The stream shows players the
// message; the kind is for tests and logs.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotConfigured
	KindNoPrompt
	KindConnection
	KindRateLimit
	KindAuth
	KindStatus
	KindParse
)

// Error is a classified generation failure. Message is what the error
// event on the stream carries.
type Error struct {
	Kind    Kind
	Message string
	// Raw holds the unparseable model text for parse failures.
	Raw string
	Err error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func errNotConfigured() *Error {
	return &Error{Kind: KindNotConfigured, Message: "Model client not initialized. Check API key."}
}

func errNoPrompt() *Error {
	return &Error{Kind: KindNoPrompt, Message: "Game prompt not loaded. Check twotruths.yaml."}
}

func connectionError(err error) *Error {
	return &Error{Kind: KindConnection, Message: fmt.Sprintf("API Connection Error: %v", err), Err: err}
}

func unexpectedError(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: fmt.Sprintf("Unexpected API Error: %v", err), Err: err}
}

func parseError(raw string, err error) *Error {
	return &Error{
		Kind:    KindParse,
		Message: fmt.Sprintf("Failed to parse response from LLM: %v", err),
		Raw:     raw,
		Err:     err,
	}
}

// statusError maps an HTTP status from a provider into the taxonomy.
func statusError(status int, err error) *Error {
	switch {
	case status == 429:
		return &Error{Kind: KindRateLimit, Message: fmt.Sprintf("API Rate Limit Error: %v", err), Err: err}
	case status == 401 || status == 403:
		return &Error{Kind: KindAuth, Message: fmt.Sprintf("API Authentication Error: %v. Check your API key.", err), Err: err}
	default:
		return &Error{Kind: KindStatus, Message: fmt.Sprintf("API Status Error: %d", status), Err: err}
	}
}

// isConnectionError reports whether err looks like a transport failure
// rather than a server-side rejection.
func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
