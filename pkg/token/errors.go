package token

import (
	"errors"
	"fmt"
)

// DecodeCode identifies the reason a wire token was rejected.
type DecodeCode string

const (
	DecodeMalformed        DecodeCode = "malformed"
	DecodeBadSignature     DecodeCode = "bad_signature"
	DecodeAudienceMismatch DecodeCode = "audience_mismatch"
	DecodeIssuerMismatch   DecodeCode = "issuer_mismatch"
	DecodeExpired          DecodeCode = "expired"
	DecodeWrongKind        DecodeCode = "wrong_kind"
	DecodeMissingClaim     DecodeCode = "missing_claim"
)

// DecodeError is the expected, recoverable failure mode of Decode and Parse.
// Boundary callers (claims middleware, role gates) catch it and degrade to an
// anonymous identity or a rejection; it never reaches a handler unhandled.
type DecodeError struct {
	Code DecodeCode
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(code DecodeCode, err error) error {
	return &DecodeError{Code: code, Err: err}
}

// CodeOf extracts the decode code from err, or "" if err is not a DecodeError.
func CodeOf(err error) DecodeCode {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ConfigError indicates a deployment misconfiguration: an unsupported
// algorithm, missing key material, or a failed remote key resolution. It is
// surfaced at profile construction where possible and must never be swallowed.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
