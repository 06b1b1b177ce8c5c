// Copyright 2025 AUTHORS
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package apperr defines the single application error taxonomy every
// service in the control plane returns. Boundary conversion to a string
// for display is left to the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on it without string
// matching.
type Kind int

const (
	KindGeneric Kind = iota
	KindCLIFailed
	KindParseFailed
	KindDistroNotFound
	KindTimeout
	KindIO
	KindJSON
	KindHTTP
	KindConfig
	KindValidation
	KindActionNotFound
	KindActionNotApplicable
	KindDownload
	KindNetwork
	// KindNotConfirmed marks a destructive operation whose CLI call
	// succeeded but whose post-condition poll never converged: the UI
	// should prompt escalation rather than retry the same call.
	KindNotConfirmed
)

func (k Kind) String() string {
	switch k {
	case KindCLIFailed:
		return "cli_failed"
	case KindParseFailed:
		return "parse_failed"
	case KindDistroNotFound:
		return "distro_not_found"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	case KindJSON:
		return "json"
	case KindHTTP:
		return "http"
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindActionNotFound:
		return "action_not_found"
	case KindActionNotApplicable:
		return "action_not_applicable"
	case KindDownload:
		return "download"
	case KindNetwork:
		return "network"
	case KindNotConfirmed:
		return "not_confirmed"
	default:
		return "generic"
	}
}

// Error is the concrete error type returned by every service boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// DistroNotFound is a convenience constructor.
func DistroNotFound(name string) *Error {
	return New(KindDistroNotFound, "distribution not found: %q", name)
}

// Timeout is a convenience constructor.
func Timeout(op string) *Error {
	return New(KindTimeout, "operation timed out: %s", op)
}

// NotConfirmed signals that a mutating CLI call returned success but the
// verification poll never observed the expected state transition.
func NotConfirmed(op string) *Error {
	return New(KindNotConfirmed, "%s: initiated but not confirmed; consider escalating", op)
}
