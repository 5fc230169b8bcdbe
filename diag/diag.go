// Copyright 2024 Google LLC
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

// Package diag implements the two-severity diagnostic model of §7: a
// user error terminates compilation, an internal error reports a bug in
// the core itself, and a warning is informational. Positions are
// (function, stage) pairs rather than source text, since this core
// operates on an already-built expression IR, not parsed source.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// At identifies where a diagnostic occurred.
type At struct {
	Func  string
	Stage int // -1 for the pure stage or when stage is not applicable.
}

func (a At) String() string {
	if a.Stage < 0 {
		return a.Func
	}
	return fmt.Sprintf("%s.s%d", a.Func, a.Stage)
}

// Severity distinguishes the two kinds of §7 errors, plus warnings.
type Severity int

const (
	SevUser Severity = iota
	SevInternal
	SevWarning
)

func (s Severity) String() string {
	switch s {
	case SevUser:
		return "error"
	case SevInternal:
		return "internal error"
	case SevWarning:
		return "warning"
	}
	return "?"
}

// Diagnostic is a single reported error or warning.
type Diagnostic struct {
	Severity Severity
	At       At
	err      error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %v", d.At, d.Severity, d.err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (d *Diagnostic) Unwrap() error { return d.err }

// UserErrorf builds a user-visible diagnostic: the programmer's
// schedule or pipeline is rejected.
func UserErrorf(at At, format string, a ...any) error {
	return &Diagnostic{Severity: SevUser, At: at, err: errors.Errorf(format, a...)}
}

// InternalErrorf builds an internal-assertion diagnostic: a bug in the
// core, not in the user's program.
func InternalErrorf(at At, format string, a ...any) error {
	err := errors.Errorf(format, a...)
	return &Diagnostic{Severity: SevInternal, At: at, err: errors.WithMessage(err, "internal error: this is a bug in loopsched, please report it")}
}

// Warningf builds a non-fatal warning diagnostic.
func Warningf(at At, format string, a ...any) error {
	return &Diagnostic{Severity: SevWarning, At: at, err: errors.Errorf(format, a...)}
}

// IsUserError reports whether err (or anything it wraps) is a user-severity diagnostic.
func IsUserError(err error) bool { return hasSeverity(err, SevUser) }

// IsInternalError reports whether err (or anything it wraps) is an internal-severity diagnostic.
func IsInternalError(err error) bool { return hasSeverity(err, SevInternal) }

// IsWarning reports whether err (or anything it wraps) is a warning-severity diagnostic.
func IsWarning(err error) bool { return hasSeverity(err, SevWarning) }

func hasSeverity(err error, want Severity) bool {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Severity == want
	}
	return false
}
