// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "github.com/pkg/errors"

// ErrNotImplemented is returned (wrapped) by operations that are intentionally not implemented for a backend.
//
// It is distinguishable from runtime failures with errors.Is, so callers can skip such operations instead of
// treating them as bugs. It doesn't contain a stack, attach one with errors.Wrapf(ErrNotImplemented, "...").
var ErrNotImplemented = errors.New("not implemented")
