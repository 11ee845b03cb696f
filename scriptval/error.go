// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptval

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	// ErrMissingPrevOut is reported when the output spent by an input is
	// not known to the PrevOutputFetcher.
	ErrMissingPrevOut = errors.New("referenced output not found")

	// ErrScriptFailed is reported, wrapping the script error, when an
	// input does not satisfy the script it spends.
	ErrScriptFailed = errors.New("script validation failed")
)

// ValidationError identifies the input that failed validation.  Err wraps
// either ErrMissingPrevOut or ErrScriptFailed and, for the latter, the
// txscript error describing the failure.
type ValidationError struct {
	TxHash     chainhash.Hash
	InputIndex int
	Err        error
}

// Error satisfies the error interface and prints human-readable errors.
func (e ValidationError) Error() string {
	return fmt.Sprintf("input %v:%d: %v", e.TxHash, e.InputIndex, e.Err)
}

// Unwrap returns the underlying error.
func (e ValidationError) Unwrap() error {
	return e.Err
}
