// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptval

import (
	"fmt"
	"math"
	"runtime"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcscript/txscript"
)

// txValidateItem holds a transaction along with which input to validate.
type txValidateItem struct {
	txInIndex int
	txIn      *wire.TxIn
	tx        *wire.MsgTx
}

// txValidator provides a type which asynchronously validates transaction
// inputs.  It provides several channels for communication and a processing
// function that is intended to be in run multiple goroutines.
type txValidator struct {
	validateChan chan *txValidateItem
	quitChan     chan struct{}
	resultChan   chan error
	prevOuts     PrevOutputFetcher
	flags        txscript.ScriptFlags
	sigCache     *txscript.SigCache
	hashCache    *txscript.HashCache
}

// sendResult sends the result of a script pair validation on the internal
// result channel while respecting the quit channel.  This allows orderly
// shutdown when the validation process is aborted early due to a validation
// error in one of the other goroutines.
func (v *txValidator) sendResult(result error) {
	select {
	case v.resultChan <- result:
	case <-v.quitChan:
	}
}

// validateInput verifies a single input against the output it spends.
func (v *txValidator) validateInput(txVI *txValidateItem) error {
	txHash := txVI.tx.TxHash()
	txIn := txVI.txIn

	// Ensure the referenced output is available.
	prevOut := v.prevOuts.FetchPrevOutput(txIn.PreviousOutPoint)
	if prevOut == nil {
		return ValidationError{
			TxHash:     txHash,
			InputIndex: txVI.txInIndex,
			Err: fmt.Errorf("%w: %v", ErrMissingPrevOut,
				txIn.PreviousOutPoint),
		}
	}

	// Create a new script engine for the script pair.
	sigScript := txIn.SignatureScript
	pkScript := prevOut.PkScript
	vm, err := txscript.NewEngine(pkScript, txVI.tx, txVI.txInIndex,
		v.flags, v.sigCache, v.hashCache, prevOut.Value)
	if err == nil {
		err = vm.Execute()
	}
	if err != nil {
		log.Debugf("Input %v:%d failed (input script bytes %x, prev "+
			"output script bytes %x): %v", txHash, txVI.txInIndex,
			sigScript, pkScript, err)
		return ValidationError{
			TxHash:     txHash,
			InputIndex: txVI.txInIndex,
			Err: fmt.Errorf("%w: spending %v: %w", ErrScriptFailed,
				txIn.PreviousOutPoint, err),
		}
	}

	log.Tracef("Input %v:%d validated", txHash, txVI.txInIndex)
	return nil
}

// validateHandler consumes items to validate from the internal validate channel
// and returns the result of the validation on the internal result channel. It
// must be run as a goroutine.
func (v *txValidator) validateHandler() {
out:
	for {
		select {
		case txVI := <-v.validateChan:
			err := v.validateInput(txVI)
			v.sendResult(err)
			if err != nil {
				break out
			}

		case <-v.quitChan:
			break out
		}
	}
}

// Validate validates the scripts for all of the passed transaction inputs using
// multiple goroutines.
func (v *txValidator) Validate(items []*txValidateItem) error {
	if len(items) == 0 {
		return nil
	}

	// Limit the number of goroutines to do script validation based on the
	// number of processor cores.  This helps ensure the system stays
	// reasonably responsive under heavy load.
	maxGoRoutines := runtime.NumCPU() * 3
	if maxGoRoutines <= 0 {
		maxGoRoutines = 1
	}
	if maxGoRoutines > len(items) {
		maxGoRoutines = len(items)
	}

	// Start up validation handlers that are used to asynchronously
	// validate each transaction input.
	for i := 0; i < maxGoRoutines; i++ {
		go v.validateHandler()
	}

	// Validate each of the inputs.  The quit channel is closed when any
	// errors occur so all processing goroutines exit regardless of which
	// input had the validation error.
	numInputs := len(items)
	currentItem := 0
	processedItems := 0
	for processedItems < numInputs {
		// Only send items while there are still items that need to
		// be processed.  The select statement will never select a nil
		// channel.
		var validateChan chan *txValidateItem
		var item *txValidateItem
		if currentItem < numInputs {
			validateChan = v.validateChan
			item = items[currentItem]
		}

		select {
		case validateChan <- item:
			currentItem++

		case err := <-v.resultChan:
			processedItems++
			if err != nil {
				close(v.quitChan)
				return err
			}
		}
	}

	close(v.quitChan)
	return nil
}

// newTxValidator returns a new instance of txValidator to be used for
// validating transaction scripts asynchronously.
func newTxValidator(prevOuts PrevOutputFetcher, flags txscript.ScriptFlags,
	sigCache *txscript.SigCache, hashCache *txscript.HashCache) *txValidator {

	return &txValidator{
		validateChan: make(chan *txValidateItem),
		quitChan:     make(chan struct{}),
		resultChan:   make(chan error),
		prevOuts:     prevOuts,
		flags:        flags,
		sigCache:     sigCache,
		hashCache:    hashCache,
	}
}

// isCoinBaseInput returns whether the input is the null outpoint a coinbase
// transaction spends.  Those inputs have no script to validate.
func isCoinBaseInput(txIn *wire.TxIn) bool {
	prevOut := &txIn.PreviousOutPoint
	return prevOut.Index == math.MaxUint32 && prevOut.Hash == zeroHash
}

// zeroHash is the hash of the null outpoint.
var zeroHash chainhash.Hash

// collectItems appends a validation item for every non-coinbase input of tx.
// It also primes the hash cache with the witness sighash fragments of tx when
// one of its inputs carries a witness.
func collectItems(items []*txValidateItem, tx *wire.MsgTx,
	hashCache *txscript.HashCache) []*txValidateItem {

	primed := false
	for txInIdx, txIn := range tx.TxIn {
		if isCoinBaseInput(txIn) {
			continue
		}

		if hashCache != nil && !primed && len(txIn.Witness) > 0 {
			txHash := tx.TxHash()
			if !hashCache.ContainsHashes(&txHash) {
				hashCache.AddSigHashes(tx)
			}
			primed = true
		}

		items = append(items, &txValidateItem{
			txInIndex: txInIdx,
			txIn:      txIn,
			tx:        tx,
		})
	}
	return items
}

// ValidateTransactionScripts validates the scripts for the passed transaction
// using multiple goroutines.  The signature and hash caches are optional and
// may be nil.  The first failing input is reported as a ValidationError.
func ValidateTransactionScripts(tx *wire.MsgTx, prevOuts PrevOutputFetcher,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache,
	hashCache *txscript.HashCache) error {

	// Collect all of the transaction inputs and required information for
	// validation.
	items := collectItems(make([]*txValidateItem, 0, len(tx.TxIn)), tx,
		hashCache)

	// Validate all of the inputs.
	validator := newTxValidator(prevOuts, flags, sigCache, hashCache)
	return validator.Validate(items)
}

// ValidateTransactions executes and validates the scripts for all inputs of
// the passed transactions on a single shared pool of goroutines.  Processing
// stops at the first failing input.
func ValidateTransactions(txs []*wire.MsgTx, prevOuts PrevOutputFetcher,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache,
	hashCache *txscript.HashCache) error {

	// Collect all of the transaction inputs and required information for
	// validation for all transactions into a single slice.
	numInputs := 0
	for _, tx := range txs {
		numInputs += len(tx.TxIn)
	}
	items := make([]*txValidateItem, 0, numInputs)
	for _, tx := range txs {
		items = collectItems(items, tx, hashCache)
	}

	log.Debugf("Validating %d inputs of %d transactions", len(items),
		len(txs))

	// Validate all of the inputs.
	validator := newTxValidator(prevOuts, flags, sigCache, hashCache)
	if err := validator.Validate(items); err != nil {
		return err
	}

	// The sighash fragments are no longer needed once every input of a
	// transaction validated.
	if hashCache != nil {
		for _, tx := range txs {
			txHash := tx.TxHash()
			hashCache.PurgeSigHashes(&txHash)
		}
	}

	return nil
}
