// Copyright (c) 2013-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// evalFalse returns an error when the stack left behind by a script does not
// signal success, which requires a true item on top.
func evalFalse(stack *Stack) error {
	if stack.Depth() == 0 {
		return scriptError(ErrEvalFalse,
			"stack empty at end of script execution")
	}
	if !AsBool(stack.Top(-1)) {
		return scriptError(ErrEvalFalse,
			"false stack entry at end of script execution")
	}
	return nil
}

// verifyWitnessProgram validates the witness of an input spending a witness
// program of the passed version.  Unknown versions are accepted unless
// upgradable witness programs are discouraged.
func verifyWitnessProgram(witness wire.TxWitness, version int, program []byte,
	flags ScriptFlags, checker SignatureChecker) error {

	if version != 0 {
		if flags&ScriptVerifyDiscourageUpgradeableWitnessProgram != 0 {
			str := fmt.Sprintf("new witness program versions "+
				"invalid: %v", version)
			return scriptError(ErrDiscourageUpgradableWitnessProgram, str)
		}

		// Future witness versions are anyone can spend until a soft
		// fork gives them meaning.
		return nil
	}

	var (
		witnessScript []byte
		stack         *Stack
	)
	switch len(program) {
	case payToWitnessScriptHashDataSize:
		// The witness stack is the script inputs followed by the
		// witness script itself, which must hash to the program.
		if len(witness) == 0 {
			return scriptError(ErrWitnessProgramEmpty,
				"witness program empty passed empty witness")
		}
		witnessScript = witness[len(witness)-1]
		witnessHash := sha256.Sum256(witnessScript)
		if !bytes.Equal(witnessHash[:], program) {
			return scriptError(ErrWitnessProgramMismatch,
				"witness program hash mismatch")
		}
		stack = NewStack(witness[:len(witness)-1])

	case payToWitnessPubKeyHashDataSize:
		// The witness stack is exactly a signature and a public key,
		// checked against the pay-to-pubkey-hash script for the
		// program.
		if len(witness) != 2 {
			str := fmt.Sprintf("should have exactly two items in "+
				"witness, instead have %v", len(witness))
			return scriptError(ErrWitnessProgramMismatch, str)
		}
		var err error
		witnessScript, err = payToPubKeyHashScript(program)
		if err != nil {
			return err
		}
		stack = NewStack(witness)

	default:
		str := fmt.Sprintf("length of witness program must either be "+
			"%v or %v bytes, instead is %v bytes",
			payToWitnessPubKeyHashDataSize,
			payToWitnessScriptHashDataSize, len(program))
		return scriptError(ErrWitnessProgramWrongLength, str)
	}

	for i, item := range stack.stk {
		if len(item) > MaxScriptElementSize {
			str := fmt.Sprintf("witness item %d size %d exceeds max "+
				"allowed size %d", i, len(item),
				MaxScriptElementSize)
			return scriptError(ErrElementTooBig, str)
		}
	}

	err := EvalScript(stack, witnessScript, flags, checker,
		SigVersionWitnessV0)
	if err != nil {
		return err
	}

	// Witness scripts must leave exactly one item behind.
	if stack.Depth() != 1 {
		str := fmt.Sprintf("witness script left %d items on the stack, "+
			"expected exactly one", stack.Depth())
		return scriptError(ErrEvalFalse, str)
	}
	return evalFalse(stack)
}

// VerifyScript verifies that scriptSig together with witness satisfies
// scriptPubKey under the passed flags.  A nil error means the spend is valid.
//
// The signature script is run first and the public key script is run on the
// stack it leaves behind.  When the public key script is a witness program,
// or a pay-to-script-hash whose redeem script is one, the witness is checked
// as well.  With pay-to-script-hash enabled, the redeem script, which is the
// last item pushed by the signature script, is run on the stack the
// signature script left behind.
func VerifyScript(scriptSig, scriptPubKey []byte, witness wire.TxWitness,
	flags ScriptFlags, checker SignatureChecker) error {

	if err := checkFlags(flags); err != nil {
		return err
	}

	if flags&ScriptVerifySigPushOnly != 0 && !IsPushOnlyScript(scriptSig) {
		return scriptError(ErrNotPushOnly,
			"signature script is not push only")
	}

	stack := NewStack(nil)
	err := EvalScript(stack, scriptSig, flags, checker, SigVersionBase)
	if err != nil {
		return err
	}

	var savedStack *Stack
	if flags&ScriptBip16 != 0 {
		savedStack = stack.Clone()
	}

	err = EvalScript(stack, scriptPubKey, flags, checker, SigVersionBase)
	if err != nil {
		return err
	}
	if err := evalFalse(stack); err != nil {
		return err
	}

	// Bare witness programs.
	hadWitness := false
	if flags&ScriptVerifyWitness != 0 {
		if version, program, ok := extractWitnessProgram(scriptPubKey); ok {
			hadWitness = true

			// The signature script must be empty for native witness
			// programs, otherwise it could be malleated.
			if len(scriptSig) != 0 {
				return scriptError(ErrWitnessMalleated,
					"native witness program cannot also have "+
						"a signature script")
			}
			err := verifyWitnessProgram(witness, version, program,
				flags, checker)
			if err != nil {
				return err
			}

			// The result of the witness program stands in for the
			// whole stack.
			stack = NewStack([][]byte{FromBool(true)})
		}
	}

	// Additional validation for P2SH transactions.
	if flags&ScriptBip16 != 0 && IsPayToScriptHash(scriptPubKey) {
		// The signature script must only push data for P2SH spends.
		if !IsPushOnlyScript(scriptSig) {
			return scriptError(ErrNotPushOnly,
				"pay to script hash is not push only")
		}

		// Restore the stack as the signature script left it and pop
		// the redeem script off of it.  The public key script could
		// only succeed above with at least the redeem script there.
		stack = savedStack
		if stack.Depth() == 0 {
			return scriptError(ErrEvalFalse,
				"no redeem script in signature script")
		}
		redeemScript := stack.Pop()

		log.Tracef("%v", newLogClosure(func() string {
			dis, _ := DisasmString(redeemScript)
			return fmt.Sprintf("evaluating redeem script: %s", dis)
		}))

		err := EvalScript(stack, redeemScript, flags, checker,
			SigVersionBase)
		if err != nil {
			return err
		}
		if err := evalFalse(stack); err != nil {
			return err
		}

		// Nested witness programs.
		if flags&ScriptVerifyWitness != 0 {
			version, program, ok := extractWitnessProgram(redeemScript)
			if ok {
				hadWitness = true

				// The signature script must be exactly a single
				// canonical push of the redeem script, otherwise
				// the spend could be malleated.
				if !bytes.Equal(scriptSig, canonicalPush(redeemScript)) {
					return scriptError(ErrWitnessMalleatedP2SH,
						"signature script for witness nested "+
							"p2sh is not canonical")
				}
				err := verifyWitnessProgram(witness, version,
					program, flags, checker)
				if err != nil {
					return err
				}

				stack = NewStack([][]byte{FromBool(true)})
			}
		}
	}

	// The stack must contain exactly one item after evaluation when the
	// clean stack flag is set.
	if flags&ScriptVerifyCleanStack != 0 && stack.Depth() != 1 {
		str := fmt.Sprintf("stack must contain exactly one item (contains "+
			"%d)", stack.Depth())
		return scriptError(ErrCleanStack, str)
	}

	// A witness may only be supplied when spending a witness program.
	if flags&ScriptVerifyWitness != 0 && !hadWitness && len(witness) != 0 {
		return scriptError(ErrWitnessUnexpected,
			"non-witness inputs cannot have a witness")
	}

	return nil
}

// Engine verifies a single input of a transaction against the public key
// script of the output it spends.
type Engine struct {
	scriptSig    []byte
	scriptPubKey []byte
	witness      wire.TxWitness
	flags        ScriptFlags
	checker      *TransactionChecker
}

// NewEngine returns a new script engine for the provided public key script,
// transaction, and input index.  The flags modify the behavior of the script
// engine according to the description provided by each flag.  The signature
// cache and hash cache are optional and may be nil.  The amount is the value
// of the output being spent, which witness signatures commit to.
func NewEngine(scriptPubKey []byte, tx *wire.MsgTx, txIdx int,
	flags ScriptFlags, sigCache *SigCache, hashCache *HashCache,
	amount int64) (*Engine, error) {

	// The provided transaction input index must refer to a valid input.
	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}
	if err := checkFlags(flags); err != nil {
		return nil, err
	}

	opts := []CheckerOption{WithSigCache(sigCache)}
	if hashCache != nil {
		txHash := tx.TxHash()
		sigHashes, ok := hashCache.GetSigHashes(&txHash)
		if !ok {
			sigHashes = hashCache.AddSigHashes(tx)
		}
		opts = append(opts, WithTxSigHashes(sigHashes))
	}

	txIn := tx.TxIn[txIdx]
	return &Engine{
		scriptSig:    txIn.SignatureScript,
		scriptPubKey: scriptPubKey,
		witness:      txIn.Witness,
		flags:        flags,
		checker:      NewTransactionChecker(tx, txIdx, amount, opts...),
	}, nil
}

// Execute verifies the input.  A nil error means the input is a valid spend
// of the output.
func (vm *Engine) Execute() error {
	return VerifyScript(vm.scriptSig, vm.scriptPubKey, vm.witness,
		vm.flags, vm.checker)
}
