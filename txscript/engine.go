// Copyright (c) 2013-2018 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// SigVersion identifies the signature hashing rules, and the related script
// rules, a script is evaluated under.
type SigVersion int

const (
	// SigVersionBase is used for legacy scripts, including P2SH redeem
	// scripts.
	SigVersionBase SigVersion = iota

	// SigVersionWitnessV0 is used for scripts committed to by version 0
	// witness programs.
	SigVersionWitnessV0
)

// String returns the signature version as a human-readable name.
func (v SigVersion) String() string {
	switch v {
	case SigVersionBase:
		return "base"
	case SigVersionWitnessV0:
		return "witness_v0"
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

// interpreter holds the state of a single script evaluation.  A new one is
// created for every call to EvalScript and it is never shared.
type interpreter struct {
	// flags holds the verification flags in effect.
	flags ScriptFlags

	// checker supplies signature and lock time checks against the
	// spending transaction.
	checker SignatureChecker

	// sigVersion selects the signature hashing rules.
	sigVersion SigVersion

	// tokenizer is the position within the script being executed.
	tokenizer ScriptTokenizer

	// lastCodeSep is the byte offset just past the most recently executed
	// OP_CODESEPARATOR, or zero.  Signature checks commit to the script
	// from this offset on.
	lastCodeSep int

	// dstack is the caller's data stack.  astack is the alternate stack,
	// which does not outlive the evaluation.
	dstack *Stack
	astack Stack

	// condStack tracks the open conditionals.  An entry is true when its
	// branch is being taken.
	condStack []bool

	// numOps is the number of non-push operations counted so far.
	numOps int
}

// hasFlag returns whether the script engine instance has the passed flag set.
func (vm *interpreter) hasFlag(flag ScriptFlags) bool {
	return vm.flags&flag == flag
}

// isBranchExecuting returns whether or not the current conditional branch is
// actively executing.  For example, when the data stack has an OP_FALSE on it
// and an OP_IF is encountered, the branch is inactive until an OP_ELSE or
// OP_ENDIF is encountered.  It properly handles nested conditionals.
func (vm *interpreter) isBranchExecuting() bool {
	for _, cond := range vm.condStack {
		if !cond {
			return false
		}
	}
	return true
}

// requireDepth returns an error unless the data stack holds at least n items.
func (vm *interpreter) requireDepth(n int) error {
	if vm.dstack.Depth() < n {
		str := fmt.Sprintf("attempt to access item %d of a stack with "+
			"%d items", n, vm.dstack.Depth())
		return scriptError(ErrInvalidStackOperation, str)
	}
	return nil
}

// topNum interprets the item at top-relative position i as a script number of
// at most numLen bytes.  Minimal encoding is required when the MinimalData
// flag is set.
func (vm *interpreter) topNum(i int, numLen int) (scriptNum, error) {
	requireMinimal := vm.hasFlag(ScriptVerifyMinimalData)
	return MakeScriptNum(vm.dstack.Top(i), requireMinimal, numLen)
}

// subScript returns the part of the script that signature checks commit to:
// everything after the last executed OP_CODESEPARATOR.
func (vm *interpreter) subScript() []byte {
	return vm.tokenizer.Script()[vm.lastCodeSep:]
}

// isOpcodeDisabled returns whether or not the opcode is disabled and thus is
// always bad to see in the instruction stream (even if turned off by a
// conditional).
func isOpcodeDisabled(opcode byte) bool {
	switch opcode {
	case OP_CAT, OP_SUBSTR, OP_LEFT, OP_RIGHT, OP_INVERT, OP_AND, OP_OR,
		OP_XOR, OP_2MUL, OP_2DIV, OP_MUL, OP_DIV, OP_MOD, OP_LSHIFT,
		OP_RSHIFT:

		return true
	}
	return false
}

// isOpcodeConditional returns whether or not the opcode is a conditional
// opcode which changes the conditional execution stack when executed.  These
// run even on branches that are not executing, which also makes OP_VERIF and
// OP_VERNOTIF fail wherever they appear.
func isOpcodeConditional(opcode byte) bool {
	return opcode >= OP_IF && opcode <= OP_ENDIF
}

// executeOpcode performs execution on the passed opcode.  It takes into
// account whether or not it is hidden by conditionals, but some rules still
// must be tested in this case.
func (vm *interpreter) executeOpcode(op *opcode, data []byte) error {
	// Data pushes are limited in size regardless of execution.
	if len(data) > MaxScriptElementSize {
		str := fmt.Sprintf("element size %d exceeds max allowed size %d",
			len(data), MaxScriptElementSize)
		return scriptError(ErrElementTooBig, str)
	}

	// Note that this includes OP_RESERVED which counts as a push
	// operation.
	if op.value > OP_16 {
		vm.numOps++
		if vm.numOps > MaxOpsPerScript {
			str := fmt.Sprintf("exceeded max operation limit of %d",
				MaxOpsPerScript)
			return scriptError(ErrTooManyOperations, str)
		}
	}

	// Disabled opcodes are fail on program counter.
	if isOpcodeDisabled(op.value) {
		str := fmt.Sprintf("attempt to execute disabled opcode %s",
			op.name)
		return scriptError(ErrDisabledOpcode, str)
	}

	// Nothing left to do when this is not a conditional opcode and it is
	// not in an executing branch.
	executing := vm.isBranchExecuting()
	if !executing && !isOpcodeConditional(op.value) {
		return nil
	}

	// Ensure all executed data push opcodes use the minimal encoding when
	// the minimal data verification flag is set.
	if executing && vm.hasFlag(ScriptVerifyMinimalData) &&
		op.value <= OP_PUSHDATA4 {

		if err := checkMinimalDataPush(op, data); err != nil {
			return err
		}
	}

	return op.opfunc(op, data, vm)
}

// EvalScript executes script against stack, leaving the resulting items on
// stack.  All other interpreter state, including the alternate stack, the
// conditional branch tracker, the operation count and the code separator
// position, lives only for the duration of the call.
//
// A nil return means the script executed to completion without error; it
// says nothing about the truthiness of the resulting stack, which is for the
// caller to decide.  Any panic raised while executing an opcode is recovered
// and reported as ErrUnknownError.
func EvalScript(stack *Stack, script []byte, flags ScriptFlags,
	checker SignatureChecker, sigVersion SigVersion) (err error) {

	if len(script) > MaxScriptSize {
		str := fmt.Sprintf("script size %d is larger than max allowed "+
			"size %d", len(script), MaxScriptSize)
		return scriptError(ErrScriptTooBig, str)
	}

	vm := interpreter{
		flags:      flags,
		checker:    checker,
		sigVersion: sigVersion,
		tokenizer:  MakeScriptTokenizer(script),
		dstack:     stack,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic while executing script "+
				"%x: %v", script, r)
			err = scriptError(ErrUnknownError,
				fmt.Sprintf("internal failure: %v", r))
		}
	}()

	for vm.tokenizer.Next() {
		op := vm.tokenizer.op
		if err := vm.executeOpcode(op, vm.tokenizer.Data()); err != nil {
			log.Tracef("%v", newLogClosure(func() string {
				return fmt.Sprintf("%s failed at offset %d: %v",
					op.name, vm.tokenizer.OpcodeIndex(), err)
			}))
			return err
		}

		// The number of elements in the combination of the data and
		// alt stacks must not exceed the maximum number of stack
		// elements allowed.
		combinedStackSize := vm.dstack.Depth() + vm.astack.Depth()
		if combinedStackSize > MaxStackSize {
			str := fmt.Sprintf("combined stack size %d > max allowed %d",
				combinedStackSize, MaxStackSize)
			return scriptError(ErrStackOverflow, str)
		}

		log.Tracef("%v", newLogClosure(func() string {
			var buf strings.Builder
			disasmOpcode(&buf, op, vm.tokenizer.Data(), false)
			return fmt.Sprintf("executed %s\nstack: %s", buf.String(),
				spew.Sdump(vm.dstack.stk))
		}))
	}

	// A malformed push is a bad opcode wherever it appears in the script.
	if err := vm.tokenizer.Err(); err != nil {
		return scriptError(ErrBadOpcode, err.Error())
	}

	if len(vm.condStack) != 0 {
		return scriptError(ErrUnbalancedConditional,
			"end of script reached in conditional execution")
	}

	return nil
}
