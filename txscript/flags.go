// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"strings"
)

// ScriptFlags is a bitmask defining additional operations or tests that will
// be done when executing a script pair.  The bit positions are fixed and
// match the reference implementation so flag sets can be exchanged between
// implementations.
type ScriptFlags uint32

const (
	// ScriptBip16 defines whether the bip16 threshold has passed and thus
	// pay-to-script hash transactions will be fully validated.
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptVerifyStrictEncoding defines that signature scripts and
	// public keys must follow the strict encoding requirements.
	ScriptVerifyStrictEncoding

	// ScriptVerifyDERSignatures defines that signatures are required
	// to comply with the DER format.
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS defines that signatures are required to comply with
	// the DER format and whose S value is <= order / 2.  This is rule 5
	// of BIP0062.
	ScriptVerifyLowS

	// ScriptVerifyNullDummy defines whether to verify that the dummy
	// stack item consumed by CHECKMULTISIG is zero length.
	ScriptVerifyNullDummy

	// ScriptVerifySigPushOnly defines that signature scripts must contain
	// only pushed data.  This is rule 2 of BIP0062.
	ScriptVerifySigPushOnly

	// ScriptVerifyMinimalData defines that signatures must use the smallest
	// push operator. This is both rules 3 and 4 of BIP0062.
	ScriptVerifyMinimalData

	// ScriptDiscourageUpgradableNops defines whether to verify that
	// NOP1 through NOP10 are reserved for future soft-fork upgrades.  This
	// flag must not be used for consensus critical code nor applied to
	// blocks as this flag is only for stricter standard transaction
	// checks.  This flag is only applied when the above opcodes are
	// executed.
	ScriptDiscourageUpgradableNops

	// ScriptVerifyCleanStack defines that the stack must contain only
	// one stack element after evaluation and that the element must be
	// true if interpreted as a boolean.  This is rule 6 of BIP0062.
	// This flag should never be used without the ScriptBip16 flag.
	ScriptVerifyCleanStack

	// ScriptVerifyCheckLockTimeVerify defines whether to verify that
	// a transaction output is spendable based on the locktime.
	// This is BIP0065.
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify defines whether to allow execution
	// pathways of a script to be restricted based on the age of the output
	// being spent.  This is BIP0112.
	ScriptVerifyCheckSequenceVerify

	// ScriptVerifyWitness defines whether or not to verify a transaction
	// output using a witness program template.
	ScriptVerifyWitness

	// ScriptVerifyDiscourageUpgradeableWitnessProgram makes witness
	// program with versions 1-16 non-standard.
	ScriptVerifyDiscourageUpgradeableWitnessProgram

	// ScriptVerifyMinimalIf makes a script with an OP_IF/OP_NOTIF whose
	// operand is anything other than empty vector or [0x01] non-standard.
	ScriptVerifyMinimalIf

	// ScriptVerifyNullFail defines that signatures must be empty if
	// a CHECKSIG or CHECKMULTISIG operation fails.
	ScriptVerifyNullFail

	// ScriptVerifyWitnessPubKeyType makes a script within a check-sig
	// operation whose public key isn't serialized in a compressed format
	// non-standard.
	ScriptVerifyWitnessPubKeyType
)

const (
	// ScriptVerifyNone is the empty flag set.
	ScriptVerifyNone ScriptFlags = 0

	// MandatoryVerifyFlags are the script flags which are applied to every
	// transaction regardless of policy.
	MandatoryVerifyFlags = ScriptBip16

	// StandardVerifyFlags are the script flags which are used when
	// executing transaction scripts to enforce additional checks which
	// are required for the script to be considered standard.  These checks
	// help reduce issues related to transaction malleability as well as
	// allow pay-to-script hash transactions.  Note these flags are
	// different than what is required for the consensus rules in that they
	// are more strict.
	StandardVerifyFlags = MandatoryVerifyFlags |
		ScriptVerifyDERSignatures |
		ScriptVerifyStrictEncoding |
		ScriptVerifyMinimalData |
		ScriptVerifyNullDummy |
		ScriptDiscourageUpgradableNops |
		ScriptVerifyCleanStack |
		ScriptVerifyMinimalIf |
		ScriptVerifyNullFail |
		ScriptVerifyCheckLockTimeVerify |
		ScriptVerifyCheckSequenceVerify |
		ScriptVerifyLowS |
		ScriptVerifyWitness |
		ScriptVerifyDiscourageUpgradeableWitnessProgram |
		ScriptVerifyWitnessPubKeyType
)

// scriptFlagNames maps each flag to the name used for it by the reference
// test data and the command line.
var scriptFlagNames = []struct {
	flag ScriptFlags
	name string
}{
	{ScriptBip16, "P2SH"},
	{ScriptVerifyStrictEncoding, "STRICTENC"},
	{ScriptVerifyDERSignatures, "DERSIG"},
	{ScriptVerifyLowS, "LOW_S"},
	{ScriptVerifyNullDummy, "NULLDUMMY"},
	{ScriptVerifySigPushOnly, "SIGPUSHONLY"},
	{ScriptVerifyMinimalData, "MINIMALDATA"},
	{ScriptDiscourageUpgradableNops, "DISCOURAGE_UPGRADABLE_NOPS"},
	{ScriptVerifyCleanStack, "CLEANSTACK"},
	{ScriptVerifyCheckLockTimeVerify, "CHECKLOCKTIMEVERIFY"},
	{ScriptVerifyCheckSequenceVerify, "CHECKSEQUENCEVERIFY"},
	{ScriptVerifyWitness, "WITNESS"},
	{ScriptVerifyDiscourageUpgradeableWitnessProgram, "DISCOURAGE_UPGRADABLE_WITNESS_PROGRAM"},
	{ScriptVerifyMinimalIf, "MINIMALIF"},
	{ScriptVerifyNullFail, "NULLFAIL"},
	{ScriptVerifyWitnessPubKeyType, "WITNESS_PUBKEYTYPE"},
}

// String returns the flag set as a comma separated list of flag names, or
// NONE for the empty set.
func (f ScriptFlags) String() string {
	if f == ScriptVerifyNone {
		return "NONE"
	}

	var names []string
	for _, entry := range scriptFlagNames {
		if f&entry.flag == entry.flag {
			names = append(names, entry.name)
			f &^= entry.flag
		}
	}
	if f != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(f)))
	}
	return strings.Join(names, ",")
}

// ParseScriptFlags parses a comma separated list of flag names as produced by
// ScriptFlags.String.  The names "NONE", "MANDATORY" and "STANDARD" are also
// accepted.  Matching is case insensitive and surrounding whitespace is
// ignored.
func ParseScriptFlags(s string) (ScriptFlags, error) {
	var flags ScriptFlags
	for _, word := range strings.Split(s, ",") {
		word = strings.ToUpper(strings.TrimSpace(word))
		switch word {
		case "", "NONE":
			continue
		case "MANDATORY":
			flags |= MandatoryVerifyFlags
			continue
		case "STANDARD":
			flags |= StandardVerifyFlags
			continue
		}

		found := false
		for _, entry := range scriptFlagNames {
			if entry.name == word {
				flags |= entry.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown script flag %q", word)
		}
	}
	return flags, nil
}

// checkFlags returns an error when the flag set contains a combination the
// verifier cannot honor.
func checkFlags(flags ScriptFlags) error {
	// The clean stack flag (ScriptVerifyCleanStack) is not allowed without
	// the pay-to-script-hash (P2SH) evaluation (ScriptBip16) flag.
	//
	// Recall that evaluating a P2SH script without the flag set results in
	// non-P2SH evaluation which leaves the P2SH inputs on the stack.
	// Thus, allowing the clean stack flag without the P2SH flag would make
	// it possible to have a situation where P2SH would not be a soft fork
	// when it should be.
	if flags&ScriptVerifyCleanStack != 0 && flags&ScriptBip16 == 0 {
		return scriptError(ErrInvalidFlags,
			"invalid flags combination: clean stack requires P2SH")
	}

	// The witness flag has the same dependency for the same reason: a
	// nested witness program is only reachable through P2SH evaluation.
	if flags&ScriptVerifyWitness != 0 && flags&ScriptBip16 == 0 {
		return scriptError(ErrInvalidFlags,
			"invalid flags combination: witness requires P2SH")
	}

	return nil
}
