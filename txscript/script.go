// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"strings"
)

// These are the limits imposed on scripts by the consensus rules.
const (
	// MaxOpsPerScript is the maximum number of non-push operations allowed
	// in a script.  OP_CHECKMULTISIG additionally counts its keys.
	MaxOpsPerScript = 201

	// MaxPubKeysPerMultiSig is the maximum number of public keys allowed
	// in a multi-signature check.
	MaxPubKeysPerMultiSig = 20

	// MaxScriptElementSize is the maximum number of bytes allowed in a
	// single stack item.
	MaxScriptElementSize = 520

	// MaxScriptSize is the maximum allowed length of a raw script.
	MaxScriptSize = 10000

	// MaxStackSize is the maximum combined height of the data and
	// alternate stacks during execution.
	MaxStackSize = 1000
)

const (
	// payToWitnessPubKeyHashDataSize is the size of the witness program's
	// data push for a pay-to-witness-pub-key-hash output.
	payToWitnessPubKeyHashDataSize = 20

	// payToWitnessScriptHashDataSize is the size of the witness program's
	// data push for a pay-to-witness-script-hash output.
	payToWitnessScriptHashDataSize = 32

	// minWitnessProgramSize and maxWitnessProgramSize bound the size of a
	// witness program script: a version opcode, a single data push opcode
	// and 2 to 40 bytes of program.
	minWitnessProgramSize = 4
	maxWitnessProgramSize = 42
)

// isSmallInt returns whether or not the opcode is considered a small integer,
// which is an OP_0, or OP_1 through OP_16.
func isSmallInt(op byte) bool {
	return op == OP_0 || (op >= OP_1 && op <= OP_16)
}

// asSmallInt returns the passed opcode, which must be true according to
// isSmallInt(), as an integer.
func asSmallInt(op byte) int {
	if op == OP_0 {
		return 0
	}

	return int(op - (OP_1 - 1))
}

// IsPushOnlyScript returns whether or not the passed script only pushes data
// according to the consensus definition of pushing data.
//
// WARNING: This function always treats the passed script as version 0.  The
// small integer opcodes and OP_RESERVED count as pushes; a malformed push
// makes the script not push only.
func IsPushOnlyScript(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		// All opcodes up to OP_16 are data push instructions.
		if tokenizer.Opcode() > OP_16 {
			return false
		}
	}
	return tokenizer.Err() == nil
}

// IsPayToScriptHash returns true if the script is in the standard
// pay-to-script-hash (P2SH) format, false otherwise.
//
// The format is exactly OP_HASH160 <20-byte hash> OP_EQUAL.
func IsPayToScriptHash(script []byte) bool {
	return len(script) == 23 &&
		script[0] == OP_HASH160 &&
		script[1] == OP_DATA_20 &&
		script[22] == OP_EQUAL
}

// IsWitnessProgram returns true if the passed script is a witness program,
// and false otherwise.  A witness program is a version opcode (OP_0 or OP_1
// through OP_16) followed by a single push of 2 to 40 bytes.
func IsWitnessProgram(script []byte) bool {
	_, _, ok := extractWitnessProgram(script)
	return ok
}

// ExtractWitnessProgramInfo attempts to extract the witness program version,
// as well as the witness program itself from the passed script.
func ExtractWitnessProgramInfo(script []byte) (int, []byte, error) {
	version, program, ok := extractWitnessProgram(script)
	if !ok {
		return 0, nil, fmt.Errorf("script %x is not a witness program, "+
			"unable to extract version or witness program", script)
	}
	return version, program, nil
}

// extractWitnessProgram is the shared implementation of IsWitnessProgram and
// ExtractWitnessProgramInfo.  The length of the data push is checked against
// the script length directly, so the push must be the plain one byte length
// form.
func extractWitnessProgram(script []byte) (int, []byte, bool) {
	if len(script) < minWitnessProgramSize ||
		len(script) > maxWitnessProgramSize {

		return 0, nil, false
	}
	if !isSmallInt(script[0]) {
		return 0, nil, false
	}
	if int(script[1])+2 != len(script) {
		return 0, nil, false
	}
	return asSmallInt(script[0]), script[2:], true
}

// checkMinimalDataPush returns whether or not the provided opcode is the
// smallest possible way to represent the given data.  For example, the value
// 15 could be pushed with OP_DATA_1 15 (among other variations); however,
// OP_15 is a single opcode that represents the same value and is only a single
// byte versus two bytes.
func checkMinimalDataPush(op *opcode, data []byte) error {
	opcodeVal := op.value
	dataLen := len(data)
	switch {
	case dataLen == 0 && opcodeVal != OP_0:
		str := fmt.Sprintf("zero length data push is encoded with "+
			"opcode %s instead of OP_0", op.name)
		return scriptError(ErrMinimalData, str)
	case dataLen == 1 && data[0] >= 1 && data[0] <= 16:
		if opcodeVal != OP_1+data[0]-1 {
			// Should have used OP_1 .. OP_16
			str := fmt.Sprintf("data push of the value %d encoded "+
				"with opcode %s instead of OP_%d", data[0],
				op.name, data[0])
			return scriptError(ErrMinimalData, str)
		}
	case dataLen == 1 && data[0] == 0x81:
		if opcodeVal != OP_1NEGATE {
			str := fmt.Sprintf("data push of the value -1 encoded "+
				"with opcode %s instead of OP_1NEGATE", op.name)
			return scriptError(ErrMinimalData, str)
		}
	case dataLen <= 75:
		if int(opcodeVal) != dataLen {
			// Should have used a direct push
			str := fmt.Sprintf("data push of %d bytes encoded "+
				"with opcode %s instead of OP_DATA_%d", dataLen,
				op.name, dataLen)
			return scriptError(ErrMinimalData, str)
		}
	case dataLen <= 255:
		if opcodeVal != OP_PUSHDATA1 {
			str := fmt.Sprintf("data push of %d bytes encoded "+
				"with opcode %s instead of OP_PUSHDATA1",
				dataLen, op.name)
			return scriptError(ErrMinimalData, str)
		}
	case dataLen <= 65535:
		if opcodeVal != OP_PUSHDATA2 {
			str := fmt.Sprintf("data push of %d bytes encoded "+
				"with opcode %s instead of OP_PUSHDATA2",
				dataLen, op.name)
			return scriptError(ErrMinimalData, str)
		}
	}
	return nil
}

// canonicalPush returns the plain push of data, using the direct length or
// OP_PUSHDATA forms only.  This is the form signatures take when they are
// searched for in a script and the form a redeem script must take in the
// signature script of a nested witness program.
func canonicalPush(data []byte) []byte {
	prefix := pushDataPrefix(len(data))
	push := make([]byte, 0, len(prefix)+len(data))
	push = append(push, prefix...)
	return append(push, data...)
}

// FindAndDelete returns the script with every occurrence of the plain push of
// data removed.  Occurrences only match when they start on an opcode
// boundary, and back-to-back occurrences are all removed.  Bytes following a
// malformed opcode are kept as is.  The passed script is not modified.
//
// An empty data slice matches the OP_0 opcode.
func FindAndDelete(script, data []byte) []byte {
	target := canonicalPush(data)

	var result []byte
	found := false
	keepFrom := 0
	tokenizer := MakeScriptTokenizer(script)
	for {
		pc := tokenizer.ByteIndex()
		result = append(result, script[keepFrom:pc]...)
		for len(script)-pc >= len(target) &&
			string(script[pc:pc+len(target)]) == string(target) {

			pc += len(target)
			found = true
		}
		keepFrom = pc

		// Resume tokenizing at the new position.
		tokenizer = ScriptTokenizer{script: script, offset: pc}
		if !tokenizer.Next() {
			break
		}
	}

	if !found {
		return script
	}
	return append(result, script[keepFrom:]...)
}

// removeCodeSeparators returns the script with all OP_CODESEPARATOR opcodes
// removed.  Anything following a malformed opcode is kept unchanged.
func removeCodeSeparators(script []byte) []byte {
	var result []byte
	found := false
	keepFrom := 0
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if tokenizer.Opcode() != OP_CODESEPARATOR {
			continue
		}
		found = true
		result = append(result, script[keepFrom:tokenizer.OpcodeIndex()]...)
		keepFrom = tokenizer.ByteIndex()
	}
	if !found {
		return script
	}
	return append(result, script[keepFrom:]...)
}

// DisasmString formats a disassembled script for one line printing.  When the
// script fails to parse, the returned string will contain the disassembled
// script up to the point the failure occurred along with the string '[error]'
// appended.  In addition, the reason the script failed to parse is returned
// if the caller wants more information about the failure.
func DisasmString(script []byte) (string, error) {
	var disbuf strings.Builder
	tokenizer := MakeScriptTokenizer(script)
	if tokenizer.Next() {
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), true)
	}
	for tokenizer.Next() {
		disbuf.WriteByte(' ')
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), true)
	}
	if tokenizer.Err() != nil {
		if tokenizer.ByteIndex() != 0 {
			disbuf.WriteByte(' ')
		}
		disbuf.WriteString("[error]")
	}
	return disbuf.String(), tokenizer.Err()
}

// countSigOps returns the number of signature operations in the script.  When
// precise is set, a multisig preceded by a small integer counts that many
// operations; otherwise it counts MaxPubKeysPerMultiSig.  Counting stops at
// the first parse failure.
func countSigOps(script []byte, precise bool) int {
	numSigOps := 0
	prevOp := byte(OP_INVALIDOPCODE)
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		switch tokenizer.Opcode() {
		case OP_CHECKSIG, OP_CHECKSIGVERIFY:
			numSigOps++

		case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
			if precise && prevOp >= OP_1 && prevOp <= OP_16 {
				numSigOps += asSmallInt(prevOp)
			} else {
				numSigOps += MaxPubKeysPerMultiSig
			}
		}
		prevOp = tokenizer.Opcode()
	}
	return numSigOps
}

// GetSigOpCount provides a quick count of the number of signature operations
// in a script. a CHECKSIG operations counts for 1, and a CHECK_MULTISIG for 20.
// If the script fails to parse, then the count up to the point of failure is
// returned.
func GetSigOpCount(script []byte) int {
	return countSigOps(script, false)
}

// GetPreciseSigOpCount returns the number of signature operations in
// scriptPubKey.  If bip16 is true then scriptSig may be searched for the
// Pay-To-Script-Hash script in order to find the precise number of signature
// operations in the transaction.  If the script fails to parse, then the count
// up to the point of failure is returned.
func GetPreciseSigOpCount(scriptSig, scriptPubKey []byte, bip16 bool) int {
	// Don't check if the script is not P2SH.
	if !bip16 || !IsPayToScriptHash(scriptPubKey) {
		return countSigOps(scriptPubKey, true)
	}

	// The public key script is a pay-to-script-hash, so parse the
	// signature script to get the final item.  Scripts that fail to fully
	// parse count as 0 signature operations.
	var redeemScript []byte
	tokenizer := MakeScriptTokenizer(scriptSig)
	for tokenizer.Next() {
		if tokenizer.Opcode() > OP_16 {
			return 0
		}
		redeemScript = tokenizer.Data()
	}
	if tokenizer.Err() != nil {
		return 0
	}

	return countSigOps(redeemScript, true)
}
