// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
)

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy         ScriptClass = iota // None of the recognized forms.
	PubKeyTy                                 // Pay pubkey.
	PubKeyHashTy                             // Pay pubkey hash.
	WitnessV0PubKeyHashTy                    // Pay witness pubkey hash.
	ScriptHashTy                             // Pay to script hash.
	WitnessV0ScriptHashTy                    // Pay to witness script hash.
	MultiSigTy                               // Multi signature.
	NullDataTy                               // Empty data-only (provably prunable).
)

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy:         "nonstandard",
	PubKeyTy:              "pubkey",
	PubKeyHashTy:          "pubkeyhash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0ScriptHashTy: "witness_v0_scripthash",
	MultiSigTy:            "multisig",
	NullDataTy:            "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// ScriptParams holds the values a classified script commits to.  Only the
// fields that apply to the class are set.
type ScriptParams struct {
	// PubKeys holds the key of a pay-to-pubkey script or the keys of a
	// multisig script, in script order.
	PubKeys [][]byte

	// RequiredSigs is the number of signatures needed to spend.
	RequiredSigs int

	// Hash is the public key hash, script hash or witness program.
	Hash []byte

	// WitnessVersion is the version of a witness program.
	WitnessVersion int
}

// isValidPubKeySize returns whether the length of pubKey matches the length
// implied by its format byte.  The hybrid formats 0x06 and 0x07 count as
// uncompressed.
func isValidPubKeySize(pubKey []byte) bool {
	if len(pubKey) == 0 {
		return false
	}
	switch pubKey[0] {
	case pubKeyCompressedEven, pubKeyCompressedOdd:
		return len(pubKey) == compressedPubKeyLen
	case pubKeyUncompressed, 0x06, 0x07:
		return len(pubKey) == uncompressedPubKeyLen
	}
	return false
}

// extractPubKey extracts the public key from the passed script if it is a
// standard pay-to-pubkey script.  It will return nil otherwise.
func extractPubKey(script []byte) []byte {
	// A pay-to-pubkey script is of the form:
	//  <33 or 65 byte pubkey> OP_CHECKSIG
	switch {
	case len(script) == compressedPubKeyLen+2 &&
		script[0] == compressedPubKeyLen &&
		script[len(script)-1] == OP_CHECKSIG,

		len(script) == uncompressedPubKeyLen+2 &&
			script[0] == uncompressedPubKeyLen &&
			script[len(script)-1] == OP_CHECKSIG:

		pubKey := script[1 : len(script)-1]
		if isValidPubKeySize(pubKey) {
			return pubKey
		}
	}
	return nil
}

// extractPubKeyHash extracts the public key hash from the passed script if it
// is a standard pay-to-pubkey-hash script.  It will return nil otherwise.
func extractPubKeyHash(script []byte) []byte {
	// A pay-to-pubkey-hash script is of the form:
	//  OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
	if len(script) == 25 &&
		script[0] == OP_DUP &&
		script[1] == OP_HASH160 &&
		script[2] == OP_DATA_20 &&
		script[23] == OP_EQUALVERIFY &&
		script[24] == OP_CHECKSIG {

		return script[3:23]
	}
	return nil
}

// extractMultisig extracts the required signature count and the public keys
// from the passed script if it is a standard multisig script.  The keys may
// be pushed with any push opcode.
func extractMultisig(script []byte) (int, [][]byte, bool) {
	// A multi-signature script is of the form:
	//  <numsigs> <pubkey> <pubkey> <pubkey>... <numpubkeys> OP_CHECKMULTISIG
	if len(script) == 0 || script[len(script)-1] != OP_CHECKMULTISIG {
		return 0, nil, false
	}

	tokenizer := MakeScriptTokenizer(script)
	if !tokenizer.Next() || !isSmallInt(tokenizer.Opcode()) ||
		tokenizer.Opcode() == OP_0 {

		return 0, nil, false
	}
	required := asSmallInt(tokenizer.Opcode())

	var pubKeys [][]byte
	for tokenizer.Next() {
		data := tokenizer.Data()
		if tokenizer.Opcode() > OP_PUSHDATA4 || !isValidPubKeySize(data) {
			break
		}
		pubKeys = append(pubKeys, data)
	}
	if tokenizer.Err() != nil || tokenizer.Done() {
		return 0, nil, false
	}

	// The opcode that ended the keys must be the key count, followed by
	// nothing but the final OP_CHECKMULTISIG.
	op := tokenizer.Opcode()
	if !isSmallInt(op) || op == OP_0 {
		return 0, nil, false
	}
	numPubKeys := asSmallInt(op)
	if numPubKeys != len(pubKeys) || numPubKeys < required {
		return 0, nil, false
	}
	if tokenizer.ByteIndex() != len(script)-1 {
		return 0, nil, false
	}
	return required, pubKeys, true
}

// isNullDataScript returns whether the passed script is OP_RETURN followed by
// data pushes only.
func isNullDataScript(script []byte) bool {
	return len(script) >= 1 && script[0] == OP_RETURN &&
		IsPushOnlyScript(script[1:])
}

// ClassifyScript returns the class of the passed public key script along with
// the values it commits to.
func ClassifyScript(script []byte) (ScriptClass, ScriptParams) {
	if IsPayToScriptHash(script) {
		return ScriptHashTy, ScriptParams{Hash: script[2:22]}
	}

	if version, program, ok := extractWitnessProgram(script); ok {
		params := ScriptParams{Hash: program, WitnessVersion: version}
		switch {
		case version == 0 && len(program) == payToWitnessPubKeyHashDataSize:
			return WitnessV0PubKeyHashTy, params
		case version == 0 && len(program) == payToWitnessScriptHashDataSize:
			return WitnessV0ScriptHashTy, params
		}
		return NonStandardTy, ScriptParams{}
	}

	if isNullDataScript(script) {
		return NullDataTy, ScriptParams{}
	}

	if pubKey := extractPubKey(script); pubKey != nil {
		return PubKeyTy, ScriptParams{
			PubKeys:      [][]byte{pubKey},
			RequiredSigs: 1,
		}
	}

	if hash := extractPubKeyHash(script); hash != nil {
		return PubKeyHashTy, ScriptParams{Hash: hash, RequiredSigs: 1}
	}

	if required, pubKeys, ok := extractMultisig(script); ok {
		return MultiSigTy, ScriptParams{
			PubKeys:      pubKeys,
			RequiredSigs: required,
		}
	}

	return NonStandardTy, ScriptParams{}
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	class, _ := ClassifyScript(script)
	return class
}

// payToPubKeyHashScript creates a new script to pay a transaction
// output to a 20-byte pubkey hash. It is expected that the input is a valid
// hash.
func payToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).
		AddData(pubKeyHash).AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).
		Script()
}

// checkHashLen returns an error unless hash has the expected length.
func checkHashLen(what string, hash []byte, want int) error {
	if len(hash) != want {
		return fmt.Errorf("%s must be %d bytes, got %d", what, want,
			len(hash))
	}
	return nil
}

// PayToPubKeyScript creates a new script to pay a transaction output to the
// passed serialized public key.
func PayToPubKeyScript(serializedPubKey []byte) ([]byte, error) {
	if !isValidPubKeySize(serializedPubKey) {
		return nil, fmt.Errorf("invalid public key %x",
			serializedPubKey)
	}
	return NewScriptBuilder().AddData(serializedPubKey).
		AddOp(OP_CHECKSIG).Script()
}

// PayToPubKeyHashScript creates a new script to pay a transaction output to a
// 20-byte public key hash.
func PayToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	if err := checkHashLen("public key hash", pubKeyHash, 20); err != nil {
		return nil, err
	}
	return payToPubKeyHashScript(pubKeyHash)
}

// PayToScriptHashScript creates a new script to pay a transaction output to a
// script hash.
func PayToScriptHashScript(scriptHash []byte) ([]byte, error) {
	if err := checkHashLen("script hash", scriptHash, 20); err != nil {
		return nil, err
	}
	return NewScriptBuilder().AddOp(OP_HASH160).AddData(scriptHash).
		AddOp(OP_EQUAL).Script()
}

// PayToWitnessPubKeyHashScript creates a new script to pay to a version 0
// pubkey hash witness program.
func PayToWitnessPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	err := checkHashLen("witness public key hash", pubKeyHash,
		payToWitnessPubKeyHashDataSize)
	if err != nil {
		return nil, err
	}
	return NewScriptBuilder().AddOp(OP_0).AddData(pubKeyHash).Script()
}

// PayToWitnessScriptHashScript creates a new script to pay to a version 0
// script hash witness program.  The hash is the sha256 of the witness script.
func PayToWitnessScriptHashScript(scriptHash []byte) ([]byte, error) {
	err := checkHashLen("witness script hash", scriptHash,
		payToWitnessScriptHashDataSize)
	if err != nil {
		return nil, err
	}
	return NewScriptBuilder().AddOp(OP_0).AddData(scriptHash).Script()
}

// MultiSigScript returns a valid script for a multisignature redemption where
// nrequired of the keys in pubkeys are required to have signed the
// transaction for success.  An error is returned if nrequired is larger than
// the number of keys provided.
func MultiSigScript(pubKeys [][]byte, nrequired int) ([]byte, error) {
	if len(pubKeys) < nrequired {
		return nil, fmt.Errorf("unable to generate multisig script with "+
			"%d required signatures when there are only %d public "+
			"keys available", nrequired, len(pubKeys))
	}
	if nrequired < 1 || len(pubKeys) > 16 {
		return nil, fmt.Errorf("unsupported multisig shape %d of %d",
			nrequired, len(pubKeys))
	}

	builder := NewScriptBuilder().AddInt64(int64(nrequired))
	for _, key := range pubKeys {
		if !isValidPubKeySize(key) {
			return nil, fmt.Errorf("invalid public key %x", key)
		}
		builder.AddData(key)
	}
	builder.AddInt64(int64(len(pubKeys)))
	builder.AddOp(OP_CHECKMULTISIG)

	return builder.Script()
}

// NullDataScript creates a provably-prunable script containing OP_RETURN
// followed by the passed data.
func NullDataScript(data []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_RETURN).AddData(data).Script()
}
