// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/wire"
)

// RawTxInSignature returns the serialized ECDSA signature for the input idx of
// the given transaction, with hashType appended to it.  The signature commits
// to the legacy signature hash of subScript.
func RawTxInSignature(tx *wire.MsgTx, idx int, subScript []byte,
	hashType SigHashType, key *btcec.PrivateKey) ([]byte, error) {

	if idx < 0 || idx >= len(tx.TxIn) {
		return nil, fmt.Errorf("input index %d out of range", idx)
	}
	hash := CalcSignatureHash(subScript, hashType, tx, idx)
	signature := ecdsa.Sign(key, hash[:])

	return append(signature.Serialize(), byte(hashType)), nil
}

// RawTxInWitnessSignature returns the serialized ECDSA signature for the input
// idx of the given transaction, with hashType appended to it.  The signature
// commits to the BIP0143 signature hash of subScript and the amount of the
// output being spent.  sigHashes may be nil.
func RawTxInWitnessSignature(tx *wire.MsgTx, sigHashes *TxSigHashes, idx int,
	amt int64, subScript []byte, hashType SigHashType,
	key *btcec.PrivateKey) ([]byte, error) {

	hash, err := CalcWitnessSigHash(subScript, sigHashes, hashType, tx, idx,
		amt)
	if err != nil {
		return nil, err
	}
	signature := ecdsa.Sign(key, hash[:])

	return append(signature.Serialize(), byte(hashType)), nil
}

// SpendData is one candidate for spending an output: a signature script and
// a witness.
type SpendData struct {
	SigScript []byte
	Witness   wire.TxWitness
}

// spendStacks is SpendData taken apart into the items the signature script
// pushes and the witness items.
type spendStacks struct {
	script  [][]byte
	witness [][]byte
}

// newSpendStacks takes the passed spend data apart.  The signature script is
// evaluated without a transaction, so anything but pushes leaves whatever the
// script pushed before it.
func newSpendStacks(sd SpendData) spendStacks {
	stack := NewStack(nil)
	err := EvalScript(stack, sd.SigScript, ScriptVerifyStrictEncoding,
		nullChecker{}, SigVersionBase)
	if err != nil {
		log.Debugf("Signature script %x does not evaluate cleanly: %v",
			sd.SigScript, err)
	}

	witness := make([][]byte, len(sd.Witness))
	copy(witness, sd.Witness)
	return spendStacks{script: stack.Items(), witness: witness}
}

// pushAll returns a script pushing every item, using the small integer
// opcodes where possible.
func pushAll(items [][]byte) ([]byte, error) {
	builder := NewScriptBuilder()
	for _, item := range items {
		switch {
		case len(item) == 0:
			builder.AddOp(OP_0)
		case len(item) == 1 && item[0] >= 1 && item[0] <= 16:
			builder.AddOp(OP_1 - 1 + item[0])
		default:
			builder.AddFullData(item)
		}
	}
	return builder.Script()
}

// spendData reassembles the stacks into a signature script and witness.
func (s spendStacks) spendData() (SpendData, error) {
	var sigScript []byte
	if len(s.script) > 0 {
		var err error
		sigScript, err = pushAll(s.script)
		if err != nil {
			return SpendData{}, err
		}
	}
	var witness wire.TxWitness
	if len(s.witness) > 0 {
		witness = wire.TxWitness(s.witness)
	}
	return SpendData{SigScript: sigScript, Witness: witness}, nil
}

// lastEmpty returns whether items is empty or its last item is.
func lastEmpty(items [][]byte) bool {
	return len(items) == 0 || len(items[len(items)-1]) == 0
}

// firstEmpty returns whether items is empty or its first item is.
func firstEmpty(items [][]byte) bool {
	return len(items) == 0 || len(items[0]) == 0
}

// CombineSignatures merges two candidate spends of the output locked by
// pkScript into the most complete one.  The checker is used to match
// multisig signatures to their public keys, so it must be a checker for the
// spending input.
//
// Spends of scripts that are not understood are not merged; the one with the
// longer signature script wins.
func CombineSignatures(pkScript []byte, checker SignatureChecker,
	a, b SpendData) (SpendData, error) {

	merged := combineStacks(pkScript, checker, newSpendStacks(a),
		newSpendStacks(b), SigVersionBase)
	return merged.spendData()
}

// combineStacks merges two candidate spends of pkScript, both given as
// stacks.
func combineStacks(pkScript []byte, checker SignatureChecker,
	sigs1, sigs2 spendStacks, sigVersion SigVersion) spendStacks {

	class, params := ClassifyScript(pkScript)
	log.Tracef("Combining signatures for %v script", class)

	switch class {
	case PubKeyTy, PubKeyHashTy:
		// Signatures are bigger than placeholders or empty scripts.
		if firstEmpty(sigs1.script) {
			return sigs2
		}
		return sigs1

	case WitnessV0PubKeyHashTy:
		if firstEmpty(sigs1.witness) {
			return sigs2
		}
		return sigs1

	case ScriptHashTy:
		if lastEmpty(sigs1.script) {
			return sigs2
		}
		if lastEmpty(sigs2.script) {
			return sigs1
		}

		// Merge the spends of the redeem script and put it back on
		// top.
		redeemScript := sigs1.script[len(sigs1.script)-1]
		sigs1.script = sigs1.script[:len(sigs1.script)-1]
		sigs2.script = sigs2.script[:len(sigs2.script)-1]
		result := combineStacks(redeemScript, checker, sigs1, sigs2,
			sigVersion)
		result.script = append(result.script, redeemScript)
		return result

	case WitnessV0ScriptHashTy:
		if lastEmpty(sigs1.witness) {
			return sigs2
		}
		if lastEmpty(sigs2.witness) {
			return sigs1
		}

		// The witness script inputs are combined like a signature
		// script spending the witness script.
		witnessScript := sigs1.witness[len(sigs1.witness)-1]
		inner1 := spendStacks{script: sigs1.witness[:len(sigs1.witness)-1]}
		inner2 := spendStacks{script: sigs2.witness[:len(sigs2.witness)-1]}
		result := combineStacks(witnessScript, checker, inner1, inner2,
			SigVersionWitnessV0)
		witness := make([][]byte, 0, len(result.script)+1)
		witness = append(witness, result.script...)
		witness = append(witness, witnessScript)
		return spendStacks{witness: witness}

	case MultiSigTy:
		return spendStacks{
			script: combineMultiSig(pkScript, checker, params,
				sigs1.script, sigs2.script, sigVersion),
		}
	}

	// Nothing is known about the script, so assume the bigger spend is
	// the right one.
	script1, _ := pushAll(sigs1.script)
	script2, _ := pushAll(sigs2.script)
	if len(script1) >= len(script2) {
		return sigs1
	}
	return sigs2
}

// combineMultiSig merges the signatures of two spends of a multisig script.
// Every non-empty item of either spend is tried against the public keys in
// script order and kept for the first key it is valid for that has no
// signature yet.  The result holds the dummy item consumed by
// OP_CHECKMULTISIG followed by the signatures in key order, padded with empty
// items up to the required count.
func combineMultiSig(pkScript []byte, checker SignatureChecker,
	params ScriptParams, sigs1, sigs2 [][]byte,
	sigVersion SigVersion) [][]byte {

	// Collect the distinct candidate signatures in a fixed order.
	var allSigs [][]byte
	for _, sig := range append(append([][]byte{}, sigs1...), sigs2...) {
		if len(sig) != 0 {
			allSigs = append(allSigs, sig)
		}
	}
	sort.Slice(allSigs, func(i, j int) bool {
		return bytes.Compare(allSigs[i], allSigs[j]) < 0
	})

	keySigs := make(map[string][]byte, len(params.PubKeys))
	for i, sig := range allSigs {
		if i > 0 && bytes.Equal(sig, allSigs[i-1]) {
			continue
		}
		for _, pubKey := range params.PubKeys {
			if _, ok := keySigs[string(pubKey)]; ok {
				continue
			}
			if checker.CheckSig(sig, pubKey, pkScript, sigVersion) {
				keySigs[string(pubKey)] = sig
				break
			}
		}
	}

	// The extra item is consumed by OP_CHECKMULTISIG due to an off by one
	// in the reference implementation.
	result := [][]byte{{}}
	doneSigs := 0
	for _, pubKey := range params.PubKeys {
		if doneSigs == params.RequiredSigs {
			break
		}
		if sig, ok := keySigs[string(pubKey)]; ok {
			result = append(result, sig)
			doneSigs++
		}
	}

	// Padding for missing ones.
	for i := doneSigs; i < params.RequiredSigs; i++ {
		result = append(result, []byte{})
	}
	return result
}
