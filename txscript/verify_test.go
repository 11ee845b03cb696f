// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// spendAmount is the value of every output spent by the tests below.
const spendAmount = 100000000

// spendCase is an output together with a transaction spending it.
type spendCase struct {
	pkScript []byte
	tx       *wire.MsgTx
}

// input returns the only input of the spending transaction.
func (c *spendCase) input() *wire.TxIn {
	return c.tx.TxIn[0]
}

// verify runs the spend through VerifyScript with a transaction checker.
func (c *spendCase) verify(flags ScriptFlags) error {
	checker := NewTransactionChecker(c.tx, 0, spendAmount)
	return VerifyScript(c.input().SignatureScript, c.pkScript,
		c.input().Witness, flags, checker)
}

// newSpendCase returns a spend of pkScript with no signature script or
// witness yet.
func newSpendCase(pkScript []byte) *spendCase {
	return &spendCase{
		pkScript: pkScript,
		tx:       createSpendingTx(nil, pkScript, nil, spendAmount),
	}
}

// legacySig signs the spending transaction over subScript.
func (c *spendCase) legacySig(t *testing.T, subScript []byte,
	key *btcec.PrivateKey) []byte {

	t.Helper()

	sig, err := RawTxInSignature(c.tx, 0, subScript, SigHashAll, key)
	require.NoError(t, err)
	return sig
}

// witnessSig signs the spending transaction over subScript using the
// witness signature hash.
func (c *spendCase) witnessSig(t *testing.T, subScript []byte,
	key *btcec.PrivateKey) []byte {

	t.Helper()

	sig, err := RawTxInWitnessSignature(c.tx, NewTxSigHashes(c.tx), 0,
		spendAmount, subScript, SigHashAll, key)
	require.NoError(t, err)
	return sig
}

// p2pkhSpend returns a signed spend of a pay-to-pubkey-hash output.
func p2pkhSpend(t *testing.T) *spendCase {
	key, pubKey := newTestKey(t)
	pkScript, err := PayToPubKeyHashScript(btcutil.Hash160(pubKey))
	require.NoError(t, err)

	c := newSpendCase(pkScript)
	sig := c.legacySig(t, pkScript, key)
	c.input().SignatureScript = mustScript(t)(
		NewScriptBuilder().AddData(sig).AddData(pubKey).Script())
	return c
}

// p2pkSpend returns a signed spend of a pay-to-pubkey output.
func p2pkSpend(t *testing.T) *spendCase {
	key, pubKey := newTestKey(t)
	pkScript, err := PayToPubKeyScript(pubKey)
	require.NoError(t, err)

	c := newSpendCase(pkScript)
	sig := c.legacySig(t, pkScript, key)
	c.input().SignatureScript = mustScript(t)(
		NewScriptBuilder().AddData(sig).Script())
	return c
}

// p2shMultiSigSpend returns a spend of a 2-of-3 multisig redeem script
// behind pay-to-script-hash, signed by the first and last keys.
func p2shMultiSigSpend(t *testing.T) *spendCase {
	key1, pubKey1 := newTestKey(t)
	_, pubKey2 := newTestKey(t)
	key3, pubKey3 := newTestKey(t)
	redeemScript, err := MultiSigScript(
		[][]byte{pubKey1, pubKey2, pubKey3}, 2)
	require.NoError(t, err)
	pkScript, err := PayToScriptHashScript(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	c := newSpendCase(pkScript)
	sig1 := c.legacySig(t, redeemScript, key1)
	sig3 := c.legacySig(t, redeemScript, key3)
	c.input().SignatureScript = mustScript(t)(NewScriptBuilder().
		AddOp(OP_0).AddData(sig1).AddData(sig3).AddData(redeemScript).
		Script())
	return c
}

// p2wpkhSpend returns a signed spend of a native pay-to-witness-pubkey-hash
// output.
func p2wpkhSpend(t *testing.T) *spendCase {
	key, pubKey := newTestKey(t)
	pubKeyHash := btcutil.Hash160(pubKey)
	pkScript, err := PayToWitnessPubKeyHashScript(pubKeyHash)
	require.NoError(t, err)
	scriptCode, err := payToPubKeyHashScript(pubKeyHash)
	require.NoError(t, err)

	c := newSpendCase(pkScript)
	sig := c.witnessSig(t, scriptCode, key)
	c.input().Witness = wire.TxWitness{sig, pubKey}
	return c
}

// p2wshSpend returns a signed spend of a native pay-to-witness-script-hash
// output whose witness script is a pay-to-pubkey script.
func p2wshSpend(t *testing.T) *spendCase {
	key, pubKey := newTestKey(t)
	witnessScript, err := PayToPubKeyScript(pubKey)
	require.NoError(t, err)
	scriptHash := sha256.Sum256(witnessScript)
	pkScript, err := PayToWitnessScriptHashScript(scriptHash[:])
	require.NoError(t, err)

	c := newSpendCase(pkScript)
	sig := c.witnessSig(t, witnessScript, key)
	c.input().Witness = wire.TxWitness{sig, witnessScript}
	return c
}

// nestedP2WPKHSpend returns a signed spend of a pay-to-witness-pubkey-hash
// program nested in pay-to-script-hash.
func nestedP2WPKHSpend(t *testing.T) (*spendCase, []byte) {
	key, pubKey := newTestKey(t)
	pubKeyHash := btcutil.Hash160(pubKey)
	redeemScript, err := PayToWitnessPubKeyHashScript(pubKeyHash)
	require.NoError(t, err)
	pkScript, err := PayToScriptHashScript(btcutil.Hash160(redeemScript))
	require.NoError(t, err)
	scriptCode, err := payToPubKeyHashScript(pubKeyHash)
	require.NoError(t, err)

	c := newSpendCase(pkScript)
	sig := c.witnessSig(t, scriptCode, key)
	c.input().SignatureScript = mustScript(t)(
		NewScriptBuilder().AddData(redeemScript).Script())
	c.input().Witness = wire.TxWitness{sig, pubKey}
	return c, redeemScript
}

// TestVerifyScriptValidSpends ensures correctly signed spends of each of the
// standard output types verify under the standard flags, both directly and
// through an Engine with caches.
func TestVerifyScriptValidSpends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(t *testing.T) *spendCase
	}{
		{name: "p2pk", build: p2pkSpend},
		{name: "p2pkh", build: p2pkhSpend},
		{name: "p2sh multisig", build: p2shMultiSigSpend},
		{name: "p2wpkh", build: p2wpkhSpend},
		{name: "p2wsh", build: p2wshSpend},
		{
			name: "p2sh-p2wpkh",
			build: func(t *testing.T) *spendCase {
				c, _ := nestedP2WPKHSpend(t)
				return c
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			c := test.build(t)
			require.NoError(t, c.verify(StandardVerifyFlags))
			require.NoError(t, c.verify(MandatoryVerifyFlags|
				ScriptVerifyWitness))

			vm, err := NewEngine(c.pkScript, c.tx, 0,
				StandardVerifyFlags, NewSigCache(10),
				NewHashCache(10), spendAmount)
			require.NoError(t, err)
			require.NoError(t, vm.Execute())

			// A second run is served from the signature cache.
			require.NoError(t, vm.Execute())
		})
	}
}

// TestVerifyScriptInvalidSpends ensures tampered spends fail with the
// expected error code.
func TestVerifyScriptInvalidSpends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		build   func(t *testing.T) *spendCase
		flags   ScriptFlags
		wantErr ErrorCode
	}{{
		name: "p2pkh tampered signature",
		build: func(t *testing.T) *spendCase {
			c := p2pkhSpend(t)
			// The last byte of S, leaving the encoding intact.
			c.input().SignatureScript[len(c.input().SignatureScript)-36] ^= 0x01
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrNullFail,
	}, {
		name: "p2pkh tampered signature without nullfail",
		build: func(t *testing.T) *spendCase {
			c := p2pkhSpend(t)
			c.input().SignatureScript[len(c.input().SignatureScript)-36] ^= 0x01
			return c
		},
		flags:   ScriptBip16,
		wantErr: ErrEvalFalse,
	}, {
		name: "p2pkh wrong public key",
		build: func(t *testing.T) *spendCase {
			c := p2pkhSpend(t)
			_, other := newTestKey(t)
			copy(c.input().SignatureScript[len(c.input().SignatureScript)-33:],
				other)
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrEqualVerify,
	}, {
		name: "p2pkh extra item",
		build: func(t *testing.T) *spendCase {
			c := p2pkhSpend(t)
			c.input().SignatureScript = append([]byte{OP_1},
				c.input().SignatureScript...)
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrCleanStack,
	}, {
		name: "p2pkh unexpected witness",
		build: func(t *testing.T) *spendCase {
			c := p2pkhSpend(t)
			c.input().Witness = wire.TxWitness{{0x01}}
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessUnexpected,
	}, {
		name: "p2pkh non push signature script",
		build: func(t *testing.T) *spendCase {
			c := p2pkhSpend(t)
			c.input().SignatureScript = append([]byte{OP_NOP},
				c.input().SignatureScript...)
			return c
		},
		flags:   ScriptBip16 | ScriptVerifySigPushOnly,
		wantErr: ErrNotPushOnly,
	}, {
		name: "p2sh multisig missing signature",
		build: func(t *testing.T) *spendCase {
			c := p2shMultiSigSpend(t)
			ops := DecodeScript(c.input().SignatureScript)
			ops[2] = Op{Opcode: OP_0, Valid: true}
			c.input().SignatureScript = EncodeOps(ops)
			return c
		},
		flags:   ScriptBip16,
		wantErr: ErrEvalFalse,
	}, {
		name: "p2sh multisig missing signature with nullfail",
		build: func(t *testing.T) *spendCase {
			c := p2shMultiSigSpend(t)
			ops := DecodeScript(c.input().SignatureScript)
			ops[2] = Op{Opcode: OP_0, Valid: true}
			c.input().SignatureScript = EncodeOps(ops)
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrNullFail,
	}, {
		name: "p2sh redeem script behind non push",
		build: func(t *testing.T) *spendCase {
			redeemScript := []byte{OP_TRUE}
			pkScript, err := PayToScriptHashScript(
				btcutil.Hash160(redeemScript))
			require.NoError(t, err)
			c := newSpendCase(pkScript)
			c.input().SignatureScript = mustScript(t)(
				NewScriptBuilder().AddOp(OP_NOP).
					AddData(redeemScript).Script())
			return c
		},
		flags:   ScriptBip16,
		wantErr: ErrNotPushOnly,
	}, {
		name: "p2sh false redeem script",
		build: func(t *testing.T) *spendCase {
			redeemScript := []byte{OP_FALSE}
			pkScript, err := PayToScriptHashScript(
				btcutil.Hash160(redeemScript))
			require.NoError(t, err)
			c := newSpendCase(pkScript)
			c.input().SignatureScript = mustScript(t)(
				NewScriptBuilder().AddData(redeemScript).Script())
			return c
		},
		flags:   ScriptBip16,
		wantErr: ErrEvalFalse,
	}, {
		name: "p2wpkh with signature script",
		build: func(t *testing.T) *spendCase {
			c := p2wpkhSpend(t)
			c.input().SignatureScript = []byte{OP_1}
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessMalleated,
	}, {
		name: "p2wpkh three witness items",
		build: func(t *testing.T) *spendCase {
			c := p2wpkhSpend(t)
			c.input().Witness = append(c.input().Witness, []byte{0x01})
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessProgramMismatch,
	}, {
		name: "p2wpkh uncompressed key",
		build: func(t *testing.T) *spendCase {
			key, _ := newTestKey(t)
			pubKey := key.PubKey().SerializeUncompressed()
			pubKeyHash := btcutil.Hash160(pubKey)
			pkScript, err := PayToWitnessPubKeyHashScript(pubKeyHash)
			require.NoError(t, err)
			scriptCode, err := payToPubKeyHashScript(pubKeyHash)
			require.NoError(t, err)
			c := newSpendCase(pkScript)
			sig := c.witnessSig(t, scriptCode, key)
			c.input().Witness = wire.TxWitness{sig, pubKey}
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessPubKeyType,
	}, {
		name: "p2wsh empty witness",
		build: func(t *testing.T) *spendCase {
			c := p2wshSpend(t)
			c.input().Witness = nil
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessProgramEmpty,
	}, {
		name: "p2wsh wrong witness script",
		build: func(t *testing.T) *spendCase {
			c := p2wshSpend(t)
			c.input().Witness[1] = []byte{OP_TRUE}
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessProgramMismatch,
	}, {
		name: "p2wsh witness script leaves two items",
		build: func(t *testing.T) *spendCase {
			witnessScript := []byte{OP_1, OP_1}
			scriptHash := sha256.Sum256(witnessScript)
			pkScript, err := PayToWitnessScriptHashScript(scriptHash[:])
			require.NoError(t, err)
			c := newSpendCase(pkScript)
			c.input().Witness = wire.TxWitness{witnessScript}
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrEvalFalse,
	}, {
		name: "p2wsh oversized witness item",
		build: func(t *testing.T) *spendCase {
			c := p2wshSpend(t)
			c.input().Witness = wire.TxWitness{
				make([]byte, MaxScriptElementSize+1),
				c.input().Witness[1],
			}
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrElementTooBig,
	}, {
		name: "p2sh-p2wpkh non canonical signature script",
		build: func(t *testing.T) *spendCase {
			c, redeemScript := nestedP2WPKHSpend(t)
			c.input().SignatureScript = mustScript(t)(
				NewScriptBuilder().AddOp(OP_1).
					AddData(redeemScript).Script())
			return c
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessMalleatedP2SH,
	}, {
		name: "v0 program of unknown length",
		build: func(t *testing.T) *spendCase {
			pkScript := append([]byte{OP_0, OP_DATA_25},
				bytes.Repeat([]byte{0x01}, 25)...)
			return newSpendCase(pkScript)
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrWitnessProgramWrongLength,
	}, {
		name: "upgradable witness program discouraged",
		build: func(t *testing.T) *spendCase {
			pkScript := append([]byte{OP_1, OP_DATA_32},
				bytes.Repeat([]byte{0x01}, 32)...)
			return newSpendCase(pkScript)
		},
		flags:   StandardVerifyFlags,
		wantErr: ErrDiscourageUpgradableWitnessProgram,
	}, {
		name: "clean stack without p2sh",
		build: func(t *testing.T) *spendCase {
			return p2pkhSpend(t)
		},
		flags:   ScriptVerifyCleanStack,
		wantErr: ErrInvalidFlags,
	}, {
		name: "witness without p2sh",
		build: func(t *testing.T) *spendCase {
			return p2wpkhSpend(t)
		},
		flags:   ScriptVerifyWitness,
		wantErr: ErrInvalidFlags,
	}}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := test.build(t).verify(test.flags)
			require.Error(t, err)
			require.True(t, IsErrorCode(err, test.wantErr),
				"want %v, got %v", test.wantErr, err)
		})
	}
}

// TestVerifyScriptSoftForks ensures spends that only fail under rules added
// by later flags pass when those flags are not set.
func TestVerifyScriptSoftForks(t *testing.T) {
	t.Parallel()

	// A redeem script that would fail is never run without P2SH.
	redeemScript := []byte{OP_FALSE}
	pkScript, err := PayToScriptHashScript(btcutil.Hash160(redeemScript))
	require.NoError(t, err)
	c := newSpendCase(pkScript)
	c.input().SignatureScript = mustScript(t)(
		NewScriptBuilder().AddData(redeemScript).Script())
	require.NoError(t, c.verify(ScriptVerifyNone))

	// Unknown witness versions are anyone can spend.
	pkScript = append([]byte{OP_1, OP_DATA_32},
		bytes.Repeat([]byte{0x01}, 32)...)
	require.NoError(t, newSpendCase(pkScript).verify(ScriptBip16|
		ScriptVerifyWitness))

	// Witness programs are plain pushes without the witness flag, and a
	// witness is ignored.
	c = p2wpkhSpend(t)
	c.input().Witness = nil
	require.NoError(t, c.verify(ScriptBip16))
}

// TestNewEngineErrors ensures NewEngine rejects bad input indices and flag
// combinations.
func TestNewEngineErrors(t *testing.T) {
	t.Parallel()

	c := p2pkhSpend(t)
	for _, idx := range []int{-1, 1} {
		_, err := NewEngine(c.pkScript, c.tx, idx, StandardVerifyFlags,
			nil, nil, spendAmount)
		require.True(t, IsErrorCode(err, ErrInvalidIndex),
			"index %d: %v", idx, err)
	}

	_, err := NewEngine(c.pkScript, c.tx, 0, ScriptVerifyCleanStack, nil,
		nil, spendAmount)
	require.True(t, IsErrorCode(err, ErrInvalidFlags))
}

// TestEngineAmountCommitment ensures witness spends fail when verified
// against a different amount than the one signed.
func TestEngineAmountCommitment(t *testing.T) {
	t.Parallel()

	c := p2wpkhSpend(t)
	vm, err := NewEngine(c.pkScript, c.tx, 0, StandardVerifyFlags, nil, nil,
		spendAmount+1)
	require.NoError(t, err)
	require.True(t, IsErrorCode(vm.Execute(), ErrNullFail))

	vm, err = NewEngine(c.pkScript, c.tx, 0, ScriptBip16|
		ScriptVerifyWitness, nil, nil, spendAmount+1)
	require.NoError(t, err)
	require.True(t, IsErrorCode(vm.Execute(), ErrEvalFalse))
}
