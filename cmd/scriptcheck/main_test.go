// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcscript/txscript"
	"github.com/stretchr/testify/require"
)

const spentValue = 100000

// spendingTx returns an unsigned transaction with a single input.
func spendingTx() *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{0x01}, 0),
		nil, nil))
	tx.AddTxOut(wire.NewTxOut(spentValue-1000, []byte{txscript.OP_TRUE}))
	return tx
}

func mustEncodeTx(t *testing.T, tx *wire.MsgTx) string {
	t.Helper()

	txHex, err := encodeTx(tx)
	require.NoError(t, err)
	return txHex
}

// testConfig returns a config checking input 0 of tx against pkScript with
// the standard flags.
func testConfig(t *testing.T, tx *wire.MsgTx, pkScript []byte) *config {
	t.Helper()

	amount, err := btcutil.NewAmount(float64(spentValue) / btcutil.SatoshiPerBitcoin)
	require.NoError(t, err)
	return &config{
		Tx:          mustEncodeTx(t, tx),
		PkScript:    hex.EncodeToString(pkScript),
		scriptFlags: txscript.StandardVerifyFlags,
		amount:      amount,
	}
}

// TestRunWitnessKeyHash checks a pay-to-witness-pubkey-hash spend, valid
// and with a broken signature.
func TestRunWitnessKeyHash(t *testing.T) {
	t.Parallel()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubKey := key.PubKey().SerializeCompressed()
	keyHash := btcutil.Hash160(pubKey)
	pkScript, err := txscript.PayToWitnessPubKeyHashScript(keyHash)
	require.NoError(t, err)
	scriptCode, err := txscript.PayToPubKeyHashScript(keyHash)
	require.NoError(t, err)

	tx := spendingTx()
	sig, err := txscript.RawTxInWitnessSignature(tx, nil, 0, spentValue,
		scriptCode, txscript.SigHashAll, key)
	require.NoError(t, err)
	tx.TxIn[0].Witness = wire.TxWitness{sig, pubKey}

	cfg := testConfig(t, tx, pkScript)
	cfg.Disasm = true
	cfg.SigLog = true

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))
	require.Contains(t, out.String(), "OK")
	require.Contains(t, out.String(), "witness_v0_keyhash")
	require.Contains(t, out.String(), "Valid: (bool) true")

	// A wrong amount changes the signature hash.
	cfg.amount--
	out.Reset()
	err = run(cfg, &out)
	require.True(t, txscript.IsErrorCode(err, txscript.ErrNullFail), err)
	require.True(t, strings.HasPrefix(out.String(), "FAIL"))
}

// TestRunCombine merges two halves of a 2-of-2 pay-to-witness-script-hash
// spend.
func TestRunCombine(t *testing.T) {
	t.Parallel()

	key1, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	key2, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	witnessScript, err := txscript.MultiSigScript([][]byte{
		key1.PubKey().SerializeCompressed(),
		key2.PubKey().SerializeCompressed(),
	}, 2)
	require.NoError(t, err)
	scriptHash := sha256.Sum256(witnessScript)
	pkScript, err := txscript.PayToWitnessScriptHashScript(scriptHash[:])
	require.NoError(t, err)

	tx := spendingTx()
	halfSigned := func(key *btcec.PrivateKey) *wire.MsgTx {
		signed := tx.Copy()
		sig, err := txscript.RawTxInWitnessSignature(signed, nil, 0,
			spentValue, witnessScript, txscript.SigHashAll, key)
		require.NoError(t, err)
		signed.TxIn[0].Witness = wire.TxWitness{nil, sig, witnessScript}
		return signed
	}

	// Each half alone fails.
	cfg := testConfig(t, halfSigned(key1), pkScript)
	var out bytes.Buffer
	require.Error(t, run(cfg, &out))

	cfg.Combine = mustEncodeTx(t, halfSigned(key2))
	cfg.Disasm = true
	out.Reset()
	require.NoError(t, run(cfg, &out))
	require.Contains(t, out.String(), "combined: ")
	require.Contains(t, out.String(), "witness script: 2 ")
	require.True(t, strings.HasSuffix(out.String(), "OK\n"))

	// Inputs spending different outputs are not combined.
	other := halfSigned(key2)
	other.TxIn[0].PreviousOutPoint.Index = 1
	cfg.Combine = mustEncodeTx(t, other)
	require.Error(t, run(cfg, &out))
}

// TestRunBadInput ensures malformed input is rejected before verification.
func TestRunBadInput(t *testing.T) {
	t.Parallel()

	tx := spendingTx()
	tests := []struct {
		name   string
		mutate func(cfg *config)
	}{
		{"bad tx hex", func(cfg *config) { cfg.Tx = "zz" }},
		{"truncated tx", func(cfg *config) { cfg.Tx = cfg.Tx[:20] }},
		{"bad pkscript hex", func(cfg *config) { cfg.PkScript = "0" }},
		{"input out of range", func(cfg *config) { cfg.Input = 1 }},
		{"bad combine tx", func(cfg *config) { cfg.Combine = "00" }},
	}
	for _, test := range tests {
		cfg := testConfig(t, tx, []byte{txscript.OP_TRUE})
		test.mutate(cfg)
		var out bytes.Buffer
		err := run(cfg, &out)
		require.Error(t, err, test.name)
		_, isScriptErr := txscript.ExtractErrorCode(err)
		require.False(t, isScriptErr, test.name)
	}
}

// TestLoadConfig ensures command line options are decoded and validated.
func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig([]string{"--tx", "00", "--pkscript", "51",
		"--amount", "0.5", "--flags", "p2sh,witness", "-d", "SCRP=debug"})
	require.NoError(t, err)
	require.Equal(t, txscript.ScriptBip16|txscript.ScriptVerifyWitness,
		cfg.scriptFlags)
	require.Equal(t, btcutil.Amount(50000000), cfg.amount)

	cfg, err = loadConfig([]string{"--tx", "00"})
	require.NoError(t, err)
	require.Equal(t, txscript.StandardVerifyFlags, cfg.scriptFlags)

	bad := [][]string{
		{"--pkscript", "51"},
		{"--tx", "00", "--flags", "BOGUS"},
		{"--tx", "00", "--input=-1"},
		{"--tx", "00", "-d", "loud"},
		{"--tx", "00", "-d", "NOPE=debug"},
		{"--tx", "00", "-d", "SCRP"},
	}
	for _, args := range bad {
		_, err := loadConfig(args)
		require.Error(t, err, strings.Join(args, " "))
	}
}
