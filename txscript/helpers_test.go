// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

var (
	// shortFormOps holds a map of opcode names to values for use in short
	// form parsing.  It is initialized once on first use.
	shortFormOps     map[string]byte
	shortFormOpsOnce sync.Once
)

// parseHex parses a hex string token into raw bytes.
func parseHex(tok string) ([]byte, error) {
	if !strings.HasPrefix(tok, "0x") {
		return nil, errors.New("not a hex number")
	}
	return hex.DecodeString(tok[2:])
}

// parseShortForm parses a string as used in the script tests into the
// script it describes.
//
// The format used for these tests is pretty simple if ad-hoc:
//   - Opcodes other than the push opcodes and unknown are present as
//     either OP_NAME or just NAME
//   - Plain numbers are made into push operations
//   - Numbers beginning with 0x are inserted into the []byte as-is (so
//     0x14 is OP_DATA_20)
//   - Single quoted strings are pushed as data
//   - Anything else is an error
func parseShortForm(script string) ([]byte, error) {
	shortFormOpsOnce.Do(func() {
		ops := make(map[string]byte)
		for opcodeName, opcodeValue := range OpcodeByName {
			if strings.Contains(opcodeName, "OP_UNKNOWN") {
				continue
			}
			ops[opcodeName] = opcodeValue

			// The opcodes named OP_# can't have the OP_ prefix
			// stripped or they would conflict with the plain
			// numbers.  Also, since OP_FALSE and OP_TRUE are
			// aliases for the OP_0, and OP_1, respectively, they
			// have the same value, so detect those by name and
			// allow them.
			if (opcodeName == "OP_FALSE" || opcodeName == "OP_TRUE") ||
				(opcodeValue != OP_0 && (opcodeValue < OP_1 ||
					opcodeValue > OP_16)) {

				ops[strings.TrimPrefix(opcodeName, "OP_")] = opcodeValue
			}
		}
		shortFormOps = ops
	})

	script = strings.NewReplacer("\n", " ", "\t", " ").Replace(script)
	builder := NewScriptBuilder()
	for _, tok := range strings.Split(script, " ") {
		if len(tok) == 0 {
			continue
		}
		if num, err := strconv.ParseInt(tok, 10, 64); err == nil {
			builder.AddInt64(num)
		} else if bts, err := parseHex(tok); err == nil {
			// Concatenate the bytes manually since the test code
			// intentionally creates scripts that are too large and
			// would cause the builder to error otherwise.
			if builder.err == nil {
				builder.script = append(builder.script, bts...)
			}
		} else if len(tok) >= 2 &&
			tok[0] == '\'' && tok[len(tok)-1] == '\'' {
			builder.AddFullData([]byte(tok[1 : len(tok)-1]))
		} else if opcode, ok := shortFormOps[tok]; ok {
			builder.AddOp(opcode)
		} else {
			return nil, fmt.Errorf("bad token %q", tok)
		}
	}
	return builder.Script()
}

// mustParseShortForm parses the passed short form script and fails the test
// if it does not parse.
func mustParseShortForm(t testing.TB, script string) []byte {
	t.Helper()

	s, err := parseShortForm(script)
	require.NoError(t, err, "unable to parse short form %q", script)
	return s
}

// hexToBytes converts the passed hex string into bytes and will panic if there
// is an error.  This is only provided for the hard-coded constants so errors in
// the source code can be detected.  It will only (and must only) be called with
// hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

// createSpendingTx returns a transaction spending the single output of a
// crediting transaction that pays amount to pkScript.  The spending
// transaction has a single empty output of the same amount.
func createSpendingTx(sigScript, pkScript []byte, witness wire.TxWitness,
	amount int64) *wire.MsgTx {

	coinbaseTx := wire.NewMsgTx(1)
	outPoint := wire.NewOutPoint(&chainhash.Hash{}, ^uint32(0))
	txIn := wire.NewTxIn(outPoint, []byte{OP_0, OP_0}, nil)
	coinbaseTx.AddTxIn(txIn)
	coinbaseTx.AddTxOut(wire.NewTxOut(amount, pkScript))

	spendingTx := wire.NewMsgTx(1)
	coinbaseTxHash := coinbaseTx.TxHash()
	outPoint = wire.NewOutPoint(&coinbaseTxHash, 0)
	txIn = wire.NewTxIn(outPoint, sigScript, witness)
	spendingTx.AddTxIn(txIn)
	spendingTx.AddTxOut(wire.NewTxOut(amount, nil))

	return spendingTx
}

// newTestKey returns a fresh private key and its compressed serialized public
// key.
func newTestKey(t testing.TB) (*btcec.PrivateKey, []byte) {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key, key.PubKey().SerializeCompressed()
}

// mustScript returns a function that passes a built script through,
// failing the test when building it returned an error.
func mustScript(t testing.TB) func([]byte, error) []byte {
	t.Helper()

	return func(script []byte, err error) []byte {
		t.Helper()

		require.NoError(t, err)
		return script
	}
}

// recordingChecker is a SignatureChecker whose results are fixed and which
// remembers every signature check.
type recordingChecker struct {
	sigResult      bool
	lockTimeResult bool
	sequenceResult bool

	scriptCodes [][]byte
	sigVersions []SigVersion
}

func (c *recordingChecker) CheckSig(sig, pubKey, scriptCode []byte,
	sigVersion SigVersion) bool {

	c.scriptCodes = append(c.scriptCodes, scriptCode)
	c.sigVersions = append(c.sigVersions, sigVersion)
	return c.sigResult && len(sig) > 0
}

func (c *recordingChecker) CheckLockTime(int64) bool { return c.lockTimeResult }
func (c *recordingChecker) CheckSequence(int64) bool { return c.sequenceResult }
