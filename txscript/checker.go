// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// LockTimeThreshold is the number below which a lock time is interpreted to
// be a block number.  Since an average of one block is generated per 10
// minutes, this allows blocks for about 9,512 years.
const LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

// SignatureChecker is the interface the interpreter uses to check signatures
// and lock times against the transaction being spent.
type SignatureChecker interface {
	// CheckSig returns whether sig, including its trailing hash type byte,
	// is a valid signature by pubKey over the signature hash of scriptCode
	// computed with the rules of sigVersion.
	CheckSig(sig, pubKey, scriptCode []byte, sigVersion SigVersion) bool

	// CheckLockTime returns whether the transaction satisfies an absolute
	// lock time requirement.
	CheckLockTime(lockTime int64) bool

	// CheckSequence returns whether the input satisfies a relative lock
	// time requirement.
	CheckSequence(sequence int64) bool
}

// nullChecker fails every check.  It is used wherever scripts are evaluated
// without a transaction, for example to take apart signature scripts.
type nullChecker struct{}

func (nullChecker) CheckSig([]byte, []byte, []byte, SigVersion) bool { return false }
func (nullChecker) CheckLockTime(int64) bool                         { return false }
func (nullChecker) CheckSequence(int64) bool                         { return false }

// VerifyFunc verifies a signature, without its hash type byte, by a
// serialized public key over a signature hash.
type VerifyFunc func(sig, pubKey []byte, sigHash chainhash.Hash) bool

// VerifyECDSA is the default VerifyFunc.  The signature is parsed with the
// same leniency as consensus, which accepts non-strict DER as well as high S
// values.  Strict encoding is enforced by the interpreter when the flags
// demand it.
func VerifyECDSA(sig, pubKey []byte, sigHash chainhash.Hash) bool {
	pk, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	signature, err := ecdsa.ParseSignature(sig)
	if err != nil {
		return false
	}
	return signature.Verify(sigHash[:], pk)
}

// SigCheck records a single signature check performed by a
// TransactionChecker.
type SigCheck struct {
	ScriptCode []byte
	SigVersion SigVersion
	SigHash    chainhash.Hash
	Signature  []byte
	PubKey     []byte
	Valid      bool
}

// CheckerOption configures a TransactionChecker.
type CheckerOption func(*TransactionChecker)

// WithSigCache makes the checker consult and fill the passed signature cache.
func WithSigCache(sigCache *SigCache) CheckerOption {
	return func(c *TransactionChecker) {
		c.sigCache = sigCache
	}
}

// WithTxSigHashes supplies precomputed BIP0143 sighash fragments for the
// transaction.
func WithTxSigHashes(sigHashes *TxSigHashes) CheckerOption {
	return func(c *TransactionChecker) {
		c.sigHashes = sigHashes
	}
}

// WithVerifier replaces the signature verification primitive.
func WithVerifier(verify VerifyFunc) CheckerOption {
	return func(c *TransactionChecker) {
		c.verify = verify
	}
}

// WithSigCheckLog makes the checker record every signature check, which can
// later be retrieved with SigChecks.
func WithSigCheckLog() CheckerOption {
	return func(c *TransactionChecker) {
		c.logChecks = true
	}
}

// TransactionChecker implements SignatureChecker for one input of a
// transaction.  The transaction is never modified.
type TransactionChecker struct {
	tx     *wire.MsgTx
	txIdx  int
	amount int64

	sigCache  *SigCache
	verify    VerifyFunc
	logChecks bool

	mtx       sync.Mutex
	sigHashes *TxSigHashes
	checks    []SigCheck
}

// Ensure TransactionChecker implements the SignatureChecker interface.
var _ SignatureChecker = (*TransactionChecker)(nil)

// NewTransactionChecker returns a checker for input txIdx of tx, which spends
// an output worth amount.
func NewTransactionChecker(tx *wire.MsgTx, txIdx int, amount int64,
	opts ...CheckerOption) *TransactionChecker {

	c := &TransactionChecker{
		tx:     tx,
		txIdx:  txIdx,
		amount: amount,
		verify: VerifyECDSA,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// witnessSigHashes returns the BIP0143 fragments, computing them on first
// use when none were supplied.
func (c *TransactionChecker) witnessSigHashes() *TxSigHashes {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.sigHashes == nil {
		c.sigHashes = NewTxSigHashes(c.tx)
	}
	return c.sigHashes
}

// sigHash computes the hash a signature of the passed hash type commits to.
func (c *TransactionChecker) sigHash(scriptCode []byte, hashType SigHashType,
	sigVersion SigVersion) (chainhash.Hash, error) {

	if sigVersion == SigVersionWitnessV0 {
		return CalcWitnessSigHash(scriptCode, c.witnessSigHashes(),
			hashType, c.tx, c.txIdx, c.amount)
	}
	return CalcSignatureHash(scriptCode, hashType, c.tx, c.txIdx), nil
}

// CheckSig returns whether sig is a valid signature by pubKey for the input.
// The last byte of sig is the hash type.  Empty signatures and public keys
// that do not parse always fail.
func (c *TransactionChecker) CheckSig(sig, pubKey, scriptCode []byte,
	sigVersion SigVersion) bool {

	if len(sig) == 0 {
		return false
	}
	if _, err := btcec.ParsePubKey(pubKey); err != nil {
		return false
	}

	hashType := SigHashType(sig[len(sig)-1])
	sigBytes := sig[:len(sig)-1]
	hash, err := c.sigHash(scriptCode, hashType, sigVersion)
	if err != nil {
		log.Debugf("Unable to compute signature hash: %v", err)
		return false
	}

	var valid bool
	if c.sigCache != nil && c.sigCache.Exists(hash, sigBytes, pubKey) {
		valid = true
	} else {
		valid = c.verify(sigBytes, pubKey, hash)
		if valid && c.sigCache != nil {
			c.sigCache.Add(hash, sigBytes, pubKey)
		}
	}

	log.Tracef("%v", newLogClosure(func() string {
		return fmt.Sprintf("%s signature check over %v by %x: valid=%t",
			sigVersion, hash, pubKey, valid)
	}))

	if c.logChecks {
		c.mtx.Lock()
		c.checks = append(c.checks, SigCheck{
			ScriptCode: append([]byte(nil), scriptCode...),
			SigVersion: sigVersion,
			SigHash:    hash,
			Signature:  append([]byte(nil), sig...),
			PubKey:     append([]byte(nil), pubKey...),
			Valid:      valid,
		})
		c.mtx.Unlock()
	}

	return valid
}

// SigChecks returns the signature checks recorded so far.  It is empty unless
// the checker was created WithSigCheckLog.
func (c *TransactionChecker) SigChecks() []SigCheck {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	checks := make([]SigCheck, len(c.checks))
	copy(checks, c.checks)
	return checks
}

// CheckLockTime returns whether the transaction lock time satisfies lockTime.
// Both must be of the same kind, block height or time, the transaction lock
// time must be at least lockTime, and the input must not be final, since a
// final input disables the transaction lock time.
func (c *TransactionChecker) CheckLockTime(lockTime int64) bool {
	if c.txIdx < 0 || c.txIdx >= len(c.tx.TxIn) {
		return false
	}

	txLockTime := int64(c.tx.LockTime)
	if !((txLockTime < LockTimeThreshold && lockTime < LockTimeThreshold) ||
		(txLockTime >= LockTimeThreshold && lockTime >= LockTimeThreshold)) {

		return false
	}
	if lockTime > txLockTime {
		return false
	}

	return c.tx.TxIn[c.txIdx].Sequence != wire.MaxTxInSequenceNum
}

// CheckSequence returns whether the input sequence satisfies the relative
// lock time sequence per BIP0112.
func (c *TransactionChecker) CheckSequence(sequence int64) bool {
	if c.txIdx < 0 || c.txIdx >= len(c.tx.TxIn) {
		return false
	}

	// Relative lock times are only enforced from version 2 on.  The
	// version is compared unsigned, so negative versions qualify.
	if uint32(c.tx.Version) < 2 {
		return false
	}

	txSequence := int64(c.tx.TxIn[c.txIdx].Sequence)
	if txSequence&int64(wire.SequenceLockTimeDisabled) != 0 {
		return false
	}

	// Only the type flag and the lock time value take part in the
	// comparison.
	const mask = int64(wire.SequenceLockTimeIsSeconds |
		wire.SequenceLockTimeMask)
	const typeFlag = int64(wire.SequenceLockTimeIsSeconds)
	txSequenceMasked := txSequence & mask
	sequenceMasked := sequence & mask

	if !((txSequenceMasked < typeFlag && sequenceMasked < typeFlag) ||
		(txSequenceMasked >= typeFlag && sequenceMasked >= typeFlag)) {

		return false
	}

	return sequenceMasked <= txSequenceMasked
}
