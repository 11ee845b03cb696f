// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// minSigLen is the minimum length of a DER encoded signature, including
	// the trailing hash type byte.
	//
	// 0x30 + <1-byte> + 0x02 + 0x01 + <byte> + 0x2 + 0x01 + <byte> + <hashtype>
	minSigLen = 9

	// maxSigLen is the maximum length of a DER encoded signature, including
	// the trailing hash type byte.
	//
	// 0x30 + <1-byte> + 0x02 + 0x21 + <33 bytes> + 0x2 + 0x21 + <33 bytes>
	// + <hashtype>
	maxSigLen = 73

	// asn1SequenceID is the ASN.1 identifier for a sequence and is used when
	// parsing and validating DER signatures.
	asn1SequenceID = 0x30

	// asn1IntegerID is the ASN.1 identifier for an integer and is used when
	// parsing and validating DER signatures.
	asn1IntegerID = 0x02

	// sequenceOffset is the byte offset within the signature of the
	// expected ASN.1 sequence identifier.
	sequenceOffset = 0

	// dataLenOffset is the byte offset within the signature of the
	// expected total length of all remaining data in the signature.
	dataLenOffset = 1

	// rTypeOffset is the byte offset within the signature of the ASN.1
	// identifier for R and is expected to indicate an ASN.1 integer.
	rTypeOffset = 2

	// rLenOffset is the byte offset within the signature of the length of
	// R.
	rLenOffset = 3

	// rOffset is the byte offset within the signature of R.
	rOffset = 4

	// compressedPubKeyLen is the length in bytes of a compressed public
	// key.
	compressedPubKeyLen = 33

	// uncompressedPubKeyLen is the length in bytes of an uncompressed
	// public key.
	uncompressedPubKeyLen = 65

	// pubKeyCompressed and friends are the format bytes that prefix
	// serialized public keys.
	pubKeyCompressedEven = 0x02
	pubKeyCompressedOdd  = 0x03
	pubKeyUncompressed   = 0x04
)

// IsValidSignatureEncoding returns whether sig, including its trailing hash
// type byte, is a strict DER encoded signature as required by BIP0066.
//
// The format of a DER encoded signature is as follows:
//
//	0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S> <hashtype>
//	  - 0x30 is the ASN.1 identifier for a sequence
//	  - Total length is 1 byte and specifies length of all remaining data
//	    excluding the hash type byte
//	  - 0x02 is the ASN.1 identifier that specifies an integer follows
//	  - Length of R is 1 byte and specifies how many bytes R occupies
//	  - R is the arbitrary length big-endian encoded number which
//	    represents the R value of the signature.  DER encoding dictates
//	    that the value must be encoded using the minimum possible number
//	    of bytes.  This implies the first byte can only be null if the
//	    highest bit of the next byte is set in order to prevent it from
//	    being interpreted as a negative number.
//	  - 0x02 is once again the ASN.1 integer identifier
//	  - Length of S is 1 byte and specifies how many bytes S occupies
//	  - S is the arbitrary length big-endian encoded number which
//	    represents the S value of the signature.  The encoding rules are
//	    identical as those for R.
func IsValidSignatureEncoding(sig []byte) bool {
	sigLen := len(sig)
	if sigLen < minSigLen || sigLen > maxSigLen {
		return false
	}

	// The signature must start with the ASN.1 sequence identifier and
	// the length byte must cover everything but the identifier, the length
	// itself and the hash type.
	if sig[sequenceOffset] != asn1SequenceID {
		return false
	}
	if int(sig[dataLenOffset]) != sigLen-3 {
		return false
	}

	// Make sure the length of S is inside the signature and that the
	// lengths of R and S account for exactly the whole signature.
	rLen := int(sig[rLenOffset])
	sTypeOffset := rOffset + rLen
	sLenOffset := sTypeOffset + 1
	if sLenOffset >= sigLen {
		return false
	}
	sLen := int(sig[sLenOffset])
	if rLen+sLen+7 != sigLen {
		return false
	}

	// R must be a non-empty ASN.1 integer that is neither negative nor
	// padded with an unnecessary leading zero.
	if sig[rTypeOffset] != asn1IntegerID {
		return false
	}
	if rLen == 0 {
		return false
	}
	if sig[rOffset]&0x80 != 0 {
		return false
	}
	if rLen > 1 && sig[rOffset] == 0x00 && sig[rOffset+1]&0x80 == 0 {
		return false
	}

	// The same rules apply to S.
	sOffset := sLenOffset + 1
	if sig[sTypeOffset] != asn1IntegerID {
		return false
	}
	if sLen == 0 {
		return false
	}
	if sig[sOffset]&0x80 != 0 {
		return false
	}
	if sLen > 1 && sig[sOffset] == 0x00 && sig[sOffset+1]&0x80 == 0 {
		return false
	}

	return true
}

// IsLowDERSignature returns whether sig is a strict DER signature whose S
// value is at most half the order of the secp256k1 group.  Every signature
// has a high and a low S form that both verify, so only accepting the low form
// removes a source of malleability.
func IsLowDERSignature(sig []byte) bool {
	if !IsValidSignatureEncoding(sig) {
		return false
	}

	rLen := int(sig[rLenOffset])
	sLenOffset := rOffset + rLen + 1
	sLen := int(sig[sLenOffset])
	sBytes := sig[sLenOffset+1 : sLenOffset+1+sLen]

	// Strip the sign padding.  Values that do not fit in 32 bytes or are
	// not below the group order do not parse as signatures at all and
	// therefore cannot be high.
	for len(sBytes) > 0 && sBytes[0] == 0x00 {
		sBytes = sBytes[1:]
	}
	if len(sBytes) > 32 {
		return true
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sBytes); overflow {
		return true
	}
	return !s.IsOverHalfOrder()
}

// IsDefinedHashType returns whether the hash type byte at the end of sig,
// ignoring the anyone-can-pay bit, is one of SigHashAll, SigHashNone or
// SigHashSingle.
func IsDefinedHashType(sig []byte) bool {
	if len(sig) == 0 {
		return false
	}
	hashType := SigHashType(sig[len(sig)-1]) & ^SigHashAnyOneCanPay
	return hashType >= SigHashAll && hashType <= SigHashSingle
}

// IsCompressedOrUncompressedPubKey returns whether pubKey has the shape of a
// serialized secp256k1 public key: 33 bytes starting with 0x02 or 0x03, or 65
// bytes starting with 0x04.  The point itself is not checked.
func IsCompressedOrUncompressedPubKey(pubKey []byte) bool {
	if len(pubKey) < compressedPubKeyLen {
		return false
	}
	switch pubKey[0] {
	case pubKeyUncompressed:
		return len(pubKey) == uncompressedPubKeyLen
	case pubKeyCompressedEven, pubKeyCompressedOdd:
		return len(pubKey) == compressedPubKeyLen
	}
	return false
}

// IsCompressedPubKey returns whether pubKey has the shape of a compressed
// secp256k1 public key.
func IsCompressedPubKey(pubKey []byte) bool {
	return len(pubKey) == compressedPubKeyLen &&
		(pubKey[0] == pubKeyCompressedEven ||
			pubKey[0] == pubKeyCompressedOdd)
}

// checkSignatureEncoding returns an error if the signature is not in the
// encoding required by the flags.  Empty signatures are always allowed so a
// check can be made to fail on purpose.
func checkSignatureEncoding(sig []byte, flags ScriptFlags) error {
	if len(sig) == 0 {
		return nil
	}

	strictFlags := ScriptVerifyDERSignatures | ScriptVerifyLowS |
		ScriptVerifyStrictEncoding
	switch {
	case flags&strictFlags != 0 && !IsValidSignatureEncoding(sig):
		str := fmt.Sprintf("signature %x is not a canonically encoded "+
			"DER signature", sig)
		return scriptError(ErrSigDER, str)

	case flags&ScriptVerifyLowS != 0 && !IsLowDERSignature(sig):
		str := "signature is not canonical due to unnecessarily " +
			"high S value"
		return scriptError(ErrSigHighS, str)

	case flags&ScriptVerifyStrictEncoding != 0 && !IsDefinedHashType(sig):
		str := fmt.Sprintf("invalid hash type 0x%x", sig[len(sig)-1])
		return scriptError(ErrSigHashType, str)
	}

	return nil
}

// checkPubKeyEncoding returns an error if the passed public key is not in the
// encoding required by the flags for the signature version.
func checkPubKeyEncoding(pubKey []byte, flags ScriptFlags, sigVersion SigVersion) error {
	if flags&ScriptVerifyStrictEncoding != 0 &&
		!IsCompressedOrUncompressedPubKey(pubKey) {

		str := "unsupported public key type"
		return scriptError(ErrPubKeyType, str)
	}

	if flags&ScriptVerifyWitnessPubKeyType != 0 &&
		sigVersion == SigVersionWitnessV0 && !IsCompressedPubKey(pubKey) {

		str := "only compressed keys are accepted post-segwit"
		return scriptError(ErrWitnessPubKeyType, str)
	}

	return nil
}
