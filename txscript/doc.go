// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txscript implements the bitcoin transaction script language.

This package provides data structures and functions to parse, build and
execute bitcoin transaction scripts and to verify that a transaction input is
authorized to spend the output it references.

# Script Overview

Bitcoin transaction scripts are written in a stack-base, FORTH-like language.

The bitcoin script language consists of a number of opcodes which fall into
several categories such pushing and popping data to and from the stack,
performing basic and bitwise arithmetic, conditional branching, comparing
hashes, and checking cryptographic signatures.  Scripts are processed from left
to right and intentionally do not provide loops.

The vast majority of Bitcoin scripts at the time of this writing are of several
standard forms which consist of a spender providing a public key and a
signature which proves the spender owns the associated private key.  This
information is used to prove the the spender is authorized to perform the
transaction.

# Verification

VerifyScript runs a signature script, the public key script it spends and,
where the public key script asks for it, the redeem script or witness script.
Which rules apply is selected with ScriptFlags; StandardVerifyFlags holds the
rules used for relay and MandatoryVerifyFlags the ones every block must obey.
Signatures and lock times are checked through the SignatureChecker interface,
which TransactionChecker implements for an input of a wire.MsgTx.  Engine
bundles all of this for the common case of verifying a transaction input.

# Errors

Errors returned by this package are of type txscript.Error.  This allows the
caller to programmatically determine the specific error by examining the
ErrorCode field of the type asserted txscript.Error while still providing rich
error messages with contextual information.  A convenience function named
IsErrorCode is also provided to allow callers to easily check for a specific
error code.  See ErrorCode in the package documentation for a full list.
*/
package txscript
