// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcscript/internal/log"
	"github.com/btcsuite/btcscript/txscript"
	"github.com/davecgh/go-spew/spew"
)

var schkLog = log.SchkLog

// decodeTx decodes a raw transaction, with or without witness data, from hex.
func decodeTx(txHex string) (*wire.MsgTx, error) {
	serialized, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hex: %w", err)
	}
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(serialized)); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return &tx, nil
}

// encodeTx returns the hex serialization of tx including its witnesses.
func encodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// printDisasm writes the disassembly of the scripts taking part in the
// spend.  Witness items are printed as hex, except for the last one of a
// pay-to-witness-script-hash spend, which is the witness script.
func printDisasm(w io.Writer, txIn *wire.TxIn, pkScript []byte) {
	disasm := func(script []byte) string {
		dis, err := txscript.DisasmString(script)
		if err != nil {
			return fmt.Sprintf("%s (%v)", dis, err)
		}
		return dis
	}

	class := txscript.GetScriptClass(pkScript)
	fmt.Fprintf(w, "pkscript (%v): %s\n", class, disasm(pkScript))
	fmt.Fprintf(w, "sigscript: %s\n", disasm(txIn.SignatureScript))

	if class == txscript.ScriptHashTy && txscript.IsPushOnlyScript(
		txIn.SignatureScript) {

		ops := txscript.DecodeScript(txIn.SignatureScript)
		if len(ops) > 0 {
			fmt.Fprintf(w, "redeem script: %s\n",
				disasm(ops[len(ops)-1].Data))
		}
	}

	for i, item := range txIn.Witness {
		if i == len(txIn.Witness)-1 &&
			class == txscript.WitnessV0ScriptHashTy {

			fmt.Fprintf(w, "witness script: %s\n", disasm(item))
			continue
		}
		fmt.Fprintf(w, "witness[%d]: %x\n", i, item)
	}
}

// combineInput merges the signatures of the checked input of other into tx.
func combineInput(cfg *config, tx, other *wire.MsgTx, pkScript []byte) error {
	if cfg.Input >= len(other.TxIn) {
		return fmt.Errorf("input %d out of range for transaction to "+
			"combine with %d inputs", cfg.Input, len(other.TxIn))
	}

	txIn := tx.TxIn[cfg.Input]
	otherIn := other.TxIn[cfg.Input]
	if txIn.PreviousOutPoint != otherIn.PreviousOutPoint {
		return fmt.Errorf("input %d spends %v in one transaction and "+
			"%v in the other", cfg.Input, txIn.PreviousOutPoint,
			otherIn.PreviousOutPoint)
	}

	checker := txscript.NewTransactionChecker(tx, cfg.Input,
		int64(cfg.amount))
	combined, err := txscript.CombineSignatures(pkScript, checker,
		txscript.SpendData{
			SigScript: txIn.SignatureScript,
			Witness:   txIn.Witness,
		},
		txscript.SpendData{
			SigScript: otherIn.SignatureScript,
			Witness:   otherIn.Witness,
		})
	if err != nil {
		return fmt.Errorf("failed to combine signatures: %w", err)
	}

	schkLog.Debugf("Combined input %d: %v", cfg.Input,
		spew.Sdump(combined))
	txIn.SignatureScript = combined.SigScript
	txIn.Witness = combined.Witness
	return nil
}

// run checks the configured input, combining signatures first when asked to,
// and reports the outcome to w.  The returned error is nil only when the input
// verified.
func run(cfg *config, w io.Writer) error {
	tx, err := decodeTx(cfg.Tx)
	if err != nil {
		return err
	}
	if cfg.Input >= len(tx.TxIn) {
		return fmt.Errorf("input %d out of range for transaction with "+
			"%d inputs", cfg.Input, len(tx.TxIn))
	}
	pkScript, err := hex.DecodeString(cfg.PkScript)
	if err != nil {
		return fmt.Errorf("invalid pkscript hex: %w", err)
	}

	if cfg.Combine != "" {
		other, err := decodeTx(cfg.Combine)
		if err != nil {
			return err
		}
		if err := combineInput(cfg, tx, other, pkScript); err != nil {
			return err
		}
		txHex, err := encodeTx(tx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "combined: %s\n", txHex)
	}

	txIn := tx.TxIn[cfg.Input]
	if cfg.Disasm {
		printDisasm(w, txIn, pkScript)
	}

	var opts []txscript.CheckerOption
	if cfg.SigLog {
		opts = append(opts, txscript.WithSigCheckLog())
	}
	checker := txscript.NewTransactionChecker(tx, cfg.Input,
		int64(cfg.amount), opts...)

	schkLog.Infof("Verifying input %d of %v spending %v with flags %v",
		cfg.Input, tx.TxHash(), cfg.amount, cfg.scriptFlags)
	err = txscript.VerifyScript(txIn.SignatureScript, pkScript,
		txIn.Witness, cfg.scriptFlags, checker)

	if cfg.SigLog {
		for _, check := range checker.SigChecks() {
			fmt.Fprint(w, spew.Sdump(check))
		}
	}

	if err != nil {
		code, _ := txscript.ExtractErrorCode(err)
		fmt.Fprintf(w, "FAIL %v: %v\n", code, err)
		return err
	}
	fmt.Fprintln(w, "OK")
	return nil
}

func scriptcheckMain() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	defer func() {
		// Script failures are already reported by run.
		if _, ok := txscript.ExtractErrorCode(err); err != nil && !ok {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	err = log.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	if err != nil {
		return err
	}
	defer log.LogRotator.Close()

	err = run(cfg, os.Stdout)
	return err
}

func main() {
	if err := scriptcheckMain(); err != nil {
		os.Exit(1)
	}
}
