// Copyright (c) 2019 The Decred developers
// Copyright (c) 2019-2020 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// opcodeArrayRef is used to break initialization cycles.
var opcodeArrayRef *[256]opcode

func init() {
	opcodeArrayRef = &opcodeArray
}

// ScriptTokenizer provides a facility for easily and efficiently tokenizing
// transaction scripts without creating allocations.  Each successive opcode is
// parsed with the Next function, which returns false when iteration is
// complete, either due to successfully tokenizing the entire script or
// encountering a parse error.  In the case of failure, the Err function may be
// used to obtain the specific parse error.
//
// Upon successfully parsing an opcode, the opcode and data associated with it
// may be obtained via the Opcode and Data functions, respectively.
//
// A tokenizer is a plain value, so copying it yields an independent cursor
// that can be restarted from the copied position.
type ScriptTokenizer struct {
	script []byte
	start  int
	offset int
	op     *opcode
	data   []byte
	err    error
}

// Done returns true when either all opcodes have been exhausted or a parse
// failure was encountered and therefore the state has an associated error.
func (t *ScriptTokenizer) Done() bool {
	return t.err != nil || t.offset >= len(t.script)
}

// Next attempts to parse the next opcode and returns whether or not it was
// successful.  It will not be successful if invoked when already at the end of
// the script, a parse failure is encountered, or an associated error already
// exists due to a previous parse failure.
//
// In the case of a true return, the parsed opcode and data can be obtained with
// the associated functions and the offset into the script will either point to
// the next opcode or the end of the script if the final opcode was parsed.
//
// In the case of a false return, the parsed opcode and data will be the last
// successfully parsed values (if any) and the offset into the script will
// point to the failing opcode.
func (t *ScriptTokenizer) Next() bool {
	if t.Done() {
		return false
	}

	op := &opcodeArrayRef[t.script[t.offset]]
	switch {
	// No additional data.  Note that some of the opcodes, notably
	// OP_1NEGATE, OP_0, and OP_[1-16] represent the data themselves.
	case op.length == 1:
		t.start = t.offset
		t.offset++
		t.op = op
		t.data = nil
		return true

	// Data pushes of specific lengths -- OP_DATA_[1-75].
	case op.length > 1:
		script := t.script[t.offset:]
		if len(script) < op.length {
			str := fmt.Sprintf("opcode %s requires %d bytes, but "+
				"script only has %d remaining", op.name,
				op.length, len(script))
			t.err = scriptError(ErrMalformedPush, str)
			return false
		}

		t.start = t.offset
		t.offset += op.length
		t.op = op
		t.data = script[1:op.length]
		return true

	// Data pushes with parsed lengths -- OP_PUSHDATA{1,2,4}.
	case op.length < 0:
		script := t.script[t.offset+1:]
		if len(script) < -op.length {
			str := fmt.Sprintf("opcode %s requires %d bytes, but "+
				"script only has %d remaining", op.name,
				-op.length, len(script))
			t.err = scriptError(ErrMalformedPush, str)
			return false
		}

		// Next -length bytes are little endian length of data.
		var dataLen int
		switch op.length {
		case -1:
			dataLen = int(script[0])
		case -2:
			dataLen = int(binary.LittleEndian.Uint16(script[:2]))
		case -4:
			dataLen = int(binary.LittleEndian.Uint32(script[:4]))
		}

		// Move to the beginning of the data.
		script = script[-op.length:]
		if dataLen > len(script) {
			str := fmt.Sprintf("opcode %s pushes %d bytes, but "+
				"script only has %d remaining", op.name,
				dataLen, len(script))
			t.err = scriptError(ErrMalformedPush, str)
			return false
		}

		t.start = t.offset
		t.offset += 1 + -op.length + dataLen
		t.op = op
		t.data = script[:dataLen]
		return true
	}

	// The only remaining case is an opcode with length zero which is
	// impossible.
	panic("unreachable")
}

// Script returns the full script associated with the tokenizer.
func (t *ScriptTokenizer) Script() []byte {
	return t.script
}

// ByteIndex returns the current offset into the full script that will be
// parsed next and therefore also implies everything before it has already
// been parsed.
func (t *ScriptTokenizer) ByteIndex() int {
	return t.offset
}

// OpcodeIndex returns the offset of the most recently parsed opcode.
func (t *ScriptTokenizer) OpcodeIndex() int {
	return t.start
}

// Opcode returns the current opcode associated with the tokenizer.
func (t *ScriptTokenizer) Opcode() byte {
	return t.op.value
}

// Data returns the data associated with the most recently successfully
// parsed opcode.
func (t *ScriptTokenizer) Data() []byte {
	return t.data
}

// Err returns any errors currently associated with the tokenizer.  This will
// only be non-nil in the case a parsing error was encountered.
func (t *ScriptTokenizer) Err() error {
	return t.err
}

// MakeScriptTokenizer returns a new instance of a script tokenizer.
//
// See the docs for ScriptTokenizer for more details.
func MakeScriptTokenizer(script []byte) ScriptTokenizer {
	return ScriptTokenizer{script: script}
}

// Op is a single decoded script operation.  Valid is false for a push that
// declares more data than the script holds; such an op is always the last
// one produced for a script.
type Op struct {
	Opcode byte
	Data   []byte
	Valid  bool
}

// IsPush returns whether the op is one of the data push opcodes OP_0
// through OP_PUSHDATA4.
func (o Op) IsPush() bool {
	return o.Opcode <= OP_PUSHDATA4
}

// DecodeScript decodes the full script into its operations.  It never fails:
// a malformed trailing push is reported as an op with Valid set to false.
func DecodeScript(script []byte) []Op {
	var ops []Op
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		ops = append(ops, Op{
			Opcode: tokenizer.Opcode(),
			Data:   tokenizer.Data(),
			Valid:  true,
		})
	}
	if tokenizer.Err() != nil {
		ops = append(ops, Op{
			Opcode: script[tokenizer.ByteIndex()],
			Data:   script[tokenizer.ByteIndex()+1:],
		})
	}
	return ops
}

// EncodeOps encodes the operations back into a script.  Pushes are written
// with the most compact encoding for their data, so the result matches the
// original script whenever that script was canonically encoded.  Invalid
// operations are written back verbatim.
func EncodeOps(ops []Op) []byte {
	builder := NewScriptBuilder()
	for _, op := range ops {
		switch {
		case !op.Valid:
			builder.script = append(builder.script, op.Opcode)
			builder.script = append(builder.script, op.Data...)
		case op.IsPush():
			builder.AddFullData(op.Data)
		default:
			builder.AddOp(op.Opcode)
		}
	}
	return builder.script
}
