// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/crypto/ripemd160"
)

// An opcode defines the information related to a txscript opcode.  opfunc is
// the function to call to perform the opcode on the script and is handed the
// data carried by the opcode, if any.
type opcode struct {
	value  byte
	name   string
	length int
	opfunc func(*opcode, []byte, *interpreter) error
}

// These constants are the values of the official opcodes used on the btc wiki,
// in bitcoin core and in most if not all other references and software related
// to handling BTC scripts.
const (
	OP_0                   = 0x00 // 0
	OP_FALSE               = 0x00 // 0 - AKA OP_0
	OP_DATA_1              = 0x01 // 1
	OP_DATA_2              = 0x02 // 2
	OP_DATA_3              = 0x03 // 3
	OP_DATA_4              = 0x04 // 4
	OP_DATA_5              = 0x05 // 5
	OP_DATA_6              = 0x06 // 6
	OP_DATA_7              = 0x07 // 7
	OP_DATA_8              = 0x08 // 8
	OP_DATA_9              = 0x09 // 9
	OP_DATA_10             = 0x0a // 10
	OP_DATA_11             = 0x0b // 11
	OP_DATA_12             = 0x0c // 12
	OP_DATA_13             = 0x0d // 13
	OP_DATA_14             = 0x0e // 14
	OP_DATA_15             = 0x0f // 15
	OP_DATA_16             = 0x10 // 16
	OP_DATA_17             = 0x11 // 17
	OP_DATA_18             = 0x12 // 18
	OP_DATA_19             = 0x13 // 19
	OP_DATA_20             = 0x14 // 20
	OP_DATA_21             = 0x15 // 21
	OP_DATA_22             = 0x16 // 22
	OP_DATA_23             = 0x17 // 23
	OP_DATA_24             = 0x18 // 24
	OP_DATA_25             = 0x19 // 25
	OP_DATA_26             = 0x1a // 26
	OP_DATA_27             = 0x1b // 27
	OP_DATA_28             = 0x1c // 28
	OP_DATA_29             = 0x1d // 29
	OP_DATA_30             = 0x1e // 30
	OP_DATA_31             = 0x1f // 31
	OP_DATA_32             = 0x20 // 32
	OP_DATA_33             = 0x21 // 33
	OP_DATA_34             = 0x22 // 34
	OP_DATA_35             = 0x23 // 35
	OP_DATA_36             = 0x24 // 36
	OP_DATA_37             = 0x25 // 37
	OP_DATA_38             = 0x26 // 38
	OP_DATA_39             = 0x27 // 39
	OP_DATA_40             = 0x28 // 40
	OP_DATA_41             = 0x29 // 41
	OP_DATA_42             = 0x2a // 42
	OP_DATA_43             = 0x2b // 43
	OP_DATA_44             = 0x2c // 44
	OP_DATA_45             = 0x2d // 45
	OP_DATA_46             = 0x2e // 46
	OP_DATA_47             = 0x2f // 47
	OP_DATA_48             = 0x30 // 48
	OP_DATA_49             = 0x31 // 49
	OP_DATA_50             = 0x32 // 50
	OP_DATA_51             = 0x33 // 51
	OP_DATA_52             = 0x34 // 52
	OP_DATA_53             = 0x35 // 53
	OP_DATA_54             = 0x36 // 54
	OP_DATA_55             = 0x37 // 55
	OP_DATA_56             = 0x38 // 56
	OP_DATA_57             = 0x39 // 57
	OP_DATA_58             = 0x3a // 58
	OP_DATA_59             = 0x3b // 59
	OP_DATA_60             = 0x3c // 60
	OP_DATA_61             = 0x3d // 61
	OP_DATA_62             = 0x3e // 62
	OP_DATA_63             = 0x3f // 63
	OP_DATA_64             = 0x40 // 64
	OP_DATA_65             = 0x41 // 65
	OP_DATA_66             = 0x42 // 66
	OP_DATA_67             = 0x43 // 67
	OP_DATA_68             = 0x44 // 68
	OP_DATA_69             = 0x45 // 69
	OP_DATA_70             = 0x46 // 70
	OP_DATA_71             = 0x47 // 71
	OP_DATA_72             = 0x48 // 72
	OP_DATA_73             = 0x49 // 73
	OP_DATA_74             = 0x4a // 74
	OP_DATA_75             = 0x4b // 75
	OP_PUSHDATA1           = 0x4c // 76
	OP_PUSHDATA2           = 0x4d // 77
	OP_PUSHDATA4           = 0x4e // 78
	OP_1NEGATE             = 0x4f // 79
	OP_RESERVED            = 0x50 // 80
	OP_1                   = 0x51 // 81 - AKA OP_TRUE
	OP_TRUE                = 0x51 // 81
	OP_2                   = 0x52 // 82
	OP_3                   = 0x53 // 83
	OP_4                   = 0x54 // 84
	OP_5                   = 0x55 // 85
	OP_6                   = 0x56 // 86
	OP_7                   = 0x57 // 87
	OP_8                   = 0x58 // 88
	OP_9                   = 0x59 // 89
	OP_10                  = 0x5a // 90
	OP_11                  = 0x5b // 91
	OP_12                  = 0x5c // 92
	OP_13                  = 0x5d // 93
	OP_14                  = 0x5e // 94
	OP_15                  = 0x5f // 95
	OP_16                  = 0x60 // 96
	OP_NOP                 = 0x61 // 97
	OP_VER                 = 0x62 // 98
	OP_IF                  = 0x63 // 99
	OP_NOTIF               = 0x64 // 100
	OP_VERIF               = 0x65 // 101
	OP_VERNOTIF            = 0x66 // 102
	OP_ELSE                = 0x67 // 103
	OP_ENDIF               = 0x68 // 104
	OP_VERIFY              = 0x69 // 105
	OP_RETURN              = 0x6a // 106
	OP_TOALTSTACK          = 0x6b // 107
	OP_FROMALTSTACK        = 0x6c // 108
	OP_2DROP               = 0x6d // 109
	OP_2DUP                = 0x6e // 110
	OP_3DUP                = 0x6f // 111
	OP_2OVER               = 0x70 // 112
	OP_2ROT                = 0x71 // 113
	OP_2SWAP               = 0x72 // 114
	OP_IFDUP               = 0x73 // 115
	OP_DEPTH               = 0x74 // 116
	OP_DROP                = 0x75 // 117
	OP_DUP                 = 0x76 // 118
	OP_NIP                 = 0x77 // 119
	OP_OVER                = 0x78 // 120
	OP_PICK                = 0x79 // 121
	OP_ROLL                = 0x7a // 122
	OP_ROT                 = 0x7b // 123
	OP_SWAP                = 0x7c // 124
	OP_TUCK                = 0x7d // 125
	OP_CAT                 = 0x7e // 126
	OP_SUBSTR              = 0x7f // 127
	OP_LEFT                = 0x80 // 128
	OP_RIGHT               = 0x81 // 129
	OP_SIZE                = 0x82 // 130
	OP_INVERT              = 0x83 // 131
	OP_AND                 = 0x84 // 132
	OP_OR                  = 0x85 // 133
	OP_XOR                 = 0x86 // 134
	OP_EQUAL               = 0x87 // 135
	OP_EQUALVERIFY         = 0x88 // 136
	OP_RESERVED1           = 0x89 // 137
	OP_RESERVED2           = 0x8a // 138
	OP_1ADD                = 0x8b // 139
	OP_1SUB                = 0x8c // 140
	OP_2MUL                = 0x8d // 141
	OP_2DIV                = 0x8e // 142
	OP_NEGATE              = 0x8f // 143
	OP_ABS                 = 0x90 // 144
	OP_NOT                 = 0x91 // 145
	OP_0NOTEQUAL           = 0x92 // 146
	OP_ADD                 = 0x93 // 147
	OP_SUB                 = 0x94 // 148
	OP_MUL                 = 0x95 // 149
	OP_DIV                 = 0x96 // 150
	OP_MOD                 = 0x97 // 151
	OP_LSHIFT              = 0x98 // 152
	OP_RSHIFT              = 0x99 // 153
	OP_BOOLAND             = 0x9a // 154
	OP_BOOLOR              = 0x9b // 155
	OP_NUMEQUAL            = 0x9c // 156
	OP_NUMEQUALVERIFY      = 0x9d // 157
	OP_NUMNOTEQUAL         = 0x9e // 158
	OP_LESSTHAN            = 0x9f // 159
	OP_GREATERTHAN         = 0xa0 // 160
	OP_LESSTHANOREQUAL     = 0xa1 // 161
	OP_GREATERTHANOREQUAL  = 0xa2 // 162
	OP_MIN                 = 0xa3 // 163
	OP_MAX                 = 0xa4 // 164
	OP_WITHIN              = 0xa5 // 165
	OP_RIPEMD160           = 0xa6 // 166
	OP_SHA1                = 0xa7 // 167
	OP_SHA256              = 0xa8 // 168
	OP_HASH160             = 0xa9 // 169
	OP_HASH256             = 0xaa // 170
	OP_CODESEPARATOR       = 0xab // 171
	OP_CHECKSIG            = 0xac // 172
	OP_CHECKSIGVERIFY      = 0xad // 173
	OP_CHECKMULTISIG       = 0xae // 174
	OP_CHECKMULTISIGVERIFY = 0xaf // 175
	OP_NOP1                = 0xb0 // 176
	OP_NOP2                = 0xb1 // 177
	OP_CHECKLOCKTIMEVERIFY = 0xb1 // 177 - AKA OP_NOP2
	OP_NOP3                = 0xb2 // 178
	OP_CHECKSEQUENCEVERIFY = 0xb2 // 178 - AKA OP_NOP3
	OP_NOP4                = 0xb3 // 179
	OP_NOP5                = 0xb4 // 180
	OP_NOP6                = 0xb5 // 181
	OP_NOP7                = 0xb6 // 182
	OP_NOP8                = 0xb7 // 183
	OP_NOP9                = 0xb8 // 184
	OP_NOP10               = 0xb9 // 185
	OP_INVALIDOPCODE       = 0xff // 255
)

// opcodeArray holds details about all possible opcodes such as how many bytes
// the opcode and any associated data should take, its human-readable name, and
// the handler function.  It is populated by init since the handlers refer back
// to the interpreter.
var opcodeArray [256]opcode

// OpcodeByName is a map that can be used to lookup an opcode by its
// human-readable name (OP_CHECKMULTISIG, OP_CHECKSIG, etc).
var OpcodeByName = make(map[string]byte)

func init() {
	// Every value starts out as an unknown opcode.  The defined opcodes
	// below overwrite their slots.
	for i := range opcodeArray {
		opcodeArray[i] = opcode{
			value:  byte(i),
			name:   fmt.Sprintf("OP_UNKNOWN%d", i),
			length: 1,
			opfunc: opcodeInvalid,
		}
	}

	// Data pushes.
	opcodeArray[OP_0] = opcode{OP_0, "OP_0", 1, opcodeFalse}
	for i := OP_DATA_1; i <= OP_DATA_75; i++ {
		opcodeArray[i] = opcode{byte(i), fmt.Sprintf("OP_DATA_%d", i),
			i + 1, opcodePushData}
	}
	opcodeArray[OP_PUSHDATA1] = opcode{OP_PUSHDATA1, "OP_PUSHDATA1", -1, opcodePushData}
	opcodeArray[OP_PUSHDATA2] = opcode{OP_PUSHDATA2, "OP_PUSHDATA2", -2, opcodePushData}
	opcodeArray[OP_PUSHDATA4] = opcode{OP_PUSHDATA4, "OP_PUSHDATA4", -4, opcodePushData}

	// Small integers.
	opcodeArray[OP_1NEGATE] = opcode{OP_1NEGATE, "OP_1NEGATE", 1, opcode1Negate}
	for i := OP_1; i <= OP_16; i++ {
		opcodeArray[i] = opcode{byte(i), fmt.Sprintf("OP_%d", i-(OP_1-1)),
			1, opcodeN}
	}

	defined := []struct {
		value  byte
		name   string
		opfunc func(*opcode, []byte, *interpreter) error
	}{
		// Control opcodes.
		{OP_RESERVED, "OP_RESERVED", opcodeReserved},
		{OP_NOP, "OP_NOP", opcodeNop},
		{OP_VER, "OP_VER", opcodeReserved},
		{OP_IF, "OP_IF", opcodeIf},
		{OP_NOTIF, "OP_NOTIF", opcodeNotIf},
		{OP_VERIF, "OP_VERIF", opcodeReserved},
		{OP_VERNOTIF, "OP_VERNOTIF", opcodeReserved},
		{OP_ELSE, "OP_ELSE", opcodeElse},
		{OP_ENDIF, "OP_ENDIF", opcodeEndif},
		{OP_VERIFY, "OP_VERIFY", opcodeVerify},
		{OP_RETURN, "OP_RETURN", opcodeReturn},
		{OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY", opcodeCheckLockTimeVerify},
		{OP_CHECKSEQUENCEVERIFY, "OP_CHECKSEQUENCEVERIFY", opcodeCheckSequenceVerify},

		// Stack opcodes.
		{OP_TOALTSTACK, "OP_TOALTSTACK", opcodeToAltStack},
		{OP_FROMALTSTACK, "OP_FROMALTSTACK", opcodeFromAltStack},
		{OP_2DROP, "OP_2DROP", opcode2Drop},
		{OP_2DUP, "OP_2DUP", opcode2Dup},
		{OP_3DUP, "OP_3DUP", opcode3Dup},
		{OP_2OVER, "OP_2OVER", opcode2Over},
		{OP_2ROT, "OP_2ROT", opcode2Rot},
		{OP_2SWAP, "OP_2SWAP", opcode2Swap},
		{OP_IFDUP, "OP_IFDUP", opcodeIfDup},
		{OP_DEPTH, "OP_DEPTH", opcodeDepth},
		{OP_DROP, "OP_DROP", opcodeDrop},
		{OP_DUP, "OP_DUP", opcodeDup},
		{OP_NIP, "OP_NIP", opcodeNip},
		{OP_OVER, "OP_OVER", opcodeOver},
		{OP_PICK, "OP_PICK", opcodePick},
		{OP_ROLL, "OP_ROLL", opcodeRoll},
		{OP_ROT, "OP_ROT", opcodeRot},
		{OP_SWAP, "OP_SWAP", opcodeSwap},
		{OP_TUCK, "OP_TUCK", opcodeTuck},

		// Splice opcodes.
		{OP_CAT, "OP_CAT", opcodeDisabled},
		{OP_SUBSTR, "OP_SUBSTR", opcodeDisabled},
		{OP_LEFT, "OP_LEFT", opcodeDisabled},
		{OP_RIGHT, "OP_RIGHT", opcodeDisabled},
		{OP_SIZE, "OP_SIZE", opcodeSize},

		// Bitwise logic opcodes.
		{OP_INVERT, "OP_INVERT", opcodeDisabled},
		{OP_AND, "OP_AND", opcodeDisabled},
		{OP_OR, "OP_OR", opcodeDisabled},
		{OP_XOR, "OP_XOR", opcodeDisabled},
		{OP_EQUAL, "OP_EQUAL", opcodeEqual},
		{OP_EQUALVERIFY, "OP_EQUALVERIFY", opcodeEqualVerify},
		{OP_RESERVED1, "OP_RESERVED1", opcodeReserved},
		{OP_RESERVED2, "OP_RESERVED2", opcodeReserved},

		// Numeric related opcodes.
		{OP_1ADD, "OP_1ADD", opcodeUnaryNum},
		{OP_1SUB, "OP_1SUB", opcodeUnaryNum},
		{OP_2MUL, "OP_2MUL", opcodeDisabled},
		{OP_2DIV, "OP_2DIV", opcodeDisabled},
		{OP_NEGATE, "OP_NEGATE", opcodeUnaryNum},
		{OP_ABS, "OP_ABS", opcodeUnaryNum},
		{OP_NOT, "OP_NOT", opcodeUnaryNum},
		{OP_0NOTEQUAL, "OP_0NOTEQUAL", opcodeUnaryNum},
		{OP_ADD, "OP_ADD", opcodeBinaryNum},
		{OP_SUB, "OP_SUB", opcodeBinaryNum},
		{OP_MUL, "OP_MUL", opcodeDisabled},
		{OP_DIV, "OP_DIV", opcodeDisabled},
		{OP_MOD, "OP_MOD", opcodeDisabled},
		{OP_LSHIFT, "OP_LSHIFT", opcodeDisabled},
		{OP_RSHIFT, "OP_RSHIFT", opcodeDisabled},
		{OP_BOOLAND, "OP_BOOLAND", opcodeBinaryNum},
		{OP_BOOLOR, "OP_BOOLOR", opcodeBinaryNum},
		{OP_NUMEQUAL, "OP_NUMEQUAL", opcodeBinaryNum},
		{OP_NUMEQUALVERIFY, "OP_NUMEQUALVERIFY", opcodeBinaryNum},
		{OP_NUMNOTEQUAL, "OP_NUMNOTEQUAL", opcodeBinaryNum},
		{OP_LESSTHAN, "OP_LESSTHAN", opcodeBinaryNum},
		{OP_GREATERTHAN, "OP_GREATERTHAN", opcodeBinaryNum},
		{OP_LESSTHANOREQUAL, "OP_LESSTHANOREQUAL", opcodeBinaryNum},
		{OP_GREATERTHANOREQUAL, "OP_GREATERTHANOREQUAL", opcodeBinaryNum},
		{OP_MIN, "OP_MIN", opcodeBinaryNum},
		{OP_MAX, "OP_MAX", opcodeBinaryNum},
		{OP_WITHIN, "OP_WITHIN", opcodeWithin},

		// Crypto opcodes.
		{OP_RIPEMD160, "OP_RIPEMD160", opcodeHash},
		{OP_SHA1, "OP_SHA1", opcodeHash},
		{OP_SHA256, "OP_SHA256", opcodeHash},
		{OP_HASH160, "OP_HASH160", opcodeHash},
		{OP_HASH256, "OP_HASH256", opcodeHash},
		{OP_CODESEPARATOR, "OP_CODESEPARATOR", opcodeCodeSeparator},
		{OP_CHECKSIG, "OP_CHECKSIG", opcodeCheckSig},
		{OP_CHECKSIGVERIFY, "OP_CHECKSIGVERIFY", opcodeCheckSig},
		{OP_CHECKMULTISIG, "OP_CHECKMULTISIG", opcodeCheckMultiSig},
		{OP_CHECKMULTISIGVERIFY, "OP_CHECKMULTISIGVERIFY", opcodeCheckMultiSig},

		// Reserved opcodes.
		{OP_NOP1, "OP_NOP1", opcodeNop},
		{OP_NOP4, "OP_NOP4", opcodeNop},
		{OP_NOP5, "OP_NOP5", opcodeNop},
		{OP_NOP6, "OP_NOP6", opcodeNop},
		{OP_NOP7, "OP_NOP7", opcodeNop},
		{OP_NOP8, "OP_NOP8", opcodeNop},
		{OP_NOP9, "OP_NOP9", opcodeNop},
		{OP_NOP10, "OP_NOP10", opcodeNop},

		{OP_INVALIDOPCODE, "OP_INVALIDOPCODE", opcodeInvalid},
	}
	for _, def := range defined {
		opcodeArray[def.value] = opcode{def.value, def.name, 1, def.opfunc}
	}

	// Initialize the opcode name to value map using the contents of the
	// opcode array.  Also add entries for "OP_FALSE", "OP_TRUE", and
	// "OP_NOP2" since they are aliases for "OP_0", "OP_1",
	// and "OP_CHECKLOCKTIMEVERIFY" respectively.
	for _, op := range opcodeArray {
		OpcodeByName[op.name] = op.value
	}
	OpcodeByName["OP_FALSE"] = OP_FALSE
	OpcodeByName["OP_TRUE"] = OP_TRUE
	OpcodeByName["OP_NOP2"] = OP_CHECKLOCKTIMEVERIFY
	OpcodeByName["OP_NOP3"] = OP_CHECKSEQUENCEVERIFY
}

// opcodeOnelineRepls defines opcode names which are replaced when doing a
// one-line disassembly.  This is done to match the output of the reference
// implementation while not changing the opcode names in the nicer full
// disassembly.
var opcodeOnelineRepls = map[string]string{
	"OP_1NEGATE": "-1",
	"OP_0":       "0",
	"OP_1":       "1",
	"OP_2":       "2",
	"OP_3":       "3",
	"OP_4":       "4",
	"OP_5":       "5",
	"OP_6":       "6",
	"OP_7":       "7",
	"OP_8":       "8",
	"OP_9":       "9",
	"OP_10":      "10",
	"OP_11":      "11",
	"OP_12":      "12",
	"OP_13":      "13",
	"OP_14":      "14",
	"OP_15":      "15",
	"OP_16":      "16",
}

// disasmOpcode writes a human-readable disassembly of the provided opcode and
// data into the provided buffer.  The compact flag indicates the disassembly
// should print a more compact representation of data-carrying and small
// integer opcodes.  For example, OP_0 through OP_16 are replaced with the
// numeric value and data pushes are only shown as the hex representation of
// the data.
func disasmOpcode(buf *strings.Builder, op *opcode, data []byte, compact bool) {
	// Replace opcode which represent values (e.g. OP_0 through OP_16 and
	// OP_1NEGATE) with the raw value when performing a compact disassembly.
	opcodeName := op.name
	if compact {
		if replName, ok := opcodeOnelineRepls[opcodeName]; ok {
			opcodeName = replName
		}

		// Nothing more to do for non-data push opcodes.
		if op.length == 1 {
			buf.WriteString(opcodeName)
			return
		}

		buf.WriteString(hex.EncodeToString(data))
		return
	}

	buf.WriteString(opcodeName)

	switch op.length {
	// Only write the opcode name for non-data push opcodes.
	case 1:
		return

	// Add length for the OP_PUSHDATA# opcodes.
	case -1:
		buf.WriteString(fmt.Sprintf(" 0x%02x", len(data)))
	case -2:
		buf.WriteString(fmt.Sprintf(" 0x%04x", len(data)))
	case -4:
		buf.WriteString(fmt.Sprintf(" 0x%08x", len(data)))
	}

	buf.WriteString(fmt.Sprintf(" 0x%x", data))
}

// *******************************************
// Opcode implementation functions start here.
// *******************************************

// opcodeDisabled is a common handler for disabled opcodes.  It returns an
// appropriate error indicating the opcode is disabled.  While it would
// ordinarily make more sense to detect if the script contains any disabled
// opcodes before executing in an initial parse step, the consensus rules
// dictate the script doesn't fail until the program counter passes over a
// disabled opcode (even when they appear in a branch that is not executed).
func opcodeDisabled(op *opcode, data []byte, vm *interpreter) error {
	str := fmt.Sprintf("attempt to execute disabled opcode %s", op.name)
	return scriptError(ErrDisabledOpcode, str)
}

// opcodeReserved is a common handler for all reserved opcodes.  It returns an
// appropriate error indicating the opcode is reserved.
func opcodeReserved(op *opcode, data []byte, vm *interpreter) error {
	str := fmt.Sprintf("attempt to execute reserved opcode %s", op.name)
	return scriptError(ErrBadOpcode, str)
}

// opcodeInvalid is a common handler for all invalid opcodes.  It returns an
// appropriate error indicating the opcode is invalid.
func opcodeInvalid(op *opcode, data []byte, vm *interpreter) error {
	str := fmt.Sprintf("attempt to execute invalid opcode %s", op.name)
	return scriptError(ErrBadOpcode, str)
}

// opcodeFalse pushes an empty array to the data stack to represent false.
// Note that 0, when encoded as a number according to the numeric encoding
// consensus rules, is an empty array.
func opcodeFalse(op *opcode, data []byte, vm *interpreter) error {
	vm.dstack.Push(nil)
	return nil
}

// opcodePushData is a common handler for the vast majority of opcodes that push
// raw data (bytes) to the data stack.
func opcodePushData(op *opcode, data []byte, vm *interpreter) error {
	vm.dstack.Push(data)
	return nil
}

// opcode1Negate pushes -1, encoded as a number, to the data stack.
func opcode1Negate(op *opcode, data []byte, vm *interpreter) error {
	vm.dstack.Push(scriptNum(-1).Bytes())
	return nil
}

// opcodeN is a common handler for the small integer data push opcodes.  It
// pushes the numeric value the opcode represents (which will be from 1 to 16)
// onto the data stack.
func opcodeN(op *opcode, data []byte, vm *interpreter) error {
	// The opcodes are all defined consecutively, so the numeric value is
	// the difference.
	vm.dstack.Push(scriptNum(op.value - (OP_1 - 1)).Bytes())
	return nil
}

// opcodeNop is a common handler for the NOP family of opcodes.  As the name
// implies it generally does nothing, however, it will return an error when
// the flag to discourage use of NOPs is set for select opcodes.
func opcodeNop(op *opcode, data []byte, vm *interpreter) error {
	switch op.value {
	case OP_NOP1, OP_NOP4, OP_NOP5,
		OP_NOP6, OP_NOP7, OP_NOP8, OP_NOP9, OP_NOP10:

		if vm.hasFlag(ScriptDiscourageUpgradableNops) {
			str := fmt.Sprintf("%v reserved for soft-fork "+
				"upgrades", op.name)
			return scriptError(ErrDiscourageUpgradableNOPs, str)
		}
	}
	return nil
}

// popIfBool enforces the "minimal if" policy during script execution if the
// particular flag is set.  If so, in order to eliminate an additional source
// of nuisance malleability, post-segwit for version 0 witness programs, we now
// require the following: for OP_IF and OP_NOT_IF, the top stack item MUST
// either be an empty byte slice, or [0x01].  Otherwise, the item at the top of
// the stack will be popped and interpreted as a boolean.
func popIfBool(vm *interpreter) (bool, error) {
	// When not in witness execution mode, not executing a v0 witness
	// program, or the minimal if flag isn't set pop the top stack item as
	// a normal bool.
	so := vm.dstack.Top(-1)
	if vm.sigVersion == SigVersionWitnessV0 &&
		vm.hasFlag(ScriptVerifyMinimalIf) {

		// The top element MUST have a length of at most one.
		if len(so) > 1 {
			str := fmt.Sprintf("minimal if is active, top element "+
				"MUST have a length of at most one, instead "+
				"length is %v", len(so))
			return false, scriptError(ErrMinimalIf, str)
		}

		// Additionally, if the length is one, then the value MUST be
		// 0x01.
		if len(so) == 1 && so[0] != 0x01 {
			str := fmt.Sprintf("minimal if is active, top stack "+
				"item MUST be an empty byte array or 0x01, "+
				"is instead: %v", so[0])
			return false, scriptError(ErrMinimalIf, str)
		}
	}

	vm.dstack.Pop()
	return AsBool(so), nil
}

// opcodeIf treats the top item on the data stack as a boolean and removes it.
//
// An appropriate entry is added to the conditional stack depending on whether
// the boolean is true and whether this if is on an executing branch in order
// to allow proper execution of further opcodes depending on the conditional
// logic.  When the boolean is true, the first branch will be executed (unless
// this opcode is nested in a non-executed branch).
//
// <expression> if [statements] [else [statements]] endif
//
// Note that, unlike for all non-conditional opcodes, this is executed even when
// it is on a non-executing branch so proper nesting is maintained.
//
// Data stack transformation: [... bool] -> [...]
// Conditional stack transformation: [...] -> [... bool]
func opcodeIf(op *opcode, data []byte, vm *interpreter) error {
	condVal := false
	if vm.isBranchExecuting() {
		if vm.dstack.Depth() < 1 {
			return scriptError(ErrUnbalancedConditional,
				"OP_IF without a condition on the stack")
		}
		ok, err := popIfBool(vm)
		if err != nil {
			return err
		}
		condVal = ok
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

// opcodeNotIf treats the top item on the data stack as a boolean and removes
// it.  It is the inverse of opcodeIf for executing branches.
//
// Data stack transformation: [... bool] -> [...]
// Conditional stack transformation: [...] -> [... bool]
func opcodeNotIf(op *opcode, data []byte, vm *interpreter) error {
	condVal := false
	if vm.isBranchExecuting() {
		if vm.dstack.Depth() < 1 {
			return scriptError(ErrUnbalancedConditional,
				"OP_NOTIF without a condition on the stack")
		}
		ok, err := popIfBool(vm)
		if err != nil {
			return err
		}
		condVal = !ok
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

// opcodeElse inverts conditional execution for other half of if/else/endif.
//
// An error is returned if there has not already been a matching OP_IF.
//
// Conditional stack transformation: [... bool] -> [... !bool]
func opcodeElse(op *opcode, data []byte, vm *interpreter) error {
	if len(vm.condStack) == 0 {
		str := fmt.Sprintf("encountered opcode %s with no matching "+
			"opcode to begin conditional execution", op.name)
		return scriptError(ErrUnbalancedConditional, str)
	}

	top := len(vm.condStack) - 1
	vm.condStack[top] = !vm.condStack[top]
	return nil
}

// opcodeEndif terminates a conditional block, removing the value from the
// conditional execution stack.
//
// An error is returned if there has not already been a matching OP_IF.
//
// Conditional stack transformation: [... bool] -> [...]
func opcodeEndif(op *opcode, data []byte, vm *interpreter) error {
	if len(vm.condStack) == 0 {
		str := fmt.Sprintf("encountered opcode %s with no matching "+
			"opcode to begin conditional execution", op.name)
		return scriptError(ErrUnbalancedConditional, str)
	}

	vm.condStack = vm.condStack[:len(vm.condStack)-1]
	return nil
}

// abstractVerify examines the top item on the data stack as a boolean value
// and verifies it evaluates to true.  An error is returned either when there
// is no item on the stack or when that item evaluates to false.  In the latter
// case where the verification fails specifically due to the top item
// evaluating to false, the returned error will use the passed error code.
// The item is only removed when it evaluates to true.
func abstractVerify(op *opcode, vm *interpreter, c ErrorCode) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}

	if !AsBool(vm.dstack.Top(-1)) {
		str := fmt.Sprintf("%s failed", op.name)
		return scriptError(c, str)
	}
	vm.dstack.Pop()
	return nil
}

// opcodeVerify examines the top item on the data stack as a boolean value and
// verifies it evaluates to true.  An error is returned if it does not.
func opcodeVerify(op *opcode, data []byte, vm *interpreter) error {
	return abstractVerify(op, vm, ErrVerify)
}

// opcodeReturn returns an appropriate error since it is always an error to
// return early from a script.
func opcodeReturn(op *opcode, data []byte, vm *interpreter) error {
	return scriptError(ErrEarlyReturn, "script returned early")
}

// opcodeCheckLockTimeVerify compares the top item on the data stack to the
// LockTime field of the transaction containing the script signature
// validating if the transaction outputs are spendable yet.  If flag
// ScriptVerifyCheckLockTimeVerify is not set, the code continues as if
// OP_NOP2 were executed.
func opcodeCheckLockTimeVerify(op *opcode, data []byte, vm *interpreter) error {
	// If the ScriptVerifyCheckLockTimeVerify script flag is not set, treat
	// opcode as OP_NOP2 instead.
	if !vm.hasFlag(ScriptVerifyCheckLockTimeVerify) {
		if vm.hasFlag(ScriptDiscourageUpgradableNops) {
			return scriptError(ErrDiscourageUpgradableNOPs,
				"OP_NOP2 reserved for soft-fork upgrades")
		}
		return nil
	}

	// The current transaction locktime is a uint32 resulting in a maximum
	// locktime of 2^32-1.  However, scriptNums are signed and therefore a
	// standard 4-byte scriptNum would only support up to a maximum of
	// 2^31-1.  Thus, a 5-byte scriptNum is used here since it will support
	// up to 2^39-1 which allows dates beyond the current locktime limit.
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	lockTime, err := vm.topNum(-1, cltvMaxScriptNumLen)
	if err != nil {
		return err
	}

	// In the rare event that the argument needs to be < 0 due to some
	// arithmetic being done first, you can always use
	// 0 OP_MAX OP_CHECKLOCKTIMEVERIFY.
	if lockTime < 0 {
		str := fmt.Sprintf("negative lock time: %d", lockTime)
		return scriptError(ErrNegativeLockTime, str)
	}

	if !vm.checker.CheckLockTime(int64(lockTime)) {
		str := fmt.Sprintf("lock time %d is not satisfied by the "+
			"spending transaction", lockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return nil
}

// opcodeCheckSequenceVerify compares the top item on the data stack to the
// Sequence field of the input containing the script signature validating
// if the input's relative lock time has been satisfied.  If flag
// ScriptVerifyCheckSequenceVerify is not set, the code continues as if
// OP_NOP3 were executed.
func opcodeCheckSequenceVerify(op *opcode, data []byte, vm *interpreter) error {
	// If the ScriptVerifyCheckSequenceVerify script flag is not set, treat
	// opcode as OP_NOP3 instead.
	if !vm.hasFlag(ScriptVerifyCheckSequenceVerify) {
		if vm.hasFlag(ScriptDiscourageUpgradableNops) {
			return scriptError(ErrDiscourageUpgradableNOPs,
				"OP_NOP3 reserved for soft-fork upgrades")
		}
		return nil
	}

	// The current transaction sequence is a uint32 resulting in a maximum
	// sequence of 2^32-1.  However, scriptNums are signed and therefore a
	// standard 4-byte scriptNum would only support up to a maximum of
	// 2^31-1.  Thus, a 5-byte scriptNum is used here since it will support
	// up to 2^39-1 which allows sequences beyond the current sequence
	// limit.
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	stackSequence, err := vm.topNum(-1, cltvMaxScriptNumLen)
	if err != nil {
		return err
	}

	// In the rare event that the argument needs to be < 0 due to some
	// arithmetic being done first, you can always use
	// 0 OP_MAX OP_CHECKSEQUENCEVERIFY.
	if stackSequence < 0 {
		str := fmt.Sprintf("negative sequence: %d", stackSequence)
		return scriptError(ErrNegativeLockTime, str)
	}

	// To provide for future soft-fork extensibility, if the
	// operand has the disabled lock-time flag set,
	// CHECKSEQUENCEVERIFY behaves as a NOP.
	if int64(stackSequence)&int64(wire.SequenceLockTimeDisabled) != 0 {
		return nil
	}

	if !vm.checker.CheckSequence(int64(stackSequence)) {
		str := fmt.Sprintf("sequence %d is not satisfied by the "+
			"spending input", stackSequence)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return nil
}

// opcodeToAltStack removes the top item from the main data stack and pushes it
// onto the alternate data stack.
//
// Main data stack transformation: [... x1 x2 x3] -> [... x1 x2]
// Alt data stack transformation:  [... y1 y2 y3] -> [... y1 y2 y3 x3]
func opcodeToAltStack(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	vm.astack.Push(vm.dstack.Pop())
	return nil
}

// opcodeFromAltStack removes the top item from the alternate data stack and
// pushes it onto the main data stack.
//
// Main data stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 y3]
// Alt data stack transformation:  [... y1 y2 y3] -> [... y1 y2]
func opcodeFromAltStack(op *opcode, data []byte, vm *interpreter) error {
	if vm.astack.Depth() < 1 {
		return scriptError(ErrInvalidAltStackOperation,
			"alternate stack is empty")
	}
	vm.dstack.Push(vm.astack.Pop())
	return nil
}

// opcode2Drop removes the top 2 items from the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1]
func opcode2Drop(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	vm.dstack.Pop()
	vm.dstack.Pop()
	return nil
}

// opcode2Dup duplicates the top 2 items on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x2 x3]
func opcode2Dup(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	x2, x3 := vm.dstack.Top(-2), vm.dstack.Top(-1)
	vm.dstack.Push(x2)
	vm.dstack.Push(x3)
	return nil
}

// opcode3Dup duplicates the top 3 items on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x1 x2 x3]
func opcode3Dup(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(3); err != nil {
		return err
	}
	x1, x2, x3 := vm.dstack.Top(-3), vm.dstack.Top(-2), vm.dstack.Top(-1)
	vm.dstack.Push(x1)
	vm.dstack.Push(x2)
	vm.dstack.Push(x3)
	return nil
}

// opcode2Over duplicates the 2 items before the top 2 items on the data stack.
//
// Stack transformation: [... x1 x2 x3 x4] -> [... x1 x2 x3 x4 x1 x2]
func opcode2Over(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(4); err != nil {
		return err
	}
	x1, x2 := vm.dstack.Top(-4), vm.dstack.Top(-3)
	vm.dstack.Push(x1)
	vm.dstack.Push(x2)
	return nil
}

// opcode2Rot rotates the top 6 items on the data stack to the left twice.
//
// Stack transformation: [... x1 x2 x3 x4 x5 x6] -> [... x3 x4 x5 x6 x1 x2]
func opcode2Rot(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(6); err != nil {
		return err
	}
	x1, x2 := vm.dstack.Top(-6), vm.dstack.Top(-5)
	vm.dstack.Erase(-6, -4)
	vm.dstack.Push(x1)
	vm.dstack.Push(x2)
	return nil
}

// opcode2Swap swaps the top 2 items on the data stack with the 2 that come
// before them.
//
// Stack transformation: [... x1 x2 x3 x4] -> [... x3 x4 x1 x2]
func opcode2Swap(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(4); err != nil {
		return err
	}
	vm.dstack.Swap(-4, -2)
	vm.dstack.Swap(-3, -1)
	return nil
}

// opcodeIfDup duplicates the top item of the stack if it is not zero.
//
// Stack transformation (x1==0): [... x1] -> [... x1]
// Stack transformation (x1!=0): [... x1] -> [... x1 x1]
func opcodeIfDup(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	so := vm.dstack.Top(-1)
	if AsBool(so) {
		vm.dstack.Push(so)
	}
	return nil
}

// opcodeDepth pushes the depth of the data stack prior to executing this
// opcode, encoded as a number, onto the data stack.
//
// Stack transformation: [...] -> [... <num of items on the stack>]
// Example with 2 items: [x1 x2] -> [x1 x2 2]
// Example with 3 items: [x1 x2 x3] -> [x1 x2 x3 3]
func opcodeDepth(op *opcode, data []byte, vm *interpreter) error {
	vm.dstack.Push(scriptNum(vm.dstack.Depth()).Bytes())
	return nil
}

// opcodeDrop removes the top item from the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2]
func opcodeDrop(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	vm.dstack.Pop()
	return nil
}

// opcodeDup duplicates the top item on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x3]
func opcodeDup(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	vm.dstack.Push(vm.dstack.Top(-1))
	return nil
}

// opcodeNip removes the item before the top item on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x3]
func opcodeNip(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	vm.dstack.EraseAt(-2)
	return nil
}

// opcodeOver duplicates the item before the top item on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x2]
func opcodeOver(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	vm.dstack.Push(vm.dstack.Top(-2))
	return nil
}

// pickRoll implements OP_PICK and OP_ROLL.  The top item is treated as an
// integer n and removed, then the item n positions back is copied (or, when
// roll is true, moved) to the top.
func pickRoll(vm *interpreter, roll bool) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	num, err := vm.topNum(-1, maxScriptNumLen)
	if err != nil {
		return err
	}
	vm.dstack.Pop()

	n := int(num.Int32())
	if n < 0 || n >= vm.dstack.Depth() {
		str := fmt.Sprintf("index %d is invalid for stack size %d", n,
			vm.dstack.Depth())
		return scriptError(ErrInvalidStackOperation, str)
	}

	so := vm.dstack.Top(-n - 1)
	if roll {
		vm.dstack.EraseAt(-n - 1)
	}
	vm.dstack.Push(so)
	return nil
}

// opcodePick treats the top item on the data stack as an integer and
// duplicates the item on the stack that number of items back to the top.
//
// Stack transformation: [xn ... x2 x1 x0 n] -> [xn ... x2 x1 x0 xn]
// Example with n=1: [x2 x1 x0 1] -> [x2 x1 x0 x1]
// Example with n=2: [x2 x1 x0 2] -> [x2 x1 x0 x2]
func opcodePick(op *opcode, data []byte, vm *interpreter) error {
	return pickRoll(vm, false)
}

// opcodeRoll treats the top item on the data stack as an integer and moves
// the item on the stack that number of items back to the top.
//
// Stack transformation: [xn ... x2 x1 x0 n] -> [... x2 x1 x0 xn]
// Example with n=1: [x2 x1 x0 1] -> [x2 x0 x1]
// Example with n=2: [x2 x1 x0 2] -> [x1 x0 x2]
func opcodeRoll(op *opcode, data []byte, vm *interpreter) error {
	return pickRoll(vm, true)
}

// opcodeRot rotates the top 3 items on the data stack to the left.
//
// Stack transformation: [... x1 x2 x3] -> [... x2 x3 x1]
func opcodeRot(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(3); err != nil {
		return err
	}
	vm.dstack.Swap(-3, -2)
	vm.dstack.Swap(-2, -1)
	return nil
}

// opcodeSwap swaps the top two items on the stack.
//
// Stack transformation: [... x1 x2] -> [... x2 x1]
func opcodeSwap(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	vm.dstack.Swap(-2, -1)
	return nil
}

// opcodeTuck inserts a duplicate of the top item of the data stack before the
// second-to-top item.
//
// Stack transformation: [... x1 x2] -> [... x2 x1 x2]
func opcodeTuck(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	vm.dstack.Insert(-2, vm.dstack.Top(-1))
	return nil
}

// opcodeSize pushes the size of the top item of the data stack onto the data
// stack.
//
// Stack transformation: [... x1] -> [... x1 len(x1)]
func opcodeSize(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	vm.dstack.Push(scriptNum(len(vm.dstack.Top(-1))).Bytes())
	return nil
}

// opcodeEqual removes the top 2 items of the data stack, compares them as raw
// bytes, and pushes the result, encoded as a boolean, back to the stack.
//
// Stack transformation: [... x1 x2] -> [... bool]
func opcodeEqual(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	equal := bytes.Equal(vm.dstack.Top(-2), vm.dstack.Top(-1))
	vm.dstack.Pop()
	vm.dstack.Pop()
	vm.dstack.Push(FromBool(equal))
	return nil
}

// opcodeEqualVerify is a combination of opcodeEqual and opcodeVerify.
// Specifically, it removes the top 2 items of the data stack, compares them,
// and pushes the result, encoded as a boolean, back to the stack.  Then, it
// examines the top item on the data stack as a boolean value and verifies it
// evaluates to true.  An error is returned if it does not.
//
// Stack transformation: [... x1 x2] -> [... bool] -> [...]
func opcodeEqualVerify(op *opcode, data []byte, vm *interpreter) error {
	err := opcodeEqual(op, data, vm)
	if err == nil {
		err = abstractVerify(op, vm, ErrEqualVerify)
	}
	return err
}

// opcodeUnaryNum implements the numeric opcodes that take a single operand:
// OP_1ADD, OP_1SUB, OP_NEGATE, OP_ABS, OP_NOT and OP_0NOTEQUAL.
//
// Stack transformation: [... x1] -> [... f(x1)]
func opcodeUnaryNum(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	m, err := vm.topNum(-1, maxScriptNumLen)
	if err != nil {
		return err
	}

	var n scriptNum
	switch op.value {
	case OP_1ADD:
		n = m + 1
	case OP_1SUB:
		n = m - 1
	case OP_NEGATE:
		n = -m
	case OP_ABS:
		n = m
		if m < 0 {
			n = -m
		}
	case OP_NOT:
		if m == 0 {
			n = 1
		}
	case OP_0NOTEQUAL:
		if m != 0 {
			n = 1
		}
	}

	vm.dstack.Pop()
	vm.dstack.Push(n.Bytes())
	return nil
}

// boolNum converts a boolean into the script number 0 or 1.
func boolNum(v bool) scriptNum {
	if v {
		return 1
	}
	return 0
}

// opcodeBinaryNum implements the numeric opcodes that take two operands.  The
// second-to-top item is the left operand.
//
// Stack transformation: [... x1 x2] -> [... f(x1, x2)]
func opcodeBinaryNum(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	v0, err := vm.topNum(-2, maxScriptNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.topNum(-1, maxScriptNumLen)
	if err != nil {
		return err
	}

	var n scriptNum
	switch op.value {
	case OP_ADD:
		n = v0 + v1
	case OP_SUB:
		n = v0 - v1
	case OP_BOOLAND:
		n = boolNum(v0 != 0 && v1 != 0)
	case OP_BOOLOR:
		n = boolNum(v0 != 0 || v1 != 0)
	case OP_NUMEQUAL, OP_NUMEQUALVERIFY:
		n = boolNum(v0 == v1)
	case OP_NUMNOTEQUAL:
		n = boolNum(v0 != v1)
	case OP_LESSTHAN:
		n = boolNum(v0 < v1)
	case OP_GREATERTHAN:
		n = boolNum(v0 > v1)
	case OP_LESSTHANOREQUAL:
		n = boolNum(v0 <= v1)
	case OP_GREATERTHANOREQUAL:
		n = boolNum(v0 >= v1)
	case OP_MIN:
		n = v0
		if v1 < v0 {
			n = v1
		}
	case OP_MAX:
		n = v0
		if v1 > v0 {
			n = v1
		}
	}

	vm.dstack.Pop()
	vm.dstack.Pop()
	vm.dstack.Push(n.Bytes())

	if op.value == OP_NUMEQUALVERIFY {
		return abstractVerify(op, vm, ErrNumEqualVerify)
	}
	return nil
}

// opcodeWithin treats the top 3 items on the data stack as integers.  When the
// value to test is within the specified range (left inclusive), 1 is pushed
// to the data stack.  Otherwise, 0 is pushed.
//
// Stack transformation: [... x1 min max] -> [... bool]
func opcodeWithin(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(3); err != nil {
		return err
	}
	x, err := vm.topNum(-3, maxScriptNumLen)
	if err != nil {
		return err
	}
	minVal, err := vm.topNum(-2, maxScriptNumLen)
	if err != nil {
		return err
	}
	maxVal, err := vm.topNum(-1, maxScriptNumLen)
	if err != nil {
		return err
	}

	vm.dstack.Pop()
	vm.dstack.Pop()
	vm.dstack.Pop()
	vm.dstack.Push(boolNum(minVal <= x && x < maxVal).Bytes())
	return nil
}

// calcHash calculates the hash of hasher over buf.
func calcHash(buf []byte, hasher hash.Hash) []byte {
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// opcodeHash replaces the top item of the data stack with its OP_RIPEMD160,
// OP_SHA1, OP_SHA256, OP_HASH160 or OP_HASH256 digest.
//
// Stack transformation: [... x1] -> [... hash(x1)]
func opcodeHash(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(1); err != nil {
		return err
	}
	buf := vm.dstack.Top(-1)

	var digest []byte
	switch op.value {
	case OP_RIPEMD160:
		digest = calcHash(buf, ripemd160.New())
	case OP_SHA1:
		h := sha1.Sum(buf)
		digest = h[:]
	case OP_SHA256:
		h := sha256.Sum256(buf)
		digest = h[:]
	case OP_HASH160:
		digest = btcutil.Hash160(buf)
	case OP_HASH256:
		digest = chainhash.DoubleHashB(buf)
	}

	vm.dstack.Pop()
	vm.dstack.Push(digest)
	return nil
}

// opcodeCodeSeparator stores the current script offset as the most recently
// seen OP_CODESEPARATOR which is used during signature checking.
//
// This opcode does not change the contents of the data stack.
func opcodeCodeSeparator(op *opcode, data []byte, vm *interpreter) error {
	vm.lastCodeSep = vm.tokenizer.ByteIndex()
	return nil
}

// opcodeCheckSig treats the top 2 items on the stack as a public key and a
// signature and replaces them with a bool which indicates if the signature was
// successfully verified.  OP_CHECKSIGVERIFY additionally requires the result
// to be true and removes it.
//
// The process of verifying a signature requires calculating a signature hash
// in the same way the transaction signer did.  It involves hashing portions of
// the transaction based on the hash type byte (which is the final byte of the
// signature) and the portion of the script starting from the most recent
// OP_CODESEPARATOR (or the beginning of the script if there are none) to the
// end of the script (with any other OP_CODESEPARATORs removed).  Once this
// "script hash" is calculated, the signature is checked using standard
// cryptographic methods against the provided public key.
//
// Stack transformation: [... signature pubkey] -> [... bool]
func opcodeCheckSig(op *opcode, data []byte, vm *interpreter) error {
	if err := vm.requireDepth(2); err != nil {
		return err
	}
	sigBytes := vm.dstack.Top(-2)
	pkBytes := vm.dstack.Top(-1)

	// Legacy signatures cannot commit to themselves, so any pushes of the
	// signature are removed from the signed script.
	subScript := vm.subScript()
	if vm.sigVersion == SigVersionBase {
		subScript = FindAndDelete(subScript, sigBytes)
	}

	if err := checkSignatureEncoding(sigBytes, vm.flags); err != nil {
		return err
	}
	if err := checkPubKeyEncoding(pkBytes, vm.flags, vm.sigVersion); err != nil {
		return err
	}

	valid := vm.checker.CheckSig(sigBytes, pkBytes, subScript, vm.sigVersion)
	if !valid && vm.hasFlag(ScriptVerifyNullFail) && len(sigBytes) > 0 {
		str := "signature not empty on failed checksig"
		return scriptError(ErrNullFail, str)
	}

	vm.dstack.Pop()
	vm.dstack.Pop()
	vm.dstack.Push(FromBool(valid))

	if op.value == OP_CHECKSIGVERIFY {
		return abstractVerify(op, vm, ErrCheckSigVerify)
	}
	return nil
}

// opcodeCheckMultiSig treats the top item on the stack as an integer number of
// public keys, followed by that many entries as raw data representing the
// public keys, followed by the integer number of signatures, followed by that
// many entries as raw data representing the signatures.
//
// Due to a bug in the original Satoshi client implementation, an additional
// dummy argument is also required by the consensus rules, although it is not
// used.  The dummy value SHOULD be an OP_0, although that is not required by
// the consensus rules.  When the ScriptVerifyNullDummy flag is set, it must be
// OP_0.
//
// All of the aforementioned stack items are replaced with a bool which
// indicates if the requisite number of signatures were successfully verified.
//
// Signatures are matched against public keys in order: once a key has been
// passed over it is never tried again, so the signatures must appear in the
// same relative order as the keys they sign for.
//
// Stack transformation:
// [... dummy [sig ...] numsigs [pubkey ...] numpubkeys] -> [... bool]
func opcodeCheckMultiSig(op *opcode, data []byte, vm *interpreter) error {
	i := 1
	if err := vm.requireDepth(i); err != nil {
		return err
	}

	numKeys, err := vm.topNum(-i, maxScriptNumLen)
	if err != nil {
		return err
	}
	numPubKeys := int(numKeys.Int32())
	if numPubKeys < 0 || numPubKeys > MaxPubKeysPerMultiSig {
		str := fmt.Sprintf("number of pubkeys %d is out of range [0, %d]",
			numPubKeys, MaxPubKeysPerMultiSig)
		return scriptError(ErrInvalidPubKeyCount, str)
	}
	vm.numOps += numPubKeys
	if vm.numOps > MaxOpsPerScript {
		str := fmt.Sprintf("exceeded max operation limit of %d",
			MaxOpsPerScript)
		return scriptError(ErrTooManyOperations, str)
	}

	i++
	ikey := i

	// ikey2 is the position of the last non-signature item on the stack.
	// The cleanup loop below uses it to only apply the null fail check to
	// signatures.
	ikey2 := numPubKeys + 2
	i += numPubKeys
	if err := vm.requireDepth(i); err != nil {
		return err
	}

	numSigs, err := vm.topNum(-i, maxScriptNumLen)
	if err != nil {
		return err
	}
	numSignatures := int(numSigs.Int32())
	if numSignatures < 0 || numSignatures > numPubKeys {
		str := fmt.Sprintf("number of signatures %d is out of range "+
			"[0, %d]", numSignatures, numPubKeys)
		return scriptError(ErrInvalidSignatureCount, str)
	}

	i++
	isig := i
	i += numSignatures
	if err := vm.requireDepth(i); err != nil {
		return err
	}

	// Remove the signatures from the signed script for legacy signatures
	// since there is no way for a signature to sign itself.
	subScript := vm.subScript()
	if vm.sigVersion == SigVersionBase {
		for k := 0; k < numSignatures; k++ {
			subScript = FindAndDelete(subScript,
				vm.dstack.Top(-isig-k))
		}
	}

	success := true
	for success && numSignatures > 0 {
		sigBytes := vm.dstack.Top(-isig)
		pkBytes := vm.dstack.Top(-ikey)

		// Note that failing encoding checks is a hard error rather than
		// a failed signature.
		if err := checkSignatureEncoding(sigBytes, vm.flags); err != nil {
			return err
		}
		if err := checkPubKeyEncoding(pkBytes, vm.flags, vm.sigVersion); err != nil {
			return err
		}

		if vm.checker.CheckSig(sigBytes, pkBytes, subScript, vm.sigVersion) {
			isig++
			numSignatures--
		}
		ikey++
		numPubKeys--

		// If there are more signatures left than keys left, then too
		// many signatures have failed.  Exit early, without checking
		// any further signatures.
		if numSignatures > numPubKeys {
			success = false
		}
	}

	// Clean up the stack of actual arguments.
	for ; i > 1; i-- {
		// If the operation failed, require all signatures to be empty
		// when the null fail flag is set.
		if !success && vm.hasFlag(ScriptVerifyNullFail) && ikey2 == 0 &&
			len(vm.dstack.Top(-1)) > 0 {

			str := "not all signatures empty on failed checkmultisig"
			return scriptError(ErrNullFail, str)
		}
		if ikey2 > 0 {
			ikey2--
		}
		vm.dstack.Pop()
	}

	// A bug in the original Satoshi client implementation means one more
	// stack value than should be used must be popped.  Unfortunately, this
	// buggy behavior is now part of the consensus and a hard fork would be
	// required to fix it.
	if err := vm.requireDepth(1); err != nil {
		return err
	}

	// Since the dummy argument is otherwise not checked, it could be any
	// value which unfortunately provides a source of malleability.  Thus,
	// there is a script flag to force an error when the value is NOT 0.
	if vm.hasFlag(ScriptVerifyNullDummy) && len(vm.dstack.Top(-1)) != 0 {
		str := fmt.Sprintf("multisig dummy argument has length %d "+
			"instead of 0", len(vm.dstack.Top(-1)))
		return scriptError(ErrSigNullDummy, str)
	}
	vm.dstack.Pop()

	vm.dstack.Push(FromBool(success))
	if op.value == OP_CHECKMULTISIGVERIFY {
		return abstractVerify(op, vm, ErrCheckMultiSigVerify)
	}
	return nil
}
