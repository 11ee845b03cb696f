// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestScriptNumBytes ensures that converting from integral script numbers to
// byte representations works as expected.
func TestScriptNumBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		num        scriptNum
		serialized []byte
	}{
		{0, nil},
		{1, hexToBytes("01")},
		{-1, hexToBytes("81")},
		{127, hexToBytes("7f")},
		{-127, hexToBytes("ff")},
		{128, hexToBytes("8000")},
		{-128, hexToBytes("8080")},
		{129, hexToBytes("8100")},
		{-129, hexToBytes("8180")},
		{256, hexToBytes("0001")},
		{-256, hexToBytes("0081")},
		{32767, hexToBytes("ff7f")},
		{-32767, hexToBytes("ffff")},
		{32768, hexToBytes("008000")},
		{-32768, hexToBytes("008080")},
		{65535, hexToBytes("ffff00")},
		{-65535, hexToBytes("ffff80")},
		{8388608, hexToBytes("00008000")},
		{-8388608, hexToBytes("00008080")},
		{2147483647, hexToBytes("ffffff7f")},
		{-2147483647, hexToBytes("ffffffff")},

		// Values that are out of range for data that is interpreted as
		// numbers, but are allowed as the result of numeric operations.
		{2147483648, hexToBytes("0000008000")},
		{-2147483648, hexToBytes("0000008080")},
		{4294967295, hexToBytes("ffffffff00")},
		{-4294967295, hexToBytes("ffffffff80")},
		{4294967296, hexToBytes("0000000001")},
		{-4294967296, hexToBytes("0000000081")},
		{9223372036854775807, hexToBytes("ffffffffffffff7f")},
		{-9223372036854775807, hexToBytes("ffffffffffffffff")},
	}

	for _, test := range tests {
		require.Equal(t, test.serialized, test.num.Bytes(),
			"bytes of %d", test.num)
	}
}

// TestMakeScriptNum ensures that converting from byte representations to
// integral script numbers works as expected.
func TestMakeScriptNum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		serialized      []byte
		num             scriptNum
		numLen          int
		minimalEncoding bool
		err             ErrorCode
		fail            bool
	}{
		// Minimal encoding must reject negative 0.
		{hexToBytes("80"), 0, maxScriptNumLen, true, ErrMinimalData, true},

		// Minimally encoded valid values with minimal encoding flag.
		{nil, 0, maxScriptNumLen, true, 0, false},
		{hexToBytes("01"), 1, maxScriptNumLen, true, 0, false},
		{hexToBytes("81"), -1, maxScriptNumLen, true, 0, false},
		{hexToBytes("7f"), 127, maxScriptNumLen, true, 0, false},
		{hexToBytes("ff"), -127, maxScriptNumLen, true, 0, false},
		{hexToBytes("8000"), 128, maxScriptNumLen, true, 0, false},
		{hexToBytes("8080"), -128, maxScriptNumLen, true, 0, false},
		{hexToBytes("0001"), 256, maxScriptNumLen, true, 0, false},
		{hexToBytes("0081"), -256, maxScriptNumLen, true, 0, false},
		{hexToBytes("ffffff7f"), 2147483647, maxScriptNumLen, true, 0, false},
		{hexToBytes("ffffffff"), -2147483647, maxScriptNumLen, true, 0, false},
		{hexToBytes("ffffffff7f"), 549755813887, 5, true, 0, false},
		{hexToBytes("ffffffffff"), -549755813887, 5, true, 0, false},

		// Minimally encoded values that are out of range for data that
		// is interpreted as script numbers.
		{hexToBytes("0000008000"), 0, maxScriptNumLen, true, ErrNumberTooBig, true},
		{hexToBytes("0000008080"), 0, maxScriptNumLen, true, ErrNumberTooBig, true},
		{hexToBytes("ffffffff00"), 0, maxScriptNumLen, false, ErrNumberTooBig, true},
		{hexToBytes("000000000001"), 0, cltvMaxScriptNumLen, false, ErrNumberTooBig, true},

		// Non-minimally encoded, but otherwise valid values with
		// minimal encoding flag.
		{hexToBytes("00"), 0, maxScriptNumLen, true, ErrMinimalData, true},
		{hexToBytes("0100"), 0, maxScriptNumLen, true, ErrMinimalData, true},
		{hexToBytes("7f00"), 0, maxScriptNumLen, true, ErrMinimalData, true},
		{hexToBytes("800000"), 0, maxScriptNumLen, true, ErrMinimalData, true},
		{hexToBytes("00000080"), 0, maxScriptNumLen, true, ErrMinimalData, true},

		// The same values without the minimal encoding flag.
		{hexToBytes("00"), 0, maxScriptNumLen, false, 0, false},
		{hexToBytes("0100"), 1, maxScriptNumLen, false, 0, false},
		{hexToBytes("7f00"), 127, maxScriptNumLen, false, 0, false},
		{hexToBytes("800000"), 128, maxScriptNumLen, false, 0, false},
		{hexToBytes("00000080"), 0, maxScriptNumLen, false, 0, false},
		{hexToBytes("80"), 0, maxScriptNumLen, false, 0, false},
	}

	for _, test := range tests {
		gotNum, err := MakeScriptNum(test.serialized,
			test.minimalEncoding, test.numLen)
		if test.fail {
			require.Truef(t, IsErrorCode(err, test.err),
				"%x: want %v, got %v", test.serialized, test.err, err)
			continue
		}
		require.NoError(t, err, "%x", test.serialized)
		require.Equal(t, test.num, gotNum, "%x", test.serialized)
	}
}

// TestScriptNumInt32 ensures that the Int32 function on script number behaves
// as expected.
func TestScriptNumInt32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   scriptNum
		want int32
	}{
		// Values inside the valid int32 range are just the values
		// themselves cast to an int32.
		{0, 0},
		{1, 1},
		{-1, -1},
		{32768, 32768},
		{-32768, -32768},
		{2147483647, 2147483647},
		{-2147483647, -2147483647},
		{-2147483648, -2147483648},

		// Values outside of the valid int32 range are limited to int32.
		{2147483648, 2147483647},
		{-2147483649, -2147483648},
		{9223372036854775807, 2147483647},
		{-9223372036854775808, -2147483648},
	}

	for _, test := range tests {
		require.Equal(t, test.want, test.in.Int32(), "%d", test.in)
	}
}

// TestScriptNumRoundTrip checks that every encodable value decodes back to
// itself and that the encoding is always minimal.
func TestScriptNumRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.Int64Range(-(1<<39)+1, (1<<39)-1).Draw(rt, "v")

		encoded := scriptNum(v).Bytes()
		require.LessOrEqual(rt, len(encoded), cltvMaxScriptNumLen)

		decoded, err := MakeScriptNum(encoded, true, cltvMaxScriptNumLen)
		require.NoError(rt, err)
		require.Equal(rt, scriptNum(v), decoded)
	})
}

// TestScriptNumDecodeBounds checks that any decodable byte string of at most
// four bytes lies in the range of a 4-byte script number and that its
// canonical re-encoding is never longer.
func TestScriptNumDecodeBounds(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 0, maxScriptNumLen).Draw(rt,
			"raw")

		n, err := MakeScriptNum(raw, false, maxScriptNumLen)
		require.NoError(rt, err)
		require.LessOrEqual(rt, int64(n), int64(maxInt32))
		require.GreaterOrEqual(rt, int64(n), int64(-maxInt32))
		require.LessOrEqual(rt, len(n.Bytes()), len(raw))

		// Only the canonical form passes the minimal check.
		_, err = MakeScriptNum(raw, true, maxScriptNumLen)
		if err == nil {
			require.Equal(rt, n.Bytes(), nilIfEmpty(raw))
		}
	})
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
