package usecase

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coerceABI = `[
  {"type":"constructor","inputs":[
    {"name":"owner","type":"address"},
    {"name":"limit","type":"uint256"},
    {"name":"decimals","type":"uint8"},
    {"name":"offset","type":"int64"},
    {"name":"enabled","type":"bool"},
    {"name":"label","type":"string"},
    {"name":"salt","type":"bytes32"},
    {"name":"payload","type":"bytes"},
    {"name":"members","type":"address[]"},
    {"name":"odd","type":"uint24"}
  ]}
]`

func TestCoerceArgs(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(coerceABI))
	require.NoError(t, err)

	salt := "0x" + strings.Repeat("ab", 32)
	values := []any{
		"0xd3cda913deb6f67967b99d67acdfa1712c293601",
		"1000000000000000000000",
		18,
		-5,
		"true",
		"hello",
		salt,
		"0x0102",
		[]any{"0x0000000000000000000000000000000000000001", "0x0000000000000000000000000000000000000002"},
		"0x10",
	}

	args, err := CoerceArgs(parsed.Constructor.Inputs, values)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0xd3cda913deb6f67967b99d67acdfa1712c293601"), args[0])
	limit, _ := new(big.Int).SetString("1000000000000000000000", 10)
	assert.Equal(t, limit, args[1])
	assert.Equal(t, uint8(18), args[2])
	assert.Equal(t, int64(-5), args[3])
	assert.Equal(t, true, args[4])
	assert.Equal(t, "hello", args[5])
	assert.Equal(t, common.HexToHash(salt), common.Hash(args[6].([32]byte)))
	assert.Equal(t, []byte{1, 2}, args[7])
	assert.Equal(t, []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")}, args[8])
	assert.Equal(t, big.NewInt(16), args[9])

	_, err = parsed.Pack("", args...)
	assert.NoError(t, err)
}

func TestCoerceArgs_Errors(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"function","name":"f","inputs":[
		{"name":"a","type":"address"},{"name":"n","type":"uint8"},{"name":"s","type":"bytes4"}]}]`))
	require.NoError(t, err)
	inputs := parsed.Methods["f"].Inputs

	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{"wrong count", []any{"0x01"}, "expected 3 arguments"},
		{"bad address", []any{"nope", 1, "0x01020304"}, "argument a"},
		{"overflow", []any{"0x0000000000000000000000000000000000000001", 256, "0x01020304"}, "overflows"},
		{"negative unsigned", []any{"0x0000000000000000000000000000000000000001", -1, "0x01020304"}, "negative"},
		{"fixed bytes length", []any{"0x0000000000000000000000000000000000000001", 1, "0x01"}, "expected 4 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoerceArgs(inputs, tt.values)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
