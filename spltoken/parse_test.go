package spltoken

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func TestParseUser(t *testing.T) {
	mint := solana.PublicKey{1}
	owner := solana.PublicKey{2}
	layout := UserLayout{
		Mint:   mint,
		Owner:  owner,
		Amount: 123456,
		State:  1,
	}
	buf := new(bytes.Buffer)
	assert.NoError(t, binary.Write(buf, binary.LittleEndian, &layout))
	assert.Equal(t, TokenLayoutSize, buf.Len())

	parsed, err := ParseUser(buf.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, mint, parsed.Mint)
	assert.Equal(t, owner, parsed.Owner)
	assert.Equal(t, uint64(123456), parsed.Amount)

	_, err = ParseUser(buf.Bytes()[:64])
	assert.Error(t, err)
}

func TestParseToken(t *testing.T) {
	layout := TokenLayout{
		Supply:        1000000,
		Decimals:      6,
		IsInitialized: 1,
	}
	buf := new(bytes.Buffer)
	assert.NoError(t, binary.Write(buf, binary.LittleEndian, &layout))
	assert.Equal(t, MintLayoutSize, buf.Len())

	parsed, err := ParseToken(buf.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000000), parsed.Supply)
	assert.Equal(t, byte(6), parsed.Decimals)

	_, err = ParseToken(append(buf.Bytes(), 0))
	assert.Error(t, err)
}

func TestInstructionTransfer(t *testing.T) {
	src := solana.PublicKey{1}
	dst := solana.PublicKey{2}
	owner := solana.PublicKey{3}

	instruction := InstructionTransfer(src, dst, owner, 5000, true)
	assert.Equal(t, program.Token, instruction.ProgramID())

	data, err := instruction.Data()
	assert.NoError(t, err)
	assert.Equal(t, 9, len(data))
	assert.Equal(t, byte(3), data[0])
	assert.Equal(t, uint64(5000), binary.LittleEndian.Uint64(data[1:]))

	accounts := instruction.Accounts()
	assert.Equal(t, 3, len(accounts))
	assert.Equal(t, src, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, owner, accounts[2].PublicKey)
	assert.True(t, accounts[2].IsSigner)
	assert.False(t, accounts[2].IsWritable)
}
