package spltoken

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/gagliardetto/solana-go"
)

func ParseUser(data []byte) (UserLayout, error) {
	user := UserLayout{}
	if len(data) != TokenLayoutSize {
		return user, fmt.Errorf("token account data size is not valid, expected: %d, actual: %d", TokenLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	err := binary.Read(buf, binary.LittleEndian, &user)
	if err != nil {
		return user, fmt.Errorf("token account data is not valid, err: %s", err)
	}
	return user, nil
}

func ParseToken(data []byte) (TokenLayout, error) {
	token := TokenLayout{}
	if len(data) != MintLayoutSize {
		return token, fmt.Errorf("mint data size is not valid, expected: %d, actual: %d", MintLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	err := binary.Read(buf, binary.LittleEndian, &token)
	if err != nil {
		return token, fmt.Errorf("mint data is not valid, err: %s", err)
	}
	return token, nil
}

// InstructionTransfer builds a spl token transfer.
func InstructionTransfer(src, dst, owner solana.PublicKey, amount uint64, ownerIsSigner bool) solana.Instruction {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], amount)
	return &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: src, IsSigner: false, IsWritable: true},
			{PublicKey: dst, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: ownerIsSigner, IsWritable: false},
		},
		IsData:      data,
		IsProgramID: program.Token,
	}
}
