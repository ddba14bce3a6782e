package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
)

var (
	VaultLayoutSize = 209
	VaultSeed       = []byte("resonance-vault")

	vaultDiscriminator = [8]byte{0x8e, 0x29, 0x3d, 0xcf, 0x1a, 0x6a, 0x5f, 0x3a}
)

// VaultLayout is the persisted vault record. The authority is set once at
// creation; the three counters only ever increase.
type VaultLayout struct {
	Discriminator      [8]byte
	Authority          solana.PublicKey
	MintX              solana.PublicKey
	MintY              solana.PublicKey
	TokenAccountX      solana.PublicKey
	TokenAccountY      solana.PublicKey
	MinProfitThreshold uint64
	MaxSingleTrade     uint64
	TotalProfits       uint64
	TotalTrades        uint64
	FailedTrades       uint64
	Bump               uint8
}

type KeyedVault struct {
	Key    solana.PublicKey
	Height uint64
	VaultLayout
}

func NewVaultLayout(authority, mintX, mintY, tokenAccountX, tokenAccountY solana.PublicKey, minProfitThreshold, maxSingleTrade uint64, bump uint8) (VaultLayout, error) {
	if minProfitThreshold == 0 || maxSingleTrade == 0 {
		return VaultLayout{}, ErrInvalidParameters
	}
	return VaultLayout{
		Discriminator:      vaultDiscriminator,
		Authority:          authority,
		MintX:              mintX,
		MintY:              mintY,
		TokenAccountX:      tokenAccountX,
		TokenAccountY:      tokenAccountY,
		MinProfitThreshold: minProfitThreshold,
		MaxSingleTrade:     maxSingleTrade,
		Bump:               bump,
	}, nil
}

func (v *VaultLayout) Encode() []byte {
	buf := new(bytes.Buffer)
	err := binary.Write(buf, binary.LittleEndian, v)
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func ParseVault(data []byte) (VaultLayout, error) {
	v := VaultLayout{}
	if len(data) != VaultLayoutSize {
		return v, fmt.Errorf("vault account data size is not valid, expected: %d, actual: %d", VaultLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	err := binary.Read(buf, binary.LittleEndian, &v)
	if err != nil {
		return v, fmt.Errorf("vault account data is not valid, err: %s", err)
	}
	if v.Discriminator != vaultDiscriminator {
		return v, fmt.Errorf("vault account discriminator is not valid")
	}
	return v, nil
}

// CustodyAccount maps a mint onto the matching custody account.
func (v *VaultLayout) CustodyAccount(mint solana.PublicKey) (solana.PublicKey, error) {
	switch mint {
	case v.MintX:
		return v.TokenAccountX, nil
	case v.MintY:
		return v.TokenAccountY, nil
	}
	return solana.PublicKey{}, ErrInvalidMint
}

// RecordTrade applies the terminal counter mutation of one arbitrage attempt.
// Exactly one branch runs per attempt that reaches this point.
func (v *VaultLayout) RecordTrade(profit uint64, succeeded bool) {
	if succeeded {
		v.TotalTrades = saturatingAdd(v.TotalTrades, 1)
		v.TotalProfits = saturatingAdd(v.TotalProfits, profit)
		return
	}
	v.FailedTrades = saturatingAdd(v.FailedTrades, 1)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
