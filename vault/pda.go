package vault

import (
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/gagliardetto/solana-go"
)

// DeriveVaultAddress returns the deterministic vault address for an authority.
// Any caller can reproduce it without a ledger lookup.
func DeriveVaultAddress(authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{VaultSeed, authority.Bytes()},
		program.Vault,
	)
}

// DeriveCustodyAddress returns the vault's custody token account for a mint.
func DeriveCustodyAddress(vault, mint solana.PublicKey) (solana.PublicKey, error) {
	key, _, err := solana.FindAssociatedTokenAddress(vault, mint)
	return key, err
}
