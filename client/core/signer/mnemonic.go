package signer

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicStrength 助记词熵强度（位）
type MnemonicStrength int

const (
	// Mnemonic12Words 12 个助记词（128 位熵）
	Mnemonic12Words MnemonicStrength = 128
	// Mnemonic24Words 24 个助记词（256 位熵）
	Mnemonic24Words MnemonicStrength = 256
)

// GenerateMnemonic 生成新助记词
func GenerateMnemonic(strength MnemonicStrength) (string, error) {
	switch strength {
	case Mnemonic12Words, Mnemonic24Words:
	default:
		return "", fmt.Errorf("%w: mnemonic strength must be 128 or 256 bits, got %d", ErrInvalidInput, strength)
	}

	entropy, err := bip39.NewEntropy(int(strength))
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 验证助记词（词表与校验和）
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// mnemonicToSeed 助记词转种子（BIP39 PBKDF2-HMAC-SHA512）
//
// passphrase 为可选的 BIP39 密码。返回的种子由调用方负责擦除。
func mnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return seed, nil
}
