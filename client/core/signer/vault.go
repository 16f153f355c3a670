package signer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// 静态加密
//
// 助记词与钱包元数据 blob 以 AES-256-GCM 加密持有，密钥由
// PBKDF2-HMAC-SHA256 从口令派生。盐值是进程级固定常量
// （PasswordSalt 用于助记词，BlobSalt 用于元数据 blob）。

const (
	vaultCipher     = "aes-256-gcm"
	vaultKDF        = "pbkdf2"
	vaultIterations = 262144
	vaultKeyLen     = 32

	// 解密时接受的迭代次数区间：下限挡住退化密钥，
	// 上限挡住用超大 c 值构造的 CPU 耗尽载荷
	vaultMinIterations = 65536
	vaultMaxIterations = 4 * vaultIterations
)

// encryptedBlob 加密载荷
type encryptedBlob struct {
	Cipher     string `json:"cipher"`     // "aes-256-gcm"
	Ciphertext string `json:"ciphertext"` // hex 编码
	IV         string `json:"iv"`         // hex 编码的 GCM nonce
	KDF        string `json:"kdf"`        // "pbkdf2"
	Iterations int    `json:"c"`          // 迭代次数
}

// deriveVaultKey 从口令派生加密密钥
func deriveVaultKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, vaultKeyLen, sha256.New)
}

// sealBlob 加密明文
func sealBlob(plaintext []byte, password string, salt []byte) (*encryptedBlob, error) {
	key := deriveVaultKey(password, salt, vaultIterations)
	defer zeroize(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, plaintext, nil)
	return &encryptedBlob{
		Cipher:     vaultCipher,
		Ciphertext: hex.EncodeToString(ciphertext),
		IV:         hex.EncodeToString(iv),
		KDF:        vaultKDF,
		Iterations: vaultIterations,
	}, nil
}

// openBlob 解密载荷
//
// 口令错误时 GCM 认证失败，返回 ErrDecryption。
func openBlob(blob *encryptedBlob, password string, salt []byte) ([]byte, error) {
	if blob.Cipher != vaultCipher {
		return nil, fmt.Errorf("%w: unsupported cipher %q", ErrInvalidInput, blob.Cipher)
	}
	if blob.KDF != vaultKDF {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrInvalidInput, blob.KDF)
	}
	if blob.Iterations < vaultMinIterations || blob.Iterations > vaultMaxIterations {
		return nil, fmt.Errorf("%w: kdf iterations %d out of range [%d, %d]",
			ErrInvalidInput, blob.Iterations, vaultMinIterations, vaultMaxIterations)
	}

	ciphertext, err := hex.DecodeString(blob.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", ErrInvalidInput, err)
	}
	iv, err := hex.DecodeString(blob.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: decode iv: %v", ErrInvalidInput, err)
	}

	key := deriveVaultKey(password, salt, blob.Iterations)
	defer zeroize(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// EncryptBlob 以口令加密钱包元数据 blob（BlobSalt 盐值）
//
// 返回 JSON 文本，可直接持久化或传输。明文从不落盘。
func EncryptBlob(plaintext []byte, password string) (string, error) {
	blob, err := sealBlob(plaintext, password, BlobSalt[:])
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("marshal blob: %w", err)
	}
	return string(data), nil
}

// DecryptBlob 解密 EncryptBlob 产生的 JSON 文本
func DecryptBlob(encoded string, password string) ([]byte, error) {
	var blob encryptedBlob
	if err := json.Unmarshal([]byte(encoded), &blob); err != nil {
		return nil, fmt.Errorf("%w: parse blob: %v", ErrInvalidInput, err)
	}
	return openBlob(&blob, password, BlobSalt[:])
}
