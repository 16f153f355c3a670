package signer

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
)

// 主盲化密钥与逐输出盲化密钥派生（SLIP-77 风格）
//
// 机密资产链的每个输出使用独立盲化密钥，由主盲化密钥与输出脚本
// 经 HMAC-SHA512 确定性派生：脚本为消息，主盲化密钥为 HMAC 密钥。

// blindingKeyLen 主盲化密钥长度
const blindingKeyLen = 32

// slip77 派生常量
var (
	slip77SeedKey = []byte("Symmetric key seed")
	slip77Label   = []byte("SLIP-0077")
)

// deriveMasterBlindingKey 从 BIP39 种子派生 32 字节主盲化密钥
//
// master = HMAC-SHA512("Symmetric key seed", seed)
// node   = HMAC-SHA512(master[0:32], 0x00 || "SLIP-0077")
// 主盲化密钥取 node 的后 32 字节。
func deriveMasterBlindingKey(seed []byte) []byte {
	mac := hmac.New(sha512.New, slip77SeedKey)
	mac.Write(seed)
	master := mac.Sum(nil)
	defer zeroize(master)

	mac = hmac.New(sha512.New, master[:32])
	mac.Write([]byte{0x00})
	mac.Write(slip77Label)
	node := mac.Sum(nil)
	defer zeroize(node)

	key := make([]byte, blindingKeyLen)
	copy(key, node[32:])
	return key
}

// blindingKeyFromScript 从输出脚本派生盲化私钥
func blindingKeyFromScript(masterBlindingKey, script []byte) []byte {
	mac := hmac.New(sha512.New, masterBlindingKey)
	mac.Write(script)
	sum := mac.Sum(nil)
	defer zeroize(sum)

	key := make([]byte, blindingKeyLen)
	copy(key, sum[32:])
	return key
}

// blindingState 主盲化密钥状态
//
// 唯一的构造后可变状态：缺失 → 存在，单向。相同值重复设置幂等；
// 不同值失败且不产生可观察变更（单写者纪律由互斥锁保证）。
type blindingState struct {
	mu  sync.RWMutex
	key *secret
}

// available 密钥是否已派生或注入
func (b *blindingState) available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.key.IsZero()
}

// get 返回密钥拷贝；缺失时返回 ErrUnavailable
func (b *blindingState) get() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.key.IsZero() {
		return nil, fmt.Errorf("%w: master blinding key not set", ErrUnavailable)
	}
	out := make([]byte, blindingKeyLen)
	copy(out, b.key.Bytes())
	return out, nil
}

// setRaw 直接注入密钥字节（构造路径使用，拷贝后持有）
func (b *blindingState) setRaw(key []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.key = newSecret(key)
}

// setHex 解码并注入密钥
func (b *blindingState) setHex(blindingKeyHex string) error {
	decoded, err := hex.DecodeString(blindingKeyHex)
	if err != nil {
		return fmt.Errorf("%w: malformed blinding key hex: %v", ErrInvalidInput, err)
	}
	if len(decoded) != blindingKeyLen {
		zeroize(decoded)
		return fmt.Errorf("%w: blinding key must be %d bytes, got %d", ErrInvalidInput, blindingKeyLen, len(decoded))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.key.IsZero() {
		if secretEqual(b.key.Bytes(), decoded) {
			zeroize(decoded)
			return nil // 幂等
		}
		zeroize(decoded)
		return fmt.Errorf("%w: a different master blinding key is already set", ErrConflict)
	}
	b.key = newSecret(decoded)
	zeroize(decoded)
	return nil
}

// clear 擦除密钥
func (b *blindingState) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.key.Clear()
	b.key = nil
}

// scriptKey 派生逐输出盲化私钥；密钥缺失或非机密资产链时由调用方拦截
func (b *blindingState) scriptKey(script []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.key.IsZero() {
		return nil, fmt.Errorf("%w: master blinding key not set", ErrNotSupported)
	}
	return blindingKeyFromScript(b.key.Bytes(), script), nil
}

// scriptPubkey 派生逐输出盲化公钥（压缩编码，33 字节）
func (b *blindingState) scriptPubkey(script []byte) ([]byte, error) {
	priv, err := b.scriptKey(script)
	if err != nil {
		return nil, err
	}
	defer zeroize(priv)

	key, _ := btcec.PrivKeyFromBytes(priv)
	pub := key.PubKey().SerializeCompressed()
	key.Zero()
	return pub, nil
}
