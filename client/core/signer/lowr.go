package signer

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// 确定性 low-r ECDSA 签名
//
// RFC6979 派生 nonce，额外迭代计数用于碾磨出 r 最高位为零的签名
// （DER 编码下 r 恒为 32 字节），s 规范化为低半序。
// 同一 (密钥, 摘要) 的签名结果完全确定。

// hashLen 待签名摘要长度
const hashLen = 32

// signHashLowR 对 32 字节摘要产生 low-r、low-s 的 DER 签名
func signHashLowR(priv *secp256k1.PrivateKey, hash []byte) ([]byte, error) {
	if len(hash) != hashLen {
		return nil, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidInput, hashLen, len(hash))
	}

	privBytes := priv.Serialize()
	defer zeroize(privBytes)

	for iteration := uint32(0); ; iteration++ {
		k := secp256k1.NonceRFC6979(privBytes, hash, nil, nil, iteration)
		sig, ok := trySignWithNonce(&priv.Key, k, hash)
		k.Zero()
		if ok {
			return sig.Serialize(), nil
		}
	}
}

// trySignWithNonce 用给定 nonce 尝试一次签名
//
// nonce 对应的 r 为零、溢出或最高位置位时放弃，由调用方换下一个
// 迭代的 nonce 重试。
func trySignWithNonce(d, k *secp256k1.ModNScalar, hash []byte) (*secpecdsa.Signature, bool) {
	// R = k*G
	var kG secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &kG)
	kG.ToAffine()

	// r = R.x mod N
	var buf [32]byte
	kG.X.PutBytes(&buf)
	var r secp256k1.ModNScalar
	overflow := r.SetBytes(&buf)
	zeroize(buf[:])
	if overflow != 0 || r.IsZero() {
		return nil, false
	}

	// low-r 约束：最高位必须为零
	rBytes := r.Bytes()
	if rBytes[0]&0x80 != 0 {
		return nil, false
	}

	// s = k⁻¹(e + r*d) mod N
	var e secp256k1.ModNScalar
	e.SetByteSlice(hash)
	kInv := new(secp256k1.ModNScalar).InverseValNonConst(k)
	s := new(secp256k1.ModNScalar).Mul2(&r, d).Add(&e).Mul(kInv)
	if s.IsZero() {
		return nil, false
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}

	return secpecdsa.NewSignature(&r, s), true
}
