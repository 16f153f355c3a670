package signer

import (
	"crypto/rand"
	"crypto/subtle"
)

// 秘密材料的内存管理
//
// 助记词、种子、盲化密钥等敏感字节必须在离开作用域时擦除，
// 擦除采用随机覆盖后清零的两遍写入，防止编译器将单次清零优化掉。

// zeroize 安全擦除字节切片
func zeroize(b []byte) {
	if len(b) == 0 {
		return
	}
	// 先用随机数据覆盖，再清零
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = 0
	}
}

// secretEqual 常数时间比较两段秘密字节
func secretEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// secret 归签名器独占的敏感字节缓冲
//
// 不持有外部切片：构造时拷贝，Clear 后不可再用。
type secret struct {
	data []byte
}

// newSecret 拷贝 b 构造秘密缓冲
func newSecret(b []byte) *secret {
	s := &secret{data: make([]byte, len(b))}
	copy(s.data, b)
	return s
}

// newSecretString 拷贝字符串构造秘密缓冲
func newSecretString(v string) *secret {
	return newSecret([]byte(v))
}

// Bytes 返回内部字节（只读视图，调用方不得修改或留存）
func (s *secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.data
}

// String 返回字符串拷贝
func (s *secret) String() string {
	if s == nil {
		return ""
	}
	return string(s.data)
}

// IsZero 缓冲是否为空或已擦除
func (s *secret) IsZero() bool {
	return s == nil || len(s.data) == 0
}

// Clear 擦除并释放缓冲
func (s *secret) Clear() {
	if s == nil {
		return
	}
	zeroize(s.data)
	s.data = nil
}
