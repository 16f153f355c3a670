package signer

import (
	"fmt"

	"github.com/glacierwallet/v1/pkg/types"
)

// base 三个变体共享的状态
//
// 链参数与能力描述符构造后只读；盲化密钥状态是唯一可变部分。
type base struct {
	net   types.NetworkParams
	caps  types.Capabilities
	blind blindingState
}

// SupportsLowR 是否只产生 low-r 签名
func (b *base) SupportsLowR() bool { return b.caps.LowR }

// SupportsArbitraryScripts 是否支持任意脚本签名
func (b *base) SupportsArbitraryScripts() bool { return b.caps.ArbitraryScripts }

// LiquidSupport 机密资产支持级别
func (b *base) LiquidSupport() types.LiquidSupportLevel { return b.caps.Liquid }

// SupportsHostUnblinding 是否支持主机侧解盲
func (b *base) SupportsHostUnblinding() bool { return b.caps.HostUnblinding }

// AEProtocolSupport Anti-Exfil 协议支持级别
func (b *base) AEProtocolSupport() types.AESupportLevel { return b.caps.AEProtocol }

// IsLiquid 绑定的链是否为机密资产链
func (b *base) IsLiquid() bool { return b.net.IsLiquid() }

// Capabilities 返回能力描述符
func (b *base) Capabilities() types.Capabilities { return b.caps }

// Network 返回绑定的链参数
func (b *base) Network() types.NetworkParams { return b.net }

// HasMasterBlindingKey 主盲化密钥是否可用
func (b *base) HasMasterBlindingKey() bool { return b.blind.available() }

// MasterBlindingKey 返回主盲化密钥
func (b *base) MasterBlindingKey() ([]byte, error) {
	if !b.net.IsLiquid() {
		return nil, fmt.Errorf("%w: not a confidential-asset network", ErrNotSupported)
	}
	return b.blind.get()
}

// SetMasterBlindingKey 注入主盲化密钥（hex，单次设置，幂等）
func (b *base) SetMasterBlindingKey(blindingKeyHex string) error {
	if !b.net.IsLiquid() {
		return fmt.Errorf("%w: not a confidential-asset network", ErrNotSupported)
	}
	return b.blind.setHex(blindingKeyHex)
}

// BlindingKeyFromScript 从输出脚本派生盲化私钥
func (b *base) BlindingKeyFromScript(script []byte) ([]byte, error) {
	if !b.net.IsLiquid() {
		return nil, fmt.Errorf("%w: not a confidential-asset network", ErrNotSupported)
	}
	return b.blind.scriptKey(script)
}

// BlindingPubkeyFromScript 从输出脚本派生盲化公钥
func (b *base) BlindingPubkeyFromScript(script []byte) ([]byte, error) {
	if !b.net.IsLiquid() {
		return nil, fmt.Errorf("%w: not a confidential-asset network", ErrNotSupported)
	}
	return b.blind.scriptPubkey(script)
}
