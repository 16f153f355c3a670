// Package types provides shared type definitions for the Glacier wallet SDK.
package types

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// NetworkParams 链参数（网络上下文）
//
// 签名器在构造时绑定一份链参数，用于决定：
// - 扩展密钥的网络前缀（xpub/tpub）
// - 地址版本字节（base58check P2PKH 前缀）
// - 是否为机密资产链（Liquid 类侧链，金额/资产盲化）
//
// 签名器按值持有一份拷贝，调用方无需保证原对象存活。
type NetworkParams struct {
	Name           string `json:"name"`            // 网络名称，如 "mainnet"
	Mainnet        bool   `json:"mainnet"`         // 是否主网
	AddressVersion byte   `json:"address_version"` // P2PKH 地址版本字节
	Liquid         bool   `json:"liquid"`          // 是否机密资产链
	Bech32Prefix   string `json:"bech32_prefix"`   // bech32 HRP（可选）
}

// 预定义网络
var (
	// MainnetParams 比特币型主网
	MainnetParams = NetworkParams{
		Name:           "mainnet",
		Mainnet:        true,
		AddressVersion: 0x00,
		Bech32Prefix:   "bc",
	}

	// TestnetParams 测试网
	TestnetParams = NetworkParams{
		Name:           "testnet",
		Mainnet:        false,
		AddressVersion: 0x6f,
		Bech32Prefix:   "tb",
	}

	// LiquidParams 机密资产主网
	LiquidParams = NetworkParams{
		Name:           "liquid",
		Mainnet:        true,
		AddressVersion: 0x39,
		Liquid:         true,
		Bech32Prefix:   "ex",
	}

	// LiquidTestnetParams 机密资产测试网
	LiquidTestnetParams = NetworkParams{
		Name:           "testnet-liquid",
		Mainnet:        false,
		AddressVersion: 0x24,
		Liquid:         true,
		Bech32Prefix:   "tex",
	}
)

// NetworkByName 按名称查找预定义网络
func NetworkByName(name string) (NetworkParams, error) {
	for _, net := range []NetworkParams{MainnetParams, TestnetParams, LiquidParams, LiquidTestnetParams} {
		if net.Name == name {
			return net, nil
		}
	}
	return NetworkParams{}, fmt.Errorf("unknown network: %s", name)
}

// IsMainnet 是否主网
func (n NetworkParams) IsMainnet() bool { return n.Mainnet }

// IsLiquid 是否机密资产链
func (n NetworkParams) IsLiquid() bool { return n.Liquid }

// ChainConfig 返回 BIP32 派生使用的 chaincfg 参数
//
// 机密资产链复用对应比特币网络的扩展密钥版本字节。
func (n NetworkParams) ChainConfig() *chaincfg.Params {
	if n.Mainnet {
		return &chaincfg.MainNetParams
	}
	return &chaincfg.TestNet3Params
}
