package signer

import (
	"github.com/glacierwallet/v1/pkg/types"
)

// 能力描述符计算
//
// 构造时按变体计算一次，之后只读。

// watchOnlyCapabilities 观察签名器：全部取最弱值
func watchOnlyCapabilities() types.Capabilities {
	return types.Capabilities{
		LowR:             false,
		ArbitraryScripts: false,
		Liquid:           types.LiquidSupportNone,
		HostUnblinding:   false,
		AEProtocol:       types.AESupportNone,
	}
}

// softwareCapabilities 软件签名器：由本实现的密码库能力决定
//
// low-r 与任意脚本签名为本地实现，恒支持；AE 协议不适用于主机
// 持钥的签名器，取 none。机密资产链上支持 lite 级别与主机侧解盲。
// 仅含公钥的派生专用签名器没有签名能力。
func softwareCapabilities(net types.NetworkParams, derivationOnly bool) types.Capabilities {
	caps := types.Capabilities{
		LowR:             !derivationOnly,
		ArbitraryScripts: !derivationOnly,
		AEProtocol:       types.AESupportNone,
	}
	if net.IsLiquid() {
		caps.Liquid = types.LiquidSupportLite
		caps.HostUnblinding = true
	}
	return caps
}

// hardwareCapabilities 硬件签名器：从设备描述的已识别键读取
//
// 描述中缺失的字段一律取最保守值（未知视为不支持）。
func hardwareCapabilities(desc DeviceDescriptor) types.Capabilities {
	var caps types.Capabilities

	if v, ok := desc.boolField(DeviceKeySupportsLowR); ok {
		caps.LowR = v
	}
	if v, ok := desc.boolField(DeviceKeyArbitraryScripts); ok {
		caps.ArbitraryScripts = v
	}
	if v, ok := desc.boolField(DeviceKeyHostUnblinding); ok {
		caps.HostUnblinding = v
	}
	if v, ok := desc.stringField(DeviceKeyLiquidSupport); ok {
		caps.Liquid = types.ParseLiquidSupportLevel(v)
	}
	if v, ok := desc.stringField(DeviceKeyAEProtocolSupport); ok {
		caps.AEProtocol = types.ParseAESupportLevel(v)
	}
	return caps
}
