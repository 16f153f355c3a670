package signer

import (
	"context"

	"github.com/glacierwallet/v1/pkg/types"
)

// 硬件设备边界
//
// 设备描述是开放的键值文档：已识别的键驱动能力描述符计算，
// 其余键原样保留、不做解释，转发给设备代理时可见。
// 设备代理是外部实现的请求/响应通道，核心不实现物理传输协议。

// 设备描述中已识别的键
const (
	DeviceKeyName              = "name"
	DeviceKeySupportsLowR      = "supports_low_r"
	DeviceKeyArbitraryScripts  = "supports_arbitrary_scripts"
	DeviceKeyHostUnblinding    = "supports_host_unblinding"
	DeviceKeyLiquidSupport     = "liquid_support_level"
	DeviceKeyAEProtocolSupport = "ae_protocol_support_level"
)

// DeviceDescriptor 物理设备的开放键值描述
//
// 型号、固件能力、厂商自定义字段等。核心只读取已识别的键。
type DeviceDescriptor map[string]any

// Clone 返回描述的浅拷贝
func (d DeviceDescriptor) Clone() DeviceDescriptor {
	out := make(DeviceDescriptor, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Name 返回设备名称，缺失时为空串
func (d DeviceDescriptor) Name() string {
	s, _ := d.stringField(DeviceKeyName)
	return s
}

// boolField 读取布尔字段；缺失或类型不符返回 (false, false)
func (d DeviceDescriptor) boolField(key string) (bool, bool) {
	v, ok := d[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// stringField 读取字符串字段
func (d DeviceDescriptor) stringField(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DeviceOp 设备代理操作码
type DeviceOp string

const (
	// DeviceOpGetXpub 请求 m/<path> 处的扩展公钥
	DeviceOpGetXpub DeviceOp = "get_xpub"
	// DeviceOpSignHash 普通确定性 ECDSA 签名
	DeviceOpSignHash DeviceOp = "sign_hash"
	// DeviceOpSignHashAECommit AE 协议第一轮：提交主机熵承诺
	DeviceOpSignHashAECommit DeviceOp = "sign_hash_ae_commit"
	// DeviceOpSignHashAE AE 协议第二轮：公开主机熵并取回签名
	DeviceOpSignHashAE DeviceOp = "sign_hash_ae"
)

// 设备请求/响应载荷中的字段名（二进制字段一律 hex 编码）
const (
	DevicePayloadHash             = "hash"
	DevicePayloadXpub             = "xpub"
	DevicePayloadSignature        = "signature"
	DevicePayloadHostCommitment   = "ae_host_commitment"
	DevicePayloadHostEntropy      = "ae_host_entropy"
	DevicePayloadSignerCommitment = "ae_signer_commitment"
)

// DeviceRequest 发往设备代理的单个请求
type DeviceRequest struct {
	ID      string               `json:"id"`      // 请求标识（uuid）
	Op      DeviceOp             `json:"op"`      // 操作码
	Path    types.DerivationPath `json:"path"`    // 派生路径
	Payload map[string]any       `json:"payload"` // 操作载荷
}

// DeviceResponse 设备代理的响应
type DeviceResponse struct {
	Payload map[string]any `json:"payload"`
}

// DeviceProxy 硬件设备代理
//
// 由调用方实现物理传输（USB/BLE/中继）。实现约定：
// - 用户拒绝返回 ErrSigningRejected
// - 设备断开/传输失败返回 ErrDeviceUnavailable
// - 存在未完成请求时可返回 ErrDeviceBusy
// - 操作可能悬挂任意时长等待物理确认，必须尊重 ctx 取消
//
// 核心保证同一签名器对代理的调用串行化：任意时刻至多一个
// 未完成请求。
type DeviceProxy interface {
	Call(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error)
}
