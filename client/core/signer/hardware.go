package signer

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/glacierwallet/v1/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HardwareSigner 硬件签名器
//
// 密钥在外部设备中，派生与签名经 DeviceProxy 转发。对设备的访问
// 被串行化：任意时刻至多一个未完成请求，并发调用方排队阻塞。
// 设备操作可能悬挂任意时长等待物理确认，调用方通过 ctx 控制
// 超时/取消，超时以 ErrDeviceTimeout、取消以 ErrDeviceUnavailable
// 上报，核心不做自动重试。
type HardwareSigner struct {
	base

	device  DeviceDescriptor
	proxy   DeviceProxy
	logger  zerolog.Logger
	metrics *Metrics

	// deviceSem 容量为 1 的信号量，串行化设备访问：物理传输没有
	// 并发会话的概念。排队等待设备的调用方同样受自身 ctx 约束，
	// 不会因队首请求悬挂而失去超时/取消能力。
	deviceSem chan struct{}
}

var _ Signer = (*HardwareSigner)(nil)

// newHardwareSigner 构造硬件签名器
//
// 能力从设备描述的已识别键读取，缺失字段取最保守值；
// 未识别的键原样保留，核心不做解释。
func newHardwareSigner(net types.NetworkParams, device DeviceDescriptor, proxy DeviceProxy, logger zerolog.Logger, metrics *Metrics) *HardwareSigner {
	return &HardwareSigner{
		base:      base{net: net, caps: hardwareCapabilities(device)},
		device:    device.Clone(),
		proxy:     proxy,
		logger:    logger.With().Str("component", "hardware_signer").Str("device", device.Name()).Logger(),
		metrics:   metrics,
		deviceSem: make(chan struct{}, 1),
	}
}

// Variant 返回变体标签
func (h *HardwareSigner) Variant() Variant { return VariantHardware }

// IsWatchOnly 硬件签名器可以签名
func (h *HardwareSigner) IsWatchOnly() bool { return false }

// IsHardware 恒为真
func (h *HardwareSigner) IsHardware() bool { return true }

// GetMnemonic 助记词在设备中，主机侧不可得
func (h *HardwareSigner) GetMnemonic(password string) (string, error) {
	return "", nil
}

// Device 返回设备描述的拷贝
func (h *HardwareSigner) Device() (DeviceDescriptor, error) {
	return h.device.Clone(), nil
}

// GetXpub 向设备请求 m/<path> 处的扩展公钥
//
// 可能阻塞等待设备上的用户交互。
func (h *HardwareSigner) GetXpub(ctx context.Context, path types.DerivationPath) (*hdkeychain.ExtendedKey, error) {
	resp, err := h.callDevice(ctx, DeviceOpGetXpub, path, nil)
	if err != nil {
		return nil, err
	}

	encoded, err := payloadString(resp, DevicePayloadXpub)
	if err != nil {
		return nil, err
	}
	xpub, err := hdkeychain.NewKeyFromString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: device returned malformed xpub: %v", ErrDeviceUnavailable, err)
	}
	if !xpub.IsForNet(h.net.ChainConfig()) {
		return nil, fmt.Errorf("%w: device returned xpub for another network", ErrDeviceUnavailable)
	}
	return xpub, nil
}

// GetBIP32Xpub 同 GetXpub，返回文本编码
func (h *HardwareSigner) GetBIP32Xpub(ctx context.Context, path types.DerivationPath) (string, error) {
	xpub, err := h.GetXpub(ctx, path)
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

// SignHash 请求设备对 32 字节摘要签名
//
// AE 支持级别为 mandatory 时走两轮主机熵承诺协议，绝不请求普通
// 签名；optional 时默认普通签名，调用方可改用 SignHashAntiExfil。
func (h *HardwareSigner) SignHash(ctx context.Context, path types.DerivationPath, hash []byte) ([]byte, error) {
	if len(hash) != hashLen {
		return nil, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidInput, hashLen, len(hash))
	}
	if h.caps.AEProtocol == types.AESupportMandatory {
		return h.signHashAE(ctx, path, hash)
	}

	resp, err := h.callDevice(ctx, DeviceOpSignHash, path, map[string]any{
		DevicePayloadHash: hex.EncodeToString(hash),
	})
	if err != nil {
		return nil, err
	}
	return payloadSignature(resp)
}

// SignHashAntiExfil 显式使用 Anti-Exfil 协议签名
//
// 支持级别为 none 时返回 ErrNotSupported。
func (h *HardwareSigner) SignHashAntiExfil(ctx context.Context, path types.DerivationPath, hash []byte) ([]byte, error) {
	if len(hash) != hashLen {
		return nil, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidInput, hashLen, len(hash))
	}
	if h.caps.AEProtocol == types.AESupportNone {
		return nil, fmt.Errorf("%w: device does not support the anti-exfil protocol", ErrNotSupported)
	}
	return h.signHashAE(ctx, path, hash)
}

// signHashAE 两轮主机熵承诺签名
//
// 第一轮提交 SHA-256(主机熵) 承诺，第二轮公开主机熵并取回签名。
// 设备侧的反外泄证明校验属于具体设备协议，不在核心实现。
func (h *HardwareSigner) signHashAE(ctx context.Context, path types.DerivationPath, hash []byte) ([]byte, error) {
	hostEntropy := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, hostEntropy); err != nil {
		return nil, fmt.Errorf("generate host entropy: %w", err)
	}
	defer zeroize(hostEntropy)
	hostCommitment := sha256.Sum256(hostEntropy)

	commitResp, err := h.callDevice(ctx, DeviceOpSignHashAECommit, path, map[string]any{
		DevicePayloadHash:           hex.EncodeToString(hash),
		DevicePayloadHostCommitment: hex.EncodeToString(hostCommitment[:]),
	})
	if err != nil {
		return nil, err
	}
	signerCommitment, err := payloadString(commitResp, DevicePayloadSignerCommitment)
	if err != nil {
		return nil, err
	}
	h.logger.Debug().Str("signer_commitment", signerCommitment).Msg("anti-exfil commit round complete")

	signResp, err := h.callDevice(ctx, DeviceOpSignHashAE, path, map[string]any{
		DevicePayloadHash:        hex.EncodeToString(hash),
		DevicePayloadHostEntropy: hex.EncodeToString(hostEntropy),
	})
	if err != nil {
		return nil, err
	}
	return payloadSignature(signResp)
}

// Close 擦除可能注入过的盲化密钥；设备本身归调用方管理
func (h *HardwareSigner) Close() error {
	h.blind.clear()
	return nil
}

// callDevice 发起一次串行化的设备请求
//
// 队首请求可能悬挂任意时长等待物理确认，排队的调用方在自身 ctx
// 到期时放弃等待并返回 ErrDeviceBusy（叠加超时/取消分类），
// 不会静默悬挂。
func (h *HardwareSigner) callDevice(ctx context.Context, op DeviceOp, path types.DerivationPath, payload map[string]any) (*DeviceResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapDeviceError(err)
	}

	select {
	case h.deviceSem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: gave up waiting for the device: %w", ErrDeviceBusy, mapDeviceError(ctx.Err()))
	}

	req := &DeviceRequest{
		ID:      uuid.NewString(),
		Op:      op,
		Path:    path.Clone(),
		Payload: payload,
	}

	start := time.Now()
	resp, err := h.proxy.Call(ctx, req)
	elapsed := time.Since(start)
	<-h.deviceSem

	h.metrics.observeDevice(op, elapsed, err)
	if err != nil {
		mapped := mapDeviceError(err)
		h.logger.Warn().
			Str("request_id", req.ID).
			Str("op", string(op)).
			Str("path", path.String()).
			Dur("elapsed", elapsed).
			Err(mapped).
			Msg("device request failed")
		return nil, mapped
	}

	h.logger.Debug().
		Str("request_id", req.ID).
		Str("op", string(op)).
		Str("path", path.String()).
		Dur("elapsed", elapsed).
		Msg("device request complete")
	return resp, nil
}

// mapDeviceError 将传输/上下文错误映射到设备错误分类
func mapDeviceError(err error) error {
	switch {
	case errors.Is(err, ErrSigningRejected),
		errors.Is(err, ErrDeviceUnavailable),
		errors.Is(err, ErrDeviceTimeout),
		errors.Is(err, ErrDeviceBusy):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrDeviceTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: call cancelled: %v", ErrDeviceUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
}

// payloadString 读取响应载荷中的字符串字段
func payloadString(resp *DeviceResponse, key string) (string, error) {
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("%w: empty device response", ErrDeviceUnavailable)
	}
	v, ok := resp.Payload[key]
	if !ok {
		return "", fmt.Errorf("%w: device response missing %q", ErrDeviceUnavailable, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: device response field %q is not a string", ErrDeviceUnavailable, key)
	}
	return s, nil
}

// payloadSignature 读取并解码响应中的 DER 签名
func payloadSignature(resp *DeviceResponse) ([]byte, error) {
	encoded, err := payloadString(resp, DevicePayloadSignature)
	if err != nil {
		return nil, err
	}
	sig, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: device returned malformed signature: %v", ErrDeviceUnavailable, err)
	}
	return sig, nil
}
