package signer

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/glacierwallet/v1/pkg/types"
)

// WatchOnlySigner 观察签名器
//
// 不持有任何密钥材料，供只读钱包会话使用。全部派生与签名操作
// 恒定失败；主盲化密钥可显式注入以支持机密资产链的主机侧解盲。
type WatchOnlySigner struct {
	base
}

var _ Signer = (*WatchOnlySigner)(nil)

// newWatchOnlySigner 构造观察签名器
func newWatchOnlySigner(net types.NetworkParams) *WatchOnlySigner {
	return &WatchOnlySigner{base: base{net: net, caps: watchOnlyCapabilities()}}
}

// Variant 返回变体标签
func (w *WatchOnlySigner) Variant() Variant { return VariantWatchOnly }

// IsWatchOnly 恒为真
func (w *WatchOnlySigner) IsWatchOnly() bool { return true }

// IsHardware 恒为假
func (w *WatchOnlySigner) IsHardware() bool { return false }

// GetMnemonic 观察签名器不持有助记词
func (w *WatchOnlySigner) GetMnemonic(password string) (string, error) {
	return "", nil
}

// Device 观察签名器没有设备描述
func (w *WatchOnlySigner) Device() (DeviceDescriptor, error) {
	return nil, fmt.Errorf("%w: watch-only signer has no device", ErrNotSupported)
}

// GetXpub 观察签名器无密钥可派生
func (w *WatchOnlySigner) GetXpub(ctx context.Context, path types.DerivationPath) (*hdkeychain.ExtendedKey, error) {
	return nil, fmt.Errorf("%w: watch-only signer holds no key material", ErrNotSupported)
}

// GetBIP32Xpub 观察签名器无密钥可派生
func (w *WatchOnlySigner) GetBIP32Xpub(ctx context.Context, path types.DerivationPath) (string, error) {
	return "", fmt.Errorf("%w: watch-only signer holds no key material", ErrNotSupported)
}

// SignHash 观察签名器不能签名
func (w *WatchOnlySigner) SignHash(ctx context.Context, path types.DerivationPath, hash []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: watch-only signer cannot sign", ErrNotSupported)
}

// Close 擦除可能注入过的盲化密钥
func (w *WatchOnlySigner) Close() error {
	w.blind.clear()
	return nil
}
