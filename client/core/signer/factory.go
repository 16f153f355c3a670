package signer

import (
	"fmt"

	"github.com/glacierwallet/v1/pkg/types"
	"github.com/rs/zerolog"
)

// Factory 签名器工厂
//
// 绑定一份链参数，提供三条具名构造路径，产出立即可用、
// 变体固定的签名器。签名器是独占资源：工厂每次调用产出
// 新实例，绝不复用或复制已有实例。
type Factory struct {
	net     types.NetworkParams
	logger  zerolog.Logger
	metrics *Metrics
}

// FactoryOption 工厂可选配置
type FactoryOption func(*Factory)

// WithLogger 注入日志器（默认丢弃日志）
func WithLogger(logger zerolog.Logger) FactoryOption {
	return func(f *Factory) { f.logger = logger }
}

// WithMetrics 注入指标（默认不采集）
func WithMetrics(metrics *Metrics) FactoryOption {
	return func(f *Factory) { f.metrics = metrics }
}

// NewFactory 创建绑定链参数的签名器工厂
func NewFactory(net types.NetworkParams, opts ...FactoryOption) *Factory {
	f := &Factory{net: net, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Network 返回工厂绑定的链参数
func (f *Factory) Network() types.NetworkParams { return f.net }

// WatchOnly 构造观察签名器：无密钥材料，能力全部取最弱值
func (f *Factory) WatchOnly() *WatchOnlySigner {
	return newWatchOnlySigner(f.net)
}

// Hardware 构造硬件签名器
//
// device 是开放键值描述，已识别的键驱动能力计算；proxy 是调用方
// 实现的物理传输代理。
func (f *Factory) Hardware(device DeviceDescriptor, proxy DeviceProxy) (*HardwareSigner, error) {
	if proxy == nil {
		return nil, fmt.Errorf("%w: device proxy is required", ErrInvalidInput)
	}
	return newHardwareSigner(f.net, device, proxy, f.logger, f.metrics), nil
}

// Software 构造软件签名器
//
// mnemonicOrKey 为 BIP39 助记词或扩展密钥文本。助记词以明文
// 持有（Close 时擦除）；需要静态加密时用 SoftwareWithPassword。
// 助记词校验失败或扩展密钥格式/网络错误返回 ErrInvalidInput。
func (f *Factory) Software(mnemonicOrKey string) (*SoftwareSigner, error) {
	return newSoftwareSigner(f.net, mnemonicOrKey, "")
}

// SoftwareWithPassword 构造助记词静态加密的软件签名器
//
// 助记词只以 AES-GCM blob 持有，GetMnemonic 需同一密码解密。
func (f *Factory) SoftwareWithPassword(mnemonic, password string) (*SoftwareSigner, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
	}
	return newSoftwareSigner(f.net, mnemonic, password)
}
