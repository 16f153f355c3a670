// Package signer 提供 Glacier 钱包的统一签名器抽象
//
// 🎯 **核心职责**：密钥派生与数字签名的信任边界
//
// 签名器对上层（会话、交易构造）隐藏密钥材料的存放位置：
// - Software：助记词/扩展密钥在主机内存中，全部操作本地计算
// - Hardware：密钥在外部设备中，操作经 DeviceProxy 转发
// - WatchOnly：不持有任何密钥材料，签名操作恒定失败
//
// 变体在构造时固定，对象存续期内不可变；唯一可变状态是主盲化密钥
// （缺失 → 存在，单向且幂等）。签名器是独占资源，不可复制，
// 销毁时必须安全擦除全部秘密材料。
package signer

import (
	"context"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/glacierwallet/v1/pkg/types"
)

// 进程级固定常量
//
// LoginPath/ClientSecretPath 分别用于派生规范登录密钥与客户端秘密密钥；
// PasswordSalt/BlobSalt 分别用于助记词静态加密与钱包元数据 blob 加密的盐值。
var (
	// LoginPath 规范登录密钥派生路径
	LoginPath = types.DerivationPath{0x4741b11e}

	// ClientSecretPath 客户端秘密密钥派生路径（'pass' 的硬化索引）
	ClientSecretPath = types.DerivationPath{types.Harden(0x70617373)}

	// PasswordSalt 助记词密码加密盐值
	PasswordSalt = [8]byte{'p', 'a', 's', 's', 's', 'a', 'l', 't'}

	// BlobSalt 钱包元数据 blob 加密盐值
	BlobSalt = [8]byte{'b', 'l', 'o', 'b', 's', 'a', 'l', 't'}
)

// Variant 签名器变体标签
type Variant string

const (
	// VariantWatchOnly 观察签名器：无密钥材料
	VariantWatchOnly Variant = "watch_only"
	// VariantHardware 硬件签名器：操作转发至外部设备
	VariantHardware Variant = "hardware"
	// VariantSoftware 软件签名器：密钥在主机内存中
	VariantSoftware Variant = "software"
)

// Signer 签名器接口 - 统一的密钥派生与签名抽象
//
// 能力查询为纯读取，可无限制并发。派生与签名在 Software 变体下是
// 对不可变密钥材料的纯计算，可并发调用；Hardware 变体下对设备的
// 访问被串行化，阻塞期间可通过 ctx 取消。
type Signer interface {
	// GetMnemonic 返回签名器持有的助记词
	//
	// 助记词以加密形式持有时，password 用于解密，密码错误返回
	// ErrDecryption；明文持有时传空密码即可。硬件/观察签名器以及
	// 由扩展密钥构造的软件签名器返回空串（无错误）。
	GetMnemonic(password string) (string, error)

	// SupportsLowR 是否只产生 low-r 签名
	SupportsLowR() bool

	// SupportsArbitraryScripts 是否支持任意脚本签名
	SupportsArbitraryScripts() bool

	// LiquidSupport 机密资产支持级别
	LiquidSupport() types.LiquidSupportLevel

	// SupportsHostUnblinding 是否支持主机侧解盲（可导出主盲化密钥）
	SupportsHostUnblinding() bool

	// AEProtocolSupport Anti-Exfil 协议支持级别
	AEProtocolSupport() types.AESupportLevel

	// IsLiquid 绑定的链是否为机密资产链
	IsLiquid() bool

	// IsWatchOnly 是否无法签名（观察签名器，或仅含公钥的软件签名器）
	IsWatchOnly() bool

	// IsHardware 是否为硬件签名器（操作由外部实现）
	IsHardware() bool

	// Variant 返回变体标签
	Variant() Variant

	// Capabilities 返回能力描述符（构造时计算，之后不变）
	Capabilities() types.Capabilities

	// Device 返回设备描述；非硬件变体返回 ErrNotSupported
	Device() (DeviceDescriptor, error)

	// GetXpub 派生 m/<path> 处的扩展公钥
	//
	// Software 为本地 BIP32 派生；Hardware 转发至设备，可能阻塞等待
	// 用户交互；仅含公钥的签名器遇到硬化索引返回 ErrDerivation。
	GetXpub(ctx context.Context, path types.DerivationPath) (*hdkeychain.ExtendedKey, error)

	// GetBIP32Xpub 同 GetXpub，返回标准扩展密钥文本编码
	GetBIP32Xpub(ctx context.Context, path types.DerivationPath) (string, error)

	// SignHash 使用 m/<path> 处的私钥对 32 字节摘要做 ECDSA 签名
	//
	// 返回 DER 编码签名。观察签名器与仅含公钥的软件签名器返回
	// ErrNotSupported；硬件变体可能返回 ErrSigningRejected /
	// ErrDeviceUnavailable / ErrDeviceTimeout。AE 支持级别为
	// mandatory 时必须走两轮主机熵承诺协议，绝不产生普通签名。
	SignHash(ctx context.Context, path types.DerivationPath, hash []byte) ([]byte, error)

	// BlindingKeyFromScript 从输出脚本确定性派生盲化私钥
	//
	// 仅在 IsLiquid 且主盲化密钥可用时有效，否则返回 ErrNotSupported。
	BlindingKeyFromScript(script []byte) ([]byte, error)

	// BlindingPubkeyFromScript 返回上述私钥对应的压缩公钥
	BlindingPubkeyFromScript(script []byte) ([]byte, error)

	// HasMasterBlindingKey 主盲化密钥是否已派生或注入
	HasMasterBlindingKey() bool

	// MasterBlindingKey 返回 32 字节主盲化密钥；缺失时返回 ErrUnavailable
	MasterBlindingKey() ([]byte, error)

	// SetMasterBlindingKey 以十六进制注入主盲化密钥
	//
	// 相同值重复设置幂等成功；不同值返回 ErrConflict；
	// 格式或长度错误返回 ErrInvalidInput。失败不产生任何可观察变更。
	SetMasterBlindingKey(blindingKeyHex string) error

	// Close 销毁签名器并安全擦除全部秘密材料
	Close() error
}
