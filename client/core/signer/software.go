package signer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/glacierwallet/v1/pkg/types"
)

// SoftwareSigner 软件签名器
//
// 密钥材料在主机内存中：由助记词派生的主扩展私钥，或直接解析的
// 扩展密钥字符串。全部操作为本地计算，对不可变密钥材料可并发调用。
// 由扩展公钥构造时为派生专用签名器（IsWatchOnly 为真，不能签名）。
type SoftwareSigner struct {
	base

	masterKey      *hdkeychain.ExtendedKey // 主扩展密钥（私钥或仅公钥）
	mnemonic       *secret                 // 明文助记词（未加密持有时）
	encrypted      *encryptedBlob          // 助记词静态加密持有时
	derivationOnly bool                    // 仅含公钥，只能派生公开数据

	closeMu sync.RWMutex
	closed  bool
}

var _ Signer = (*SoftwareSigner)(nil)

// newSoftwareSigner 构造软件签名器
//
// mnemonicOrKey 为 BIP39 助记词或扩展密钥文本；password 非空时
// 助记词只以加密 blob 形式持有，GetMnemonic 需同一密码解密。
func newSoftwareSigner(net types.NetworkParams, mnemonicOrKey, password string) (*SoftwareSigner, error) {
	input := strings.TrimSpace(mnemonicOrKey)
	if input == "" {
		return nil, fmt.Errorf("%w: empty mnemonic or extended key", ErrInvalidInput)
	}

	s := &SoftwareSigner{base: base{net: net}}

	if ValidateMnemonic(input) {
		if err := s.initFromMnemonic(input, password); err != nil {
			return nil, err
		}
	} else if strings.Contains(input, " ") {
		// 含空格但校验失败：按助记词处理并报错，避免误判为扩展密钥
		return nil, fmt.Errorf("%w: mnemonic failed checksum or wordlist validation", ErrInvalidInput)
	} else {
		if err := s.initFromExtendedKey(input); err != nil {
			return nil, err
		}
	}

	s.caps = softwareCapabilities(net, s.derivationOnly)
	return s, nil
}

// initFromMnemonic 从助记词派生主密钥与主盲化密钥
func (s *SoftwareSigner) initFromMnemonic(mnemonic, password string) error {
	seed, err := mnemonicToSeed(mnemonic, "")
	if err != nil {
		return err
	}
	defer zeroize(seed)

	masterKey, err := hdkeychain.NewMaster(seed, s.net.ChainConfig())
	if err != nil {
		return fmt.Errorf("%w: derive master key: %v", ErrInvalidInput, err)
	}
	s.masterKey = masterKey

	if s.net.IsLiquid() {
		blindingKey := deriveMasterBlindingKey(seed)
		s.blind.setRaw(blindingKey)
		zeroize(blindingKey)
	}

	if password != "" {
		blob, err := sealBlob([]byte(mnemonic), password, PasswordSalt[:])
		if err != nil {
			return err
		}
		s.encrypted = blob
	} else {
		s.mnemonic = newSecretString(mnemonic)
	}
	return nil
}

// initFromExtendedKey 解析 xpub/xprv 文本
func (s *SoftwareSigner) initFromExtendedKey(encoded string) error {
	key, err := hdkeychain.NewKeyFromString(encoded)
	if err != nil {
		return fmt.Errorf("%w: malformed extended key: %v", ErrInvalidInput, err)
	}
	if !key.IsForNet(s.net.ChainConfig()) {
		return fmt.Errorf("%w: extended key belongs to another network", ErrInvalidInput)
	}
	s.masterKey = key
	s.derivationOnly = !key.IsPrivate()
	return nil
}

// Variant 返回变体标签
func (s *SoftwareSigner) Variant() Variant { return VariantSoftware }

// IsWatchOnly 仅含公钥的签名器无法签名
func (s *SoftwareSigner) IsWatchOnly() bool { return s.derivationOnly }

// IsHardware 软件签名器非硬件实现
func (s *SoftwareSigner) IsHardware() bool { return false }

// Device 软件签名器没有设备描述
func (s *SoftwareSigner) Device() (DeviceDescriptor, error) {
	return nil, fmt.Errorf("%w: software signer has no device", ErrNotSupported)
}

// GetMnemonic 返回助记词
//
// 加密持有时用 password 解密，密码错误返回 ErrDecryption；
// 由扩展密钥构造的签名器返回空串。
func (s *SoftwareSigner) GetMnemonic(password string) (string, error) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return "", fmt.Errorf("%w: signer closed", ErrUnavailable)
	}

	if s.encrypted != nil {
		plaintext, err := openBlob(s.encrypted, password, PasswordSalt[:])
		if err != nil {
			return "", err
		}
		mnemonic := string(plaintext)
		zeroize(plaintext)
		return mnemonic, nil
	}
	if s.mnemonic != nil {
		return s.mnemonic.String(), nil
	}
	return "", nil
}

// GetXpub 本地 BIP32 派生 m/<path> 处的扩展公钥
func (s *SoftwareSigner) GetXpub(ctx context.Context, path types.DerivationPath) (*hdkeychain.ExtendedKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: signer closed", ErrUnavailable)
	}

	key, err := s.derive(path)
	if err != nil {
		return nil, err
	}
	neutered, err := key.Neuter()
	if err != nil {
		if key != s.masterKey {
			key.Zero()
		}
		return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
	}

	// Neuter 与源密钥共享链码，串行化后重新解析得到独立拷贝，
	// 擦除派生密钥时不会破坏返回值
	xpub, err := hdkeychain.NewKeyFromString(neutered.String())
	if key != s.masterKey {
		key.Zero()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
	}
	return xpub, nil
}

// GetBIP32Xpub 派生并返回标准扩展密钥文本编码
func (s *SoftwareSigner) GetBIP32Xpub(ctx context.Context, path types.DerivationPath) (string, error) {
	xpub, err := s.GetXpub(ctx, path)
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

// SignHash 使用 m/<path> 处的私钥对 32 字节摘要签名
//
// 产生 low-r、low-s 的确定性 DER 签名。
func (s *SoftwareSigner) SignHash(ctx context.Context, path types.DerivationPath, hash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: signer closed", ErrUnavailable)
	}
	if s.derivationOnly {
		return nil, fmt.Errorf("%w: signer holds no private key", ErrNotSupported)
	}

	key, err := s.derive(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if key != s.masterKey {
			key.Zero()
		}
	}()

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
	}
	defer priv.Zero()

	return signHashLowR(priv, hash)
}

// MasterFingerprint 返回主密钥指纹（HASH160 前 4 字节）
func (s *SoftwareSigner) MasterFingerprint() ([]byte, error) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: signer closed", ErrUnavailable)
	}

	pub, err := s.masterKey.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
	}
	return btcutil.Hash160(pub.SerializeCompressed())[:4], nil
}

// LoginXpub 派生规范登录密钥的扩展公钥（LoginPath）
func (s *SoftwareSigner) LoginXpub(ctx context.Context) (string, error) {
	return s.GetBIP32Xpub(ctx, LoginPath)
}

// ClientSecretXpub 派生客户端秘密密钥的扩展公钥（ClientSecretPath）
//
// 路径含硬化索引，仅含公钥的签名器返回 ErrDerivation。
func (s *SoftwareSigner) ClientSecretXpub(ctx context.Context) (string, error) {
	return s.GetBIP32Xpub(ctx, ClientSecretPath)
}

// Close 擦除助记词、主密钥与盲化密钥
func (s *SoftwareSigner) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.masterKey != nil {
		s.masterKey.Zero()
		s.masterKey = nil
	}
	s.mnemonic.Clear()
	s.mnemonic = nil
	s.encrypted = nil
	s.blind.clear()
	return nil
}

// derive 沿路径派生子密钥，中间密钥随派生擦除
//
// 调用方负责擦除返回的密钥（主密钥本身除外）。
func (s *SoftwareSigner) derive(path types.DerivationPath) (*hdkeychain.ExtendedKey, error) {
	key := s.masterKey
	for _, index := range path {
		child, err := key.Derive(index)
		if key != s.masterKey {
			key.Zero()
		}
		if err != nil {
			if errors.Is(err, hdkeychain.ErrDeriveHardFromPublic) {
				return nil, fmt.Errorf("%w: hardened derivation requires a private key", ErrDerivation)
			}
			return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
		}
		key = child
	}
	return key, nil
}
