package signer

import "errors"

// 错误分类
//
// 本地类错误（InvalidInput/NotSupported/Derivation/Decryption/Unavailable/Conflict）
// 是确定性的，重试不会改变结果；设备类错误（DeviceUnavailable/SigningRejected/
// DeviceTimeout/DeviceBusy）可由调用方整体重试，核心不做自动重试，
// 因为设备操作通常需要用户重新确认。
var (
	// ErrInvalidInput 输入格式错误：助记词、扩展密钥、十六进制或路径非法
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSupported 操作与签名器变体或能力不兼容
	ErrNotSupported = errors.New("operation not supported")

	// ErrDerivation 派生路径无效或派生失败（如对公钥做硬化派生）
	ErrDerivation = errors.New("derivation failed")

	// ErrDecryption 密码错误，无法解密静态加密的秘密数据
	ErrDecryption = errors.New("decryption failed")

	// ErrUnavailable 请求的秘密不存在（如尚未设置主盲化密钥）
	ErrUnavailable = errors.New("not available")

	// ErrConflict 以不同的值重复设置只能设置一次的状态
	ErrConflict = errors.New("conflicting value already set")

	// ErrDeviceUnavailable 设备不可达（断开、传输失败）
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrSigningRejected 设备拒绝签名请求（用户取消）
	ErrSigningRejected = errors.New("signing rejected by device")

	// ErrDeviceTimeout 设备操作超时
	ErrDeviceTimeout = errors.New("device timed out")

	// ErrDeviceBusy 设备正忙，存在未完成的请求
	ErrDeviceBusy = errors.New("device busy")
)
