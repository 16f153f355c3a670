package types

// LiquidSupportLevel 机密资产链支持级别
type LiquidSupportLevel uint32

const (
	// LiquidSupportNone 不支持机密资产链
	LiquidSupportNone LiquidSupportLevel = 0
	// LiquidSupportLite 支持机密资产链，解盲在主机侧完成
	LiquidSupportLite LiquidSupportLevel = 1
)

// String 返回支持级别的字符串表示
func (l LiquidSupportLevel) String() string {
	switch l {
	case LiquidSupportLite:
		return "lite"
	default:
		return "none"
	}
}

// ParseLiquidSupportLevel 解析支持级别字符串
func ParseLiquidSupportLevel(s string) LiquidSupportLevel {
	if s == "lite" {
		return LiquidSupportLite
	}
	return LiquidSupportNone
}

// AESupportLevel Anti-Exfil 签名协议支持级别
type AESupportLevel uint32

const (
	// AESupportNone 不支持 AE 协议，仅产生普通确定性签名
	AESupportNone AESupportLevel = 0
	// AESupportOptional AE 与普通签名均可，由调用方选择
	AESupportOptional AESupportLevel = 1
	// AESupportMandatory 强制 AE 协议，禁止普通签名
	AESupportMandatory AESupportLevel = 2
)

// String 返回支持级别的字符串表示
func (a AESupportLevel) String() string {
	switch a {
	case AESupportOptional:
		return "optional"
	case AESupportMandatory:
		return "mandatory"
	default:
		return "none"
	}
}

// ParseAESupportLevel 解析支持级别字符串
func ParseAESupportLevel(s string) AESupportLevel {
	switch s {
	case "optional":
		return AESupportOptional
	case "mandatory":
		return AESupportMandatory
	default:
		return AESupportNone
	}
}

// Capabilities 签名器能力描述符
//
// 构造时从变体与链参数（硬件变体另加设备声明）计算一次，
// 对象存续期内不再变化。纯数据，无行为。
type Capabilities struct {
	LowR             bool               `json:"low_r"`             // 是否只产生 low-r 签名
	ArbitraryScripts bool               `json:"arbitrary_scripts"` // 是否支持任意脚本签名
	Liquid           LiquidSupportLevel `json:"liquid"`            // 机密资产支持级别
	HostUnblinding   bool               `json:"host_unblinding"`   // 是否支持主机侧解盲
	AEProtocol       AESupportLevel     `json:"ae_protocol"`       // Anti-Exfil 协议支持级别
}
