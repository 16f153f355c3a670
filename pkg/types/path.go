package types

import (
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset 硬化派生偏移量
//
// 按 BIP32 约定，索引最高位置位表示硬化派生。
const HardenedOffset uint32 = 0x80000000

// DerivationPath BIP32 派生路径
//
// 任意深度的派生索引序列，每个索引可选硬化（最高位置位）。
// 空路径表示主密钥 m 本身。
type DerivationPath []uint32

// Harden 返回硬化后的索引
func Harden(index uint32) uint32 {
	return index | HardenedOffset
}

// IsHardened 判断索引是否为硬化派生
func IsHardened(index uint32) bool {
	return index&HardenedOffset != 0
}

// ParseDerivationPath 解析派生路径字符串
//
// 支持格式: m/44'/0'/0'/0/0、44'/0'/0（可省略前缀 m/），
// 硬化标记接受 '、h、H 三种写法。
func ParseDerivationPath(path string) (DerivationPath, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "m/")
	path = strings.TrimPrefix(path, "M/")
	if path == "m" || path == "M" || path == "" {
		return DerivationPath{}, nil
	}

	parts := strings.Split(path, "/")
	dp := make(DerivationPath, 0, len(parts))
	for i, part := range parts {
		index, err := parsePathComponent(part)
		if err != nil {
			return nil, fmt.Errorf("invalid path component %d: %w", i, err)
		}
		dp = append(dp, index)
	}
	return dp, nil
}

// parsePathComponent 解析单个路径组件
func parsePathComponent(component string) (uint32, error) {
	if component == "" {
		return 0, fmt.Errorf("empty component")
	}

	hardened := strings.HasSuffix(component, "'") ||
		strings.HasSuffix(component, "H") ||
		strings.HasSuffix(component, "h")
	component = strings.TrimSuffix(component, "'")
	component = strings.TrimSuffix(component, "H")
	component = strings.TrimSuffix(component, "h")

	value, err := strconv.ParseUint(component, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", component)
	}
	if hardened && uint32(value) >= HardenedOffset {
		return 0, fmt.Errorf("index overflows hardened range: %s", component)
	}

	index := uint32(value)
	if hardened {
		index = Harden(index)
	}
	return index, nil
}

// String 返回路径字符串表示，如 m/44'/0'/0'/0/0
func (dp DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, index := range dp {
		if IsHardened(index) {
			fmt.Fprintf(&sb, "/%d'", index&^HardenedOffset)
		} else {
			fmt.Fprintf(&sb, "/%d", index)
		}
	}
	return sb.String()
}

// HasHardened 路径中是否包含硬化索引
func (dp DerivationPath) HasHardened() bool {
	for _, index := range dp {
		if IsHardened(index) {
			return true
		}
	}
	return false
}

// Extend 返回追加索引后的新路径（不修改原路径）
func (dp DerivationPath) Extend(indices ...uint32) DerivationPath {
	out := make(DerivationPath, 0, len(dp)+len(indices))
	out = append(out, dp...)
	out = append(out, indices...)
	return out
}

// Clone 返回路径的拷贝
func (dp DerivationPath) Clone() DerivationPath {
	out := make(DerivationPath, len(dp))
	copy(out, dp)
	return out
}
