package ncc

import "strings"

// Strategy 边界策略，决定窗口越过网格边缘时索引如何解析
type Strategy int

const (
	// Default 不允许越界，窗口必须完全位于网格内
	Default Strategy = iota
	// Wrap 环绕，网格视为环面
	Wrap
	// Mirror 镜像反射
	Mirror
)

// ParseStrategy 解析策略字符串
// "wrap" / "mirror" 之外的任何值（包括空串）都回退为 Default
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap":
		return Wrap
	case "mirror":
		return Mirror
	default:
		return Default
	}
}

func (s Strategy) String() string {
	switch s.normalize() {
	case Wrap:
		return "wrap"
	case Mirror:
		return "mirror"
	default:
		return "default"
	}
}

// normalize 未知取值按 Default 处理
func (s Strategy) normalize() Strategy {
	switch s {
	case Wrap, Mirror:
		return s
	default:
		return Default
	}
}

// Resolve 将 index 解析为 [0, maxLength) 内的实际索引
// Default 策略下原样返回
func (s Strategy) Resolve(index, maxLength int) int {
	switch s.normalize() {
	case Wrap:
		return WrapIndex(index, maxLength)
	case Mirror:
		return MirrorIndex(index, maxLength)
	default:
		return index
	}
}

// WrapIndex 环绕索引: index mod maxLength
func WrapIndex(index, maxLength int) int {
	return index % maxLength
}

// MirrorIndex 镜像索引
// index >= maxLength 时反射为 maxLength - 2 - (index mod maxLength)，
// 第一次反射不会再次落到边缘像素上。maxLength == 1 时恒为 0。
func MirrorIndex(index, maxLength int) int {
	if maxLength == 1 {
		return 0
	}
	if index >= maxLength {
		return maxLength - 2 - index%maxLength
	}
	return index
}
