//go:build !darwin

package screen

// CanRecordScreen 检查是否已授予屏幕录制权限
// 非 macOS 系统不需要特殊权限
func CanRecordScreen() bool {
	return true
}

// OpenPermissionSettings 打开系统设置中的屏幕录制页面
func OpenPermissionSettings() {}

// PermissionHint 返回缺少权限时的提示
func PermissionHint() string {
	return ""
}
