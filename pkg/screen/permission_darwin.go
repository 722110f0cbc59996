//go:build darwin

package screen

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

// 未授权时窗口列表中拿不到其他应用的窗口名
int canRecordScreen() {
    if (@available(macOS 10.15, *)) {
        CFArrayRef windows = CGWindowListCopyWindowInfo(
            kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
            kCGNullWindowID
        );
        if (windows == NULL) {
            return 0;
        }

        CFIndex count = CFArrayGetCount(windows);
        int named = 0;
        for (CFIndex i = 0; i < count; i++) {
            CFDictionaryRef w = (CFDictionaryRef)CFArrayGetValueAtIndex(windows, i);
            CFStringRef name = (CFStringRef)CFDictionaryGetValue(w, kCGWindowName);
            if (name != NULL && CFStringGetLength(name) > 0) {
                named = 1;
                break;
            }
        }
        CFRelease(windows);
        return (count == 0 || named) ? 1 : 0;
    }
    return 1;
}

void openScreenCaptureSettings() {
    NSString *url = @"x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture";
    [[NSWorkspace sharedWorkspace] openURL:[NSURL URLWithString:url]];
}
*/
import "C"

// CanRecordScreen 检查是否已授予屏幕录制权限（不触发弹窗）
func CanRecordScreen() bool {
	return C.canRecordScreen() == 1
}

// OpenPermissionSettings 打开系统设置中的屏幕录制页面
func OpenPermissionSettings() {
	C.openScreenCaptureSettings()
}

// PermissionHint 返回缺少权限时的提示
func PermissionHint() string {
	if CanRecordScreen() {
		return ""
	}
	return "缺少屏幕录制权限: 请在 系统设置 > 隐私与安全性 > 屏幕录制 中授权，授权后需要重启应用"
}
