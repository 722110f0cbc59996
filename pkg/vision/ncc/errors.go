package ncc

import "fmt"

// PreconditionError 前置条件违反（编程错误，不可恢复）
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("ncc.%s: %s", e.Op, e.Reason)
}

func fail(op, format string, args ...interface{}) {
	panic(&PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)})
}

// checkWindow 校验窗口放置是否合法
func checkWindow(op string, grid *Grid, row, col, width, height int, strategy Strategy) {
	if grid == nil {
		fail(op, "网格为空")
	}
	if width < 1 || height < 1 {
		fail(op, "窗口尺寸必须大于 0: width=%d, height=%d", width, height)
	}
	if width > grid.width || height > grid.height {
		fail(op, "窗口 %dx%d 大于网格 %dx%d", width, height, grid.width, grid.height)
	}
	if row < 0 || col < 0 {
		fail(op, "窗口起点不能为负: row=%d, col=%d", row, col)
	}

	if strategy.normalize() == Default {
		if row+height > grid.height || col+width > grid.width {
			fail(op, "窗口越界: row=%d+%d > %d 或 col=%d+%d > %d",
				row, height, grid.height, col, width, grid.width)
		}
		return
	}

	if row >= grid.height || col >= grid.width {
		fail(op, "起点超出网格: row=%d >= %d 或 col=%d >= %d", row, grid.height, col, grid.width)
	}
}

// Validate 校验模板与场景的尺寸关系
// 供 API 边界在调用核心算法前把前置条件转换为普通错误
func Validate(pattern, scene *Grid) error {
	if err := validateShapes("Validate", pattern, scene); err != nil {
		return err
	}
	return nil
}

func validateShapes(op string, pattern, scene *Grid) *PreconditionError {
	if pattern == nil || scene == nil {
		return &PreconditionError{Op: op, Reason: "模板或场景为空"}
	}
	if pattern.width > scene.width || pattern.height > scene.height {
		reason := fmt.Sprintf("模板 %dx%d 大于场景 %dx%d",
			pattern.width, pattern.height, scene.width, scene.height)
		return &PreconditionError{Op: op, Reason: reason}
	}
	return nil
}
