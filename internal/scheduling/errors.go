package scheduling

import "errors"

var (
	// ErrInvalidInput 日期/时刻缺失或格式错误、区间倒置、模式未知等
	ErrInvalidInput = errors.New("预约参数无效")
	// ErrConflict 候选区间与同一教室的有效预约重叠
	ErrConflict = errors.New("该时段与已有预约冲突")
)

func isConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
