// Package validate 注册预约相关的自定义 binding 校验标签
package validate

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"room-booking/internal/scheduling"
)

// Register 注册 clock（HH:MM）与 weekday（1=周一 … 7=周日）
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding 引擎不是 validator.Validate")
	}
	if err := v.RegisterValidation("clock", isClock); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", isWeekday)
}

func isClock(fl validator.FieldLevel) bool {
	_, err := scheduling.ParseClock(fl.Field().String())
	return err == nil
}

func isWeekday(fl validator.FieldLevel) bool {
	d := fl.Field().Int()
	return d >= 1 && d <= 7
}
