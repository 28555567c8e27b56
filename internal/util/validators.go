package util

import (
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidatePastDate 验证日期是否在过去（出生日期必须早于当前时间）。
// 字段可以是 time.Time，也可以是 2006-01-02 格式的字符串。
func ValidatePastDate(fl validator.FieldLevel) bool {
	switch value := fl.Field().Interface().(type) {
	case time.Time:
		return value.Before(time.Now())
	case string:
		date, err := time.Parse("2006-01-02", value)
		if err != nil {
			return false
		}
		return date.Before(time.Now())
	}
	return false
}

// ValidateStrongPassword 验证密码强度：至少8位，包含大写、小写、数字和特殊字符
func ValidateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case ch == '@' || ch == '$' || ch == '!' || ch == '%' || ch == '*' || ch == '?' || ch == '&':
			hasSpecial = true
		default:
			// 远程 API 只接受上述字符集
			return false
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}
