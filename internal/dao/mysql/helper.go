package mysql

import (
	"errors"
	"strings"

	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"gorm.io/gorm"
)

// wrapDBError 包装数据库错误
//   - ErrRecordNotFound -> CodeNotFound
//   - ErrDuplicatedKey -> CodeConflict
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errorx.Wrap(err, codeOf(err), msg)
}

// wrapDBErrorf 功能同 wrapDBError，支持格式化消息
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errorx.Wrapf(err, codeOf(err), format, args...)
}

func codeOf(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorx.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errorx.CodeConflict
	default:
		return errorx.CodeDBError
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 构造 LIKE 子串匹配模式，转义通配符
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
