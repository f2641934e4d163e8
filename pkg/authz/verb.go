package authz

import (
	"strings"

	"github.com/agrismart/pkg/errors"
)

// Verb 权限动作
type Verb string

const (
	VerbRead     Verb = "read"
	VerbCreate   Verb = "create"
	VerbUpdate   Verb = "update"
	VerbDelete   Verb = "delete"
	VerbDownload Verb = "download"
)

// Verbs 固定的校验顺序
var Verbs = []Verb{VerbRead, VerbCreate, VerbUpdate, VerbDelete, VerbDownload}

// ParseVerb 解析动作，只接受五种固定值
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Verbs {
		if v == known {
			return v, nil
		}
	}
	return "", errors.BadRequest("Unknown permission verb: " + s)
}

// Title 首字母大写形式，用于错误消息
func (v Verb) Title() string {
	if v == "" {
		return ""
	}
	return strings.ToUpper(string(v[:1])) + string(v[1:])
}

// NormalizeCode 权益编码统一转大写，所有写入和查询路径都经过这里
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
