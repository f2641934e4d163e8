package authz

import (
	"fmt"

	"github.com/agrismart/pkg/errors"
)

// Grant 用户权限快照中的一项
type Grant struct {
	EntitlementCode string      `json:"entitlementCode"`
	ModuleName      string      `json:"moduleName"`
	Permissions     Permissions `json:"permissions"`
}

// RoleEntry 角色定义中的一项权益
type RoleEntry struct {
	EntitlementCode string  `json:"entitlementCode"`
	EntitlementName string  `json:"entitlementName"`
	ModuleCode      string  `json:"moduleCode"`
	ModuleName      string  `json:"moduleName"`
	Permissions     FlagSet `json:"permissions"`
}

// Normalize 统一编码大小写
func (e RoleEntry) Normalize() RoleEntry {
	e.EntitlementCode = NormalizeCode(e.EntitlementCode)
	e.ModuleCode = NormalizeCode(e.ModuleCode)
	return e
}

// SnapshotOf 将角色定义投影为用户快照，仅在分配时调用，之后不再随角色变化
func SnapshotOf(entries []RoleEntry) []Grant {
	grants := make([]Grant, 0, len(entries))
	for _, e := range entries {
		grants = append(grants, Grant{
			EntitlementCode: NormalizeCode(e.EntitlementCode),
			ModuleName:      e.ModuleName,
			Permissions:     e.Permissions.Allowed(),
		})
	}
	return grants
}

// FindGrant 按编码查找快照项，大小写不敏感
func FindGrant(grants []Grant, code string) (Grant, bool) {
	code = NormalizeCode(code)
	for _, g := range grants {
		if NormalizeCode(g.EntitlementCode) == code {
			return g, true
		}
	}
	return Grant{}, false
}

// CheckCeiling 校验角色定义不超过店铺授权上限
// ceilings 以规范化编码为键；按 read, create, update, delete, download 顺序报告第一个违规
func CheckCeiling(entries []RoleEntry, ceilings map[string]Permissions) error {
	for _, e := range entries {
		code := NormalizeCode(e.EntitlementCode)
		allowed, ok := ceilings[code]
		if !ok {
			return errors.BadRequest(fmt.Sprintf("Entitlement %s is not assigned to this shop", code))
		}
		for _, v := range Verbs {
			if e.Permissions.Get(v).IsAllowed && !allowed.Has(v) {
				return errors.BadRequest(fmt.Sprintf("%s permission not allowed for %s", v.Title(), code))
			}
		}
	}
	return nil
}
