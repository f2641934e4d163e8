package authz

// Permissions 五个动作的布尔集合，即用户快照中的权限形态
type Permissions struct {
	Read     bool `json:"read"`
	Create   bool `json:"create"`
	Update   bool `json:"update"`
	Delete   bool `json:"delete"`
	Download bool `json:"download"`
}

// Has 是否拥有动作
func (p Permissions) Has(v Verb) bool {
	switch v {
	case VerbRead:
		return p.Read
	case VerbCreate:
		return p.Create
	case VerbUpdate:
		return p.Update
	case VerbDelete:
		return p.Delete
	case VerbDownload:
		return p.Download
	}
	return false
}

// Set 设置动作
func (p *Permissions) Set(v Verb, allowed bool) {
	switch v {
	case VerbRead:
		p.Read = allowed
	case VerbCreate:
		p.Create = allowed
	case VerbUpdate:
		p.Update = allowed
	case VerbDelete:
		p.Delete = allowed
	case VerbDownload:
		p.Download = allowed
	}
}

// Intersect 两个集合都允许的动作
func (p Permissions) Intersect(o Permissions) Permissions {
	var out Permissions
	for _, v := range Verbs {
		out.Set(v, p.Has(v) && o.Has(v))
	}
	return out
}

// Exceeding 返回 p 中超出 ceiling 的第一个动作
func (p Permissions) Exceeding(ceiling Permissions) (Verb, bool) {
	for _, v := range Verbs {
		if p.Has(v) && !ceiling.Has(v) {
			return v, true
		}
	}
	return "", false
}

// PermissionFlags 角色定义中单个动作的标记
type PermissionFlags struct {
	Enabled   bool `json:"enabled"`
	IsAllowed bool `json:"isAllowed"`
}

// FlagSet 角色定义中的五个动作
type FlagSet struct {
	Read     PermissionFlags `json:"read"`
	Create   PermissionFlags `json:"create"`
	Update   PermissionFlags `json:"update"`
	Delete   PermissionFlags `json:"delete"`
	Download PermissionFlags `json:"download"`
}

// Get 取动作标记
func (f FlagSet) Get(v Verb) PermissionFlags {
	switch v {
	case VerbRead:
		return f.Read
	case VerbCreate:
		return f.Create
	case VerbUpdate:
		return f.Update
	case VerbDelete:
		return f.Delete
	case VerbDownload:
		return f.Download
	}
	return PermissionFlags{}
}

// Allowed 折叠为布尔集合，只保留 isAllowed
func (f FlagSet) Allowed() Permissions {
	var p Permissions
	for _, v := range Verbs {
		p.Set(v, f.Get(v).IsAllowed)
	}
	return p
}

// Toggle 目录中单个动作的开关
type Toggle struct {
	Enabled bool `json:"enabled"`
}

// Applicable 权益目录声明的可用动作
type Applicable struct {
	Read     Toggle `json:"read"`
	Create   Toggle `json:"create"`
	Update   Toggle `json:"update"`
	Delete   Toggle `json:"delete"`
	Download Toggle `json:"download"`
}

// DefaultApplicable 未声明时的默认值：下载关闭，其余开启
func DefaultApplicable() Applicable {
	return Applicable{
		Read:   Toggle{Enabled: true},
		Create: Toggle{Enabled: true},
		Update: Toggle{Enabled: true},
		Delete: Toggle{Enabled: true},
	}
}

// Enabled 转为布尔集合，作为店铺授权的默认上限
func (a Applicable) Enabled() Permissions {
	return Permissions{
		Read:     a.Read.Enabled,
		Create:   a.Create.Enabled,
		Update:   a.Update.Enabled,
		Delete:   a.Delete.Enabled,
		Download: a.Download.Enabled,
	}
}
