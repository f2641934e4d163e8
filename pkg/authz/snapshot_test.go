package authz

import (
	"net/http"
	"testing"

	"github.com/agrismart/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOf_KeepsOnlyIsAllowed(t *testing.T) {
	entries := []RoleEntry{{
		EntitlementCode: "ord_mgmt",
		ModuleName:      "Orders",
		Permissions: FlagSet{
			Read:   PermissionFlags{Enabled: true, IsAllowed: true},
			Create: PermissionFlags{Enabled: true, IsAllowed: false},
			Delete: PermissionFlags{Enabled: false, IsAllowed: false},
		},
	}}

	got := SnapshotOf(entries)
	require.Len(t, got, 1)
	assert.Equal(t, Grant{
		EntitlementCode: "ORD_MGMT",
		ModuleName:      "Orders",
		Permissions:     Permissions{Read: true},
	}, got[0])

	// 修改角色定义不影响已生成的快照
	entries[0].Permissions.Create.IsAllowed = true
	assert.False(t, got[0].Permissions.Create)
}

func TestCheckCeiling(t *testing.T) {
	ceilings := map[string]Permissions{
		"INV_MGMT": {Read: true, Create: true, Update: true},
	}

	tests := []struct {
		name  string
		entry RoleEntry
		msg   string
	}{
		{
			name:  "within ceiling",
			entry: RoleEntry{EntitlementCode: "inv_mgmt", Permissions: FlagSet{Read: PermissionFlags{Enabled: true, IsAllowed: true}}},
		},
		{
			name:  "not assigned",
			entry: RoleEntry{EntitlementCode: "analytics", Permissions: FlagSet{Read: PermissionFlags{IsAllowed: true}}},
			msg:   "Entitlement ANALYTICS is not assigned to this shop",
		},
		{
			name:  "delete exceeds",
			entry: RoleEntry{EntitlementCode: "INV_MGMT", Permissions: FlagSet{Delete: PermissionFlags{Enabled: true, IsAllowed: true}}},
			msg:   "Delete permission not allowed for INV_MGMT",
		},
		{
			name: "first violation in verb order",
			entry: RoleEntry{EntitlementCode: "INV_MGMT", Permissions: FlagSet{
				Delete:   PermissionFlags{IsAllowed: true},
				Download: PermissionFlags{IsAllowed: true},
			}},
			msg: "Delete permission not allowed for INV_MGMT",
		},
		{
			name:  "enabled without isAllowed is fine",
			entry: RoleEntry{EntitlementCode: "INV_MGMT", Permissions: FlagSet{Download: PermissionFlags{Enabled: true}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCeiling([]RoleEntry{tt.entry}, ceilings)
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))
			assert.Equal(t, tt.msg, errors.GetMessage(err))
		})
	}
}

func TestParseVerbAndNormalize(t *testing.T) {
	v, err := ParseVerb(" Download ")
	require.NoError(t, err)
	assert.Equal(t, VerbDownload, v)
	assert.Equal(t, "Download", v.Title())

	_, err = ParseVerb("approve")
	assert.Error(t, err)

	assert.Equal(t, "INV_MGMT", NormalizeCode("  inv_Mgmt "))
}

func TestDefaultApplicable(t *testing.T) {
	assert.Equal(t, Permissions{Read: true, Create: true, Update: true, Delete: true}, DefaultApplicable().Enabled())
}
