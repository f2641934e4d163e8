package validate

import (
	"net/http"
	"testing"

	"github.com/agrismart/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Kind     string `json:"kind" validate:"omitempty,oneof=delivery pickup"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		req  loginReq
		msg  string
	}{
		{"ok", loginReq{Email: "a@b.com", Password: "secret1"}, ""},
		{"missing email", loginReq{Password: "secret1"}, "email is required"},
		{"bad email", loginReq{Email: "nope", Password: "secret1"}, "email must be a valid email address"},
		{"short password", loginReq{Email: "a@b.com", Password: "123"}, "password must be at least 6 characters long"},
		{"bad kind", loginReq{Email: "a@b.com", Password: "secret1", Kind: "air"}, "kind must be one of [delivery pickup]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
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
