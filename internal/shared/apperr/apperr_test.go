package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("upstream 503")
	cases := []struct {
		err  error
		want int
	}{
		{InvalidErr("bad", nil), http.StatusBadRequest},
		{UnauthorizedErr("login"), http.StatusUnauthorized},
		{ForbiddenErr("no"), http.StatusForbidden},
		{NotFoundErr("gone"), http.StatusNotFound},
		{ConflictErr("busy"), http.StatusConflict},
		{GatewayErr("down", cause), http.StatusBadGateway},
		{Wrap(cause), http.StatusInternalServerError},
		{cause, http.StatusInternalServerError},
		{fmt.Errorf("handler: %w", NotFoundErr("gone")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp 10.1.2.3:3306: refused"))
	assert.Equal(t, genericMsg, PublicMessage(err))
	assert.Equal(t, genericMsg, PublicMessage(errors.New("raw")))
	assert.Equal(t, "Order not found.", PublicMessage(NotFoundErr("Order not found.")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := GatewayErr("down", cause)
	assert.ErrorIs(t, err, cause)

	ae, ok := As(fmt.Errorf("ctx: %w", err))
	require.True(t, ok)
	assert.Equal(t, Gateway, ae.Kind)

	assert.Nil(t, Wrap(nil))
}
