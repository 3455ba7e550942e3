package wsconn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParamsValidateDefaultsAreValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParamsValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name string
		p    *Params
	}{
		{"zero HandshakeTimeout", DefaultParams().WithHandshakeTimeout(0)},
		{"negative HandshakeTimeout", DefaultParams().WithHandshakeTimeout(-time.Second)},
		{"zero ConnectionTimeout", DefaultParams().WithConnectionTimeout(0)},
		{"negative ConnectionTimeout", DefaultParams().WithConnectionTimeout(-time.Second)},
		{"negative MaxMessageLength", DefaultParams().WithMaxMessageLength(-1)},
		{"zero PayloadBufferLength", DefaultParams().WithPayloadBufferLength(0)},
		{"negative PayloadBufferLength", DefaultParams().WithPayloadBufferLength(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.p.Validate())
		})
	}
}

func TestParamsValidateAllowsZeroMaxMessageLength(t *testing.T) {
	require.NoError(t, DefaultParams().WithMaxMessageLength(0).Validate())
}
