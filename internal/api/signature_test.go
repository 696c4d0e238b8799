package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSignature(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		secret string
		want   string
	}{
		{"plain body", "test_body_data", "secret_key_123", "NNHJ4xVm7hVYYJCt1423/JOFM8wAS4Agb+aupHvmUrc="},
		{"empty body", "", "secret_key_123", "m2n3KQqYdgD7QrqDszcRddV0COjfY9Ys3kfGyCUhyXE="},
		{"other secret", "test_body_data", "different_secret", "J50Of58Cl9A+bjzUPfSk3GxQ/A6kiF1l5fNAKU76zSU="},
		{"json body", `{"field": "value", "count": 100}`, "super_secure_key", "gOgg3Nwl/M8yr4FOmEhUNhx5EIRyToqbspT+ewM4rK4="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSignature([]byte(tt.body), tt.secret))
		})
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event_id":"evt-1"}`)
	sig := ComputeSignature(body, "secret")

	assert.True(t, VerifySignature(body, "secret", sig))
	assert.False(t, VerifySignature(body, "other", sig))
	assert.False(t, VerifySignature([]byte("corrupted body"), "secret", sig))
	assert.False(t, VerifySignature(body, "secret", ""))
}
