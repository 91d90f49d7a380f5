package types

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretString_RedactsInFormatting(t *testing.T) {
	s := SecretString("postgres://user:hunter2@db:5432/app")

	assert.Equal(t, "***REDACTED***", s.String())
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%s", s))
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%v", s))
}

func TestSecretString_RedactsInJSON(t *testing.T) {
	payload := struct {
		URL SecretString `json:"url"`
	}{URL: "postgres://user:hunter2@db:5432/app"}

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"***REDACTED***"}`, string(out))
}

func TestSecretString_Unmask(t *testing.T) {
	s := SecretString("raw-value")
	assert.Equal(t, "raw-value", s.Unmask())
}
