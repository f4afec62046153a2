package pyckson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamingRules(t *testing.T) {
	require.Equal(t, "UserId", Identity("UserId"))
	require.Equal(t, "userId", CamelCase("UserId"))
	require.Equal(t, "user_id", SnakeCase("UserId"))
	require.Equal(t, "user_id", SnakeCase("UserID"))
	require.Equal(t, "UserId", PascalCase("userId"))
}

func TestRegistryDefaultNamingRule(t *testing.T) {
	type Event struct {
		EventName string
		Payload   string
	}

	r := NewRegistry()
	r.SetNamingRule(CamelCase)

	model, err := r.Model(Event{})
	require.NoError(t, err)
	require.Equal(t, "eventName", model.Attributes[0].ExternalName)
	require.Equal(t, "payload", model.Attributes[1].ExternalName)
}

func TestTagAliasBypassesRule(t *testing.T) {
	type Event struct {
		EventName string `json:"EVENT"`
	}

	r := NewRegistry()
	r.SetNamingRule(CamelCase)

	model, err := r.Model(Event{})
	require.NoError(t, err)
	require.Equal(t, "EVENT", model.Attributes[0].ExternalName)
}
