package pyckson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type shape interface {
	isShape()
}

type circle struct {
	Radius float64 `json:"radius"`
}

func (circle) isShape() {}

type caption string

func (caption) isShape() {}

type badge struct {
	Id int `json:"id"`
}

func (badge) isShape() {}

func TestUnionOfInterface(t *testing.T) {
	type Drawing struct {
		Shape shape `json:"shape"`
	}

	r := NewRegistry()
	RegisterUnionWith[shape](r, circle{}, caption(""))

	drawing, err := ParseNewWith[Drawing](r, map[string]any{
		"shape": map[string]any{"radius": 2.5},
	})
	require.NoError(t, err)
	require.Equal(t, circle{Radius: 2.5}, drawing.Shape)

	drawing, err = ParseNewWith[Drawing](r, map[string]any{"shape": "hello"})
	require.NoError(t, err)
	require.Equal(t, caption("hello"), drawing.Shape)

	_, err = ParseNewWith[Drawing](r, map[string]any{"shape": true})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestUnionField_StringOrNestedClass(t *testing.T) {
	type Attachment struct {
		Url string `json:"url"`
	}
	type Message struct {
		Payload any `json:"payload"`
	}

	r := NewRegistry()
	r.RegisterUnionField(Message{}, "Payload", "", Attachment{})

	message, err := ParseNewWith[Message](r, map[string]any{"payload": "plain text"})
	require.NoError(t, err)
	require.Equal(t, "plain text", message.Payload)

	message, err = ParseNewWith[Message](r, map[string]any{
		"payload": map[string]any{"url": "https://example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, Attachment{Url: "https://example.com"}, message.Payload)

	_, err = ParseNewWith[Message](r, map[string]any{"payload": 42})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestUnionDeclarationOrderBreaksTies(t *testing.T) {
	type Value struct {
		V any `json:"v"`
	}

	r := NewRegistry()
	r.RegisterUnionField(Value{}, "V", int(0), float64(0))

	value, err := ParseNewWith[Value](r, map[string]any{"v": 3})
	require.NoError(t, err)
	require.Equal(t, 3, value.V)

	// not an integral number, so only the second alternative accepts it
	value, err = ParseNewWith[Value](r, map[string]any{"v": 3.5})
	require.NoError(t, err)
	require.Equal(t, 3.5, value.V)
}

func TestUnionRequiresInterface(t *testing.T) {
	require.Panics(t, func() {
		RegisterUnionWith[string](NewRegistry(), "a")
	})
}

func TestUnionErrorNamesTheUnion(t *testing.T) {
	type Drawing struct {
		Shape shape `json:"shape"`
	}

	r := NewRegistry()
	RegisterUnionWith[shape](r, circle{})

	_, err := ParseNewWith[Drawing](r, map[string]any{"shape": 42})
	require.Error(t, err)
	require.Contains(t, err.Error(), "union")
}
