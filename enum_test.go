package pyckson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type severity int

const (
	low severity = iota + 1
	high
)

type color string

func TestEnumByName(t *testing.T) {
	type Alert struct {
		Level severity `json:"level"`
	}

	r := NewRegistry()
	RegisterEnumWith(r, map[string]severity{"LOW": low, "HIGH": high})

	alert, err := ParseNewWith[Alert](r, map[string]any{"level": "HIGH"})
	require.NoError(t, err)
	require.Equal(t, high, alert.Level)

	_, err = ParseNewWith[Alert](r, map[string]any{"level": "high"})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)

	_, err = ParseNewWith[Alert](r, map[string]any{"level": "BOGUS"})
	require.ErrorAs(t, err, &mismatch)
}

func TestEnumCaseInsensitive(t *testing.T) {
	type Paint struct {
		Color color `json:"color"`
	}

	r := NewRegistry()
	RegisterEnumWith(r, map[string]color{"RED": "red", "BLUE": "blue"}, CaseInsensitiveNames())

	paint, err := ParseNewWith[Paint](r, map[string]any{"color": "red"})
	require.NoError(t, err)
	require.Equal(t, color("red"), paint.Color)

	paint, err = ParseNewWith[Paint](r, map[string]any{"color": "BlUe"})
	require.NoError(t, err)
	require.Equal(t, color("blue"), paint.Color)

	_, err = ParseNewWith[Paint](r, map[string]any{"color": "GREEN"})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestEnumByValue(t *testing.T) {
	type Alert struct {
		Level severity `json:"level"`
	}

	r := NewRegistry()
	RegisterEnumWith(r, map[string]severity{"LOW": low, "HIGH": high}, MatchByValue())

	alert, err := ParseNewWith[Alert](r, map[string]any{"level": 1})
	require.NoError(t, err)
	require.Equal(t, low, alert.Level)

	_, err = ParseNewWith[Alert](r, map[string]any{"level": 99})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)

	// a name is not a value in this mode
	_, err = ParseNewWith[Alert](r, map[string]any{"level": "LOW"})
	require.ErrorAs(t, err, &mismatch)
}

func TestEnumRejectsNonString(t *testing.T) {
	type Alert struct {
		Level severity `json:"level"`
	}

	r := NewRegistry()
	RegisterEnumWith(r, map[string]severity{"LOW": low})

	_, err := ParseNewWith[Alert](r, map[string]any{"level": 1})

	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestEnumInList(t *testing.T) {
	type Alert struct {
		Levels []severity `json:"levels"`
	}

	r := NewRegistry()
	RegisterEnumWith(r, map[string]severity{"LOW": low, "HIGH": high})

	alert, err := ParseNewWith[Alert](r, map[string]any{"levels": []any{"LOW", "HIGH"}})
	require.NoError(t, err)
	require.Equal(t, []severity{low, high}, alert.Levels)
}

func TestEnumRegistrationAfterTypeResolvedPanics(t *testing.T) {
	type mood int
	type Diary struct {
		Mood mood `json:"mood"`
	}

	r := NewRegistry()

	// mood resolved as a plain integer here; a later enum registration
	// could never reach the cached model
	_, err := r.Model(Diary{})
	require.NoError(t, err)

	require.Panics(t, func() {
		RegisterEnumWith(r, map[string]mood{"CALM": 1})
	})
}

func TestEnumDuplicateRegistrationPanics(t *testing.T) {
	r := NewRegistry()
	RegisterEnumWith(r, map[string]severity{"LOW": low})

	require.Panics(t, func() {
		RegisterEnumWith(r, map[string]severity{"HIGH": high})
	})
}
