package pyckson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelSimpleClass(t *testing.T) {
	type Foo struct {
		Bar string
	}

	model, err := Model(Foo{})
	require.NoError(t, err)
	require.Len(t, model.Attributes, 1)
	require.Equal(t, "Bar", model.Attributes[0].Name)
	require.Equal(t, "Bar", model.Attributes[0].ExternalName)
	require.Equal(t, KindString, model.Attributes[0].Desc.Kind)
	require.False(t, model.Attributes[0].Optional)
}

func TestModelIsCached(t *testing.T) {
	type Foo struct {
		Bar string
	}

	first, err := Model(Foo{})
	require.NoError(t, err)

	second, err := Model(Foo{})
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestModelDeterministic(t *testing.T) {
	type Foo struct {
		A string
		B int
		C []bool
	}

	cold := NewRegistry()
	warm := NewRegistry()

	coldModel, err := cold.Model(Foo{})
	require.NoError(t, err)

	warmModel, err := warm.Model(Foo{})
	require.NoError(t, err)

	require.Equal(t, len(coldModel.Attributes), len(warmModel.Attributes))
	for idx := range coldModel.Attributes {
		require.Equal(t, coldModel.Attributes[idx].ExternalName, warmModel.Attributes[idx].ExternalName)
		require.Equal(t, coldModel.Attributes[idx].Desc.Kind, warmModel.Attributes[idx].Desc.Kind)
	}
}

func TestModel_TagAlias(t *testing.T) {
	type Foo struct {
		AgeInYears int64 `json:"age"`
	}

	model, err := Model(Foo{})
	require.NoError(t, err)
	require.Equal(t, "age", model.Attributes[0].ExternalName)
}

func TestModel_TagSkip(t *testing.T) {
	type Foo struct {
		Bar      string
		SkipThis string `json:"-"`
	}

	model, err := Model(Foo{})
	require.NoError(t, err)
	require.Len(t, model.Attributes, 1)
	require.Equal(t, "Bar", model.Attributes[0].ExternalName)
}

func TestModel_UnexportedFieldSkipped(t *testing.T) {
	type Foo struct {
		Bar  string
		note string
	}

	_ = Foo{note: ""}

	model, err := Model(Foo{})
	require.NoError(t, err)
	require.Len(t, model.Attributes, 1)
}

func TestModel_NamingRule(t *testing.T) {
	type Account struct {
		UserId    string
		CreatedAt string
	}

	r := NewRegistry()
	r.RegisterNamingRule(Account{}, CamelCase)

	model, err := r.Model(Account{})
	require.NoError(t, err)
	require.Equal(t, "userId", model.Attributes[0].ExternalName)
	require.Equal(t, "createdAt", model.Attributes[1].ExternalName)
}

func TestModel_CasingCollisionFailsAtBuildTime(t *testing.T) {
	type Clash struct {
		UserId string
		UserID string
	}

	r := NewRegistry()
	r.RegisterNamingRule(Clash{}, SnakeCase)

	_, err := r.Model(Clash{})

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
	require.Equal(t, "user_id", confErr.Field)
}

func TestModel_DuplicateExplicitNames(t *testing.T) {
	type Foo struct {
		A string `json:"x"`
		B string `json:"x"`
	}

	_, err := Model(Foo{})

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestModel_ExplicitTagWinsOverImplicit(t *testing.T) {
	type Foo struct {
		A string
		B string `json:"A"`
	}

	model, err := Model(Foo{})
	require.NoError(t, err)
	require.Len(t, model.Attributes, 1)
	require.Equal(t, "B", model.Attributes[0].Name)
}

func TestModel_EmbeddedStructFlattened(t *testing.T) {
	type Base struct {
		Id string
	}
	type Entity struct {
		Base
		Name string
	}

	model, err := Model(Entity{})
	require.NoError(t, err)
	require.Len(t, model.Attributes, 2)
	require.Equal(t, "Name", model.Attributes[0].ExternalName)
	require.Equal(t, "Id", model.Attributes[1].ExternalName)
	require.Equal(t, []int{0, 0}, model.Attributes[1].Index)
}

func TestModel_RejectsNonStruct(t *testing.T) {
	r := NewRegistry()

	var n int
	err := r.Parse(map[string]any{}, &n)

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestModel_UnsupportedFieldType(t *testing.T) {
	type Foo struct {
		C chan int
	}

	_, err := Model(Foo{})

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
	require.Equal(t, "C", confErr.Field)
}

func TestModel_UnregisteredInterfaceField(t *testing.T) {
	type Foo struct {
		V interface{ private() }
	}

	_, err := Model(Foo{})

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestModel_NestedClassShapeErrorSurfacesAtBuildTime(t *testing.T) {
	type Inner struct {
		C chan int
	}
	type Outer struct {
		In Inner
	}

	_, err := Model(Outer{})

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestModel_DefaultMakesFieldOptional(t *testing.T) {
	type Foo struct {
		Count int
	}

	r := NewRegistry()
	r.RegisterDefault(Foo{}, "Count", 7)

	model, err := r.Model(Foo{})
	require.NoError(t, err)
	require.True(t, model.Attributes[0].Optional)
	require.True(t, model.Attributes[0].HasDefault)
}

func TestModel_DefaultOfWrongTypeRejected(t *testing.T) {
	type Foo struct {
		Count int
	}

	r := NewRegistry()
	r.RegisterDefault(Foo{}, "Count", "seven")

	_, err := r.Model(Foo{})

	var confErr ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestModel_LateRegistrationPanics(t *testing.T) {
	type Foo struct {
		Bar string
	}

	r := NewRegistry()
	_, err := r.Model(Foo{})
	require.NoError(t, err)

	require.Panics(t, func() {
		r.RegisterDefault(Foo{}, "Bar", "late")
	})
}
