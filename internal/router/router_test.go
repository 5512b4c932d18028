package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

func TestRoute(t *testing.T) {
	r := New(registry.Default())

	t.Run("database migration goes to the foundation guardian", func(t *testing.T) {
		res := r.Route("fix the database migration pipeline")

		assert.Equal(t, "lyssandria", res.Persona.ID)
		// 3 exact hits + 3 substring hits at half weight, over a floor of 5
		assert.InDelta(t, 0.9, res.Confidence, 1e-9)
		assert.Equal(t, "earth", res.Element)
		assert.Equal(t, "Strong match for Lyssandria (Foundation Architect). Domain: Earth, survival, security.", res.Reasoning)

		require.Len(t, res.Alternatives, 3)
		for _, alt := range res.Alternatives {
			assert.NotEqual(t, "lyssandria", alt.Persona.ID)
			assert.Less(t, alt.Confidence, res.Confidence)
		}
	})

	t.Run("design work goes to the flow guardian", func(t *testing.T) {
		res := r.Route("Design a beautiful landing page")
		assert.Equal(t, "leyla", res.Persona.ID)
		assert.InDelta(t, 0.6, res.Confidence, 1e-9)
		assert.Equal(t, "water", res.Element)
		assert.Contains(t, res.Reasoning, "Leyla is the best fit for this task.")
	})

	t.Run("documentation ranks alternatives by score", func(t *testing.T) {
		res := r.Route("write the api documentation")
		assert.Equal(t, "alera", res.Persona.ID)
		assert.Equal(t, "wind", res.Element)
		require.Len(t, res.Alternatives, 3)
		assert.Equal(t, "maylinn", res.Alternatives[0].Persona.ID)
		assert.InDelta(t, 0.3, res.Alternatives[0].Confidence, 1e-9)
	})

	t.Run("no keywords falls back to the first guardian", func(t *testing.T) {
		res := r.Route("hello there")
		assert.Equal(t, "lyssandria", res.Persona.ID)
		assert.Zero(t, res.Confidence)
		assert.Equal(t, DefaultElement, res.Element)
		assert.Equal(t, "Routing to Lyssandria as default. Consider being more specific about your intent.", res.Reasoning)
	})

	t.Run("empty input", func(t *testing.T) {
		res := r.Route("")
		assert.Equal(t, "lyssandria", res.Persona.ID)
		assert.Len(t, res.Alternatives, 3)
	})
}

func TestRouteIsDeterministic(t *testing.T) {
	r := New(registry.Default())
	inputs := []string{
		"ship it fast",
		"help me heal the team after a rough sprint",
		"name the new module and document the api",
	}
	for _, in := range inputs {
		first := r.Route(in)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, r.Route(in))
		}
	}
}

func TestRank(t *testing.T) {
	r := New(registry.Default())
	ranked := r.Rank("ship it fast")
	require.Len(t, ranked, 4)
	assert.Equal(t, "draconia", ranked[0].Persona.ID)
	assert.InDelta(t, 0.6, ranked[0].Confidence, 1e-9)
}

func TestChannel(t *testing.T) {
	r := New(registry.Default())

	p, err := r.Channel("Shinkami")
	require.NoError(t, err)
	assert.Equal(t, "shinkami", p.ID)

	_, err = r.Channel("merlin")
	var upe *registry.UnknownPersonaError
	require.True(t, errors.As(err, &upe))
	assert.Contains(t, err.Error(), "lyssandria")
}

func TestTieBreakByRegistryOrder(t *testing.T) {
	reg, err := registry.Load([]byte(`personas:
  - id: first
    keywords: [shared]
  - id: second
    keywords: [shared]
`), []byte("providers: []\n"))
	require.NoError(t, err)

	res := New(reg).Route("shared")
	assert.Equal(t, "first", res.Persona.ID)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "second", res.Alternatives[0].Persona.ID)
	assert.Equal(t, res.Confidence, res.Alternatives[0].Confidence)
}
