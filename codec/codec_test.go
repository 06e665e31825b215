package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestCodecs_RoundTrip(t *testing.T) {
	in := payload{Name: "tile-7", Values: []float64{1.5, -2, 0.25}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			require.Equal(t, in, out)
		})
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	require.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	require.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	require.False(t, ok)
}

func TestMustMarshal(t *testing.T) {
	data := MustMarshal(nil, payload{Name: "x"})
	require.Contains(t, string(data), `"x"`)
}

func TestDefault(t *testing.T) {
	require.NotNil(t, Default)

	data, err := Default.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(data))
}
