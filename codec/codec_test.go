package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hit struct {
	X     [2]float64        `json:"x"`
	Tags  []string          `json:"tags"`
	Attrs map[string]string `json:"attrs"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreInterchangeable(t *testing.T) {
	in := hit{X: [2]float64{1.5, -2.25}, Tags: []string{"a", "b"}, Attrs: map[string]string{"run": "7"}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				var out hit
				require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestMustMarshalPanics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
	assert.NotPanics(t, func() { MustMarshal(nil, 1) })
}
