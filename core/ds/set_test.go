package ds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_AddRemove(t *testing.T) {
	s := NewSet[string]()
	require.Equal(t, 0, s.Len())

	require.True(t, s.Add("a"))
	require.False(t, s.Add("a"))
	require.True(t, s.Contains("a"))

	s.Remove("a")
	require.False(t, s.Contains("a"))
	require.Equal(t, 0, s.Len())

	// removing an absent element is a no-op
	s.Remove("zzz")
}

func TestSet_Order(t *testing.T) {
	s := NewSet("c", "a", "b", "a")
	require.Equal(t, []string{"c", "a", "b"}, s.Values())

	s.Remove("a")
	require.Equal(t, []string{"c", "b"}, s.Values())
	require.Equal(t, "[c b]", s.String())
}

func TestSet_Values_copy(t *testing.T) {
	s := NewSet(1, 2)
	v := s.Values()
	v[0] = 99
	require.Equal(t, []int{1, 2}, s.Values())
}

func TestSet_Removals(t *testing.T) {
	declared := NewSet("Increment", "SetValue", "Reset")
	handled := NewSet("SetValue")
	require.Equal(t, []string{"Increment", "Reset"}, declared.Removals(handled).Values())
	require.Equal(t, 0, handled.Removals(declared).Len())
}
