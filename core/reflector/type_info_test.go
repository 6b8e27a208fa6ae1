package reflector

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAction struct {
	Name string
}

const testActionName = "github.com/codewandler/flux-go/core/reflector.testAction"

func TestTypeInfoOf(t *testing.T) {
	ti := TypeInfoOf(testAction{Name: "x"})
	require.Equal(t, testActionName, ti.Name)
	require.Equal(t, "reflector.testAction", ti.Short)
	require.Equal(t, "testAction", ti.Type.Name())
	require.False(t, ti.Pointer)
}

func TestTypeInfoOf_Pointer(t *testing.T) {
	ti := TypeInfoOf(&testAction{})
	require.Equal(t, testActionName, ti.Name)
	require.True(t, ti.Pointer)
	require.NotEqual(t, reflect.Pointer, ti.Type.Kind())
}

func TestTypeInfoFor(t *testing.T) {
	require.Equal(t, TypeInfoOf(testAction{}), TypeInfoFor[testAction]())
	require.Equal(t, TypeInfoOf(&testAction{}), TypeInfoFor[*testAction]())
}

func TestTypeInfo_builtin(t *testing.T) {
	ti := TypeInfoOf(42)
	require.Equal(t, "int", ti.Name)
	require.Equal(t, "int", ti.Short)
}

func TestTypeInfo_nil(t *testing.T) {
	require.Equal(t, TypeInfo{}, TypeInfoOf(nil))
	require.Equal(t, TypeInfo{}, TypeInfoForType(nil))
}

func TestTypeInfo_unnamed(t *testing.T) {
	ti := TypeInfoOf(struct{ A int }{})
	require.Equal(t, "struct { A int }", ti.Name)
}

func TestTypeInfo_concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, testActionName, TypeInfoOf(testAction{}).Name)
			assert.Equal(t, testActionName, TypeInfoOf(&testAction{}).Name)
		}()
	}
	wg.Wait()
}
