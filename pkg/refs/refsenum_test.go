package refs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/refs"
)

func TestScopedIdentifier_DedupsIdenticalValues(t *testing.T) {
	labels := labelstore.New()
	store := refs.NewStore()

	name := labels.InternString("foo")

	a := store.ScopedIdentifier(store.MaybeMissing(), name)
	b := store.ScopedIdentifier(store.MaybeMissing(), name)

	assert.Equal(t, a, b)
}

func TestScopedIdentifier_DistinctLeafDistinctID(t *testing.T) {
	labels := labelstore.New()
	store := refs.NewStore()

	a := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("foo"))
	b := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("bar"))

	assert.NotEqual(t, a, b)
}

func TestEqual_ScopedIdentifierAndTypeIdentifierCrossFamily(t *testing.T) {
	labels := labelstore.New()
	store := refs.NewStore()

	name := labels.InternString("Foo")

	scoped := store.ScopedIdentifier(store.MaybeMissing(), name)
	typeRef := store.TypeIdentifier(store.MaybeMissing(), name)

	assert.True(t, store.Equal(scoped, typeRef))
}

func TestEqual_DifferentLeavesAreNotEqual(t *testing.T) {
	labels := labelstore.New()
	store := refs.NewStore()

	a := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("foo"))
	b := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("bar"))

	assert.False(t, store.Equal(a, b))
}

func TestEqual_MaskIsTransparentToItsObject(t *testing.T) {
	labels := labelstore.New()
	store := refs.NewStore()

	obj := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("foo"))
	masked := store.Mask(obj, []refs.ID{store.MaybeMissing()})

	assert.True(t, store.Equal(masked, obj))
	assert.True(t, store.Equal(obj, masked))
}

func TestEqual_OrMatchesAnyAlternative(t *testing.T) {
	labels := labelstore.New()
	store := refs.NewStore()

	a := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("a"))
	b := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("b"))
	c := store.ScopedIdentifier(store.MaybeMissing(), labels.InternString("c"))

	disj := store.Or([]refs.ID{a, b})

	assert.True(t, store.Equal(disj, a))
	assert.True(t, store.Equal(disj, b))
	assert.False(t, store.Equal(disj, c))
}

func TestRoot_IsStableSingleton(t *testing.T) {
	store := refs.NewStore()

	assert.Equal(t, store.Root(), store.Root())
	assert.NotEqual(t, store.Root(), store.MaybeMissing())
}

func TestThis_NestedObjectsDedup(t *testing.T) {
	store := refs.NewStore()

	a := store.This(store.MaybeMissing())
	b := store.This(store.MaybeMissing())

	assert.Equal(t, a, b)
}
