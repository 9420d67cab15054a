package astmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
)

func TestGenericKind_CapabilitiesMatchTable(t *testing.T) {
	assert.True(t, astmodel.KindClass.IsTypeDeclaration())
	assert.True(t, astmodel.KindClass.IsNamed())
	assert.False(t, astmodel.KindClass.IsBlock())

	assert.True(t, astmodel.KindBlock.IsBlock())
	assert.True(t, astmodel.KindBlock.IsFork())
	assert.False(t, astmodel.KindBlock.IsNamed())

	assert.True(t, astmodel.KindIdentifier.IsIdentifier())
	assert.True(t, astmodel.KindIdentifier.IsExpression())
	assert.False(t, astmodel.KindIdentifier.IsStatement())
}

func TestGenericKind_LangAndString(t *testing.T) {
	assert.Equal(t, "generic", astmodel.KindMethod.Lang())
	assert.Equal(t, "Method", astmodel.KindMethod.String())
}

func TestHasCapability_KnownAndUnknownNames(t *testing.T) {
	assert.True(t, astmodel.HasCapability(astmodel.KindTypeBody, "is_type_body"))
	assert.False(t, astmodel.HasCapability(astmodel.KindTypeBody, "is_block"))
	assert.False(t, astmodel.HasCapability(astmodel.KindTypeBody, "not_a_real_predicate"))
}

func TestIsContainer(t *testing.T) {
	assert.True(t, astmodel.IsContainer(astmodel.KindTypeBody))
	assert.True(t, astmodel.IsContainer(astmodel.KindClass))
	assert.True(t, astmodel.IsContainer(astmodel.KindBlock))
	assert.True(t, astmodel.IsContainer(astmodel.KindMethod))
	assert.False(t, astmodel.IsContainer(astmodel.KindIdentifier))
}

func TestClassifyForSearch(t *testing.T) {
	cases := []struct {
		kind astmodel.GenericKind
		want astmodel.DeclSearchKind
	}{
		{astmodel.KindClass, astmodel.DeclSearchType},
		{astmodel.KindInterface, astmodel.DeclSearchType},
		{astmodel.KindAnnotation, astmodel.DeclSearchType},
		{astmodel.KindTypeBody, astmodel.DeclSearchThis},
		{astmodel.KindField, astmodel.DeclSearchField},
		{astmodel.KindLocalVar, astmodel.DeclSearchLocal},
		{astmodel.KindParameter, astmodel.DeclSearchLocal},
		{astmodel.KindCatch, astmodel.DeclSearchLocal},
		{astmodel.KindIdentifier, astmodel.DeclSearchLocal},
		{astmodel.KindMethod, astmodel.DeclSearchNone},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, astmodel.ClassifyForSearch(tc.kind), "kind=%s", tc.kind)
	}
}
