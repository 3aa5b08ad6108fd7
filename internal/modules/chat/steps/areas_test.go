package steps

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

func TestResolveArea(t *testing.T) {
	user := uuid.New()
	fitness := &types.LifeArea{UserID: user, Name: "Fitness", Category: "Gesundheit"}
	lesen := &types.LifeArea{UserID: user, Name: "Lesen", Category: "Bildung"}
	empty := &types.LifeArea{UserID: user, Name: "", Category: ""}
	areas := []*types.LifeArea{empty, fitness, lesen}

	assert.Same(t, fitness, ResolveArea("xp im bereich fitness", areas))
	assert.Same(t, lesen, ResolveArea("alles zu bildung", areas), "category is a fallback")
	assert.Nil(t, ResolveArea("wie viele aktivitäten", areas))

	// First match in list order wins, even when a later area also matches.
	got := ResolveArea("fitness und lesen", []*types.LifeArea{lesen, fitness})
	require.NotNil(t, got)
	assert.Equal(t, "Lesen", got.Name)
}

func TestResolveAreaKeepsSubstringSemantics(t *testing.T) {
	ich := &types.LifeArea{Name: "Ich"}
	// "ich" is inside "wie viele habe ich..." - tolerated, not filtered out.
	assert.Same(t, ich, ResolveArea("wie viele habe ich gemacht", []*types.LifeArea{ich}))
}
