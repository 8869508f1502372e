package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/pokedex-duel/internal/models"
)

type stubAssets struct{}

func (stubAssets) AssetURL(p string) string    { return "https://svc/" + p }
func (stubAssets) MoveIconURL(t string) string { return "https://svc/icons/" + t + ".jpg" }

func TestNewCard_ProjectsDetailAndHidesUnusedSlots(t *testing.T) {
	p := models.Pokemon{
		Name:   "Pikachu",
		HP:     35,
		Images: models.Images{Photo: "images/pikachu.jpg", TypeIcon: "icons/electric.jpg", WeaknessIcon: "icons/ground.jpg"},
		Info:   models.Info{Description: "Electric mouse."},
		Moves: []models.Move{
			{Name: "Thunder Shock", Type: "electric", DP: 40},
			{Name: "Growl", Type: "normal"},
		},
	}
	c := NewCard(p, stubAssets{})

	assert.Equal(t, "Pikachu", c.Name)
	assert.Equal(t, "35HP", c.HP)
	assert.Equal(t, "https://svc/images/pikachu.jpg", c.Photo)
	assert.Equal(t, "https://svc/icons/electric.jpg", c.TypeIcon)
	assert.Equal(t, "https://svc/icons/ground.jpg", c.WeaknessIcon)
	assert.Equal(t, "Electric mouse.", c.Description)

	assert.Equal(t, MoveSlot{Name: "Thunder Shock", Icon: "https://svc/icons/electric.jpg", DP: "40DP"}, c.Moves[0])
	assert.Equal(t, "", c.Moves[1].DP)
	assert.False(t, c.Moves[1].Hidden)
	assert.True(t, c.Moves[2].Hidden)
	assert.True(t, c.Moves[3].Hidden)
	assert.Empty(t, c.Moves[3].Name)
}

func TestSetMovesEnabled_SkipsHiddenSlots(t *testing.T) {
	c := NewCard(models.Pokemon{Name: "Ditto", Moves: []models.Move{{Name: "Transform"}}}, stubAssets{})
	c.SetMovesEnabled(true)
	assert.True(t, c.Moves[0].Enabled)
	for i := 1; i < MoveSlots; i++ {
		assert.False(t, c.Moves[i].Enabled, "slot %d", i)
	}
	c.SetMovesEnabled(false)
	assert.False(t, c.Moves[0].Enabled)
}

func TestBar(t *testing.T) {
	cases := []struct {
		current, max int
		width        float64
		low          bool
	}{
		{60, 60, 100, false},
		{30, 60, 50, false},
		{12, 60, 20, false},
		{11, 60, 100 * 11.0 / 60.0, true},
		{0, 60, 0, true},
		{-5, 50, -10, true},
	}
	for _, tc := range cases {
		b := Bar(tc.current, tc.max)
		assert.InDelta(t, tc.width, b.Width, 1e-9, "%d/%d", tc.current, tc.max)
		assert.Equal(t, tc.low, b.Low, "%d/%d", tc.current, tc.max)
	}
}

func TestBar_ZeroMax(t *testing.T) {
	assert.Equal(t, HealthBar{Width: 0, Low: true}, Bar(10, 0))
}

func TestMarkers_BuffsThenDebuffs(t *testing.T) {
	m := Markers([]string{"attack", "speed"}, []string{"defense"})
	require.Len(t, m, 3)
	assert.Equal(t, Marker{Kind: "buff", Label: "attack"}, m[0])
	assert.Equal(t, Marker{Kind: "debuff", Label: "defense"}, m[2])
	assert.Empty(t, Markers(nil, nil))
}

func TestTurnLine(t *testing.T) {
	assert.Equal(t, "Player 1 played Tackle and hit!", TurnLine(1, "Tackle", "hit"))
}

func TestClone_DoesNotShareSlices(t *testing.T) {
	p := Page{Sprites: []Sprite{{ID: "Bulbasaur"}}}
	p.Buffs[0] = []Marker{{Kind: "buff", Label: "attack"}}
	c := p.Clone()
	c.Sprites[0].Found = true
	c.Buffs[0][0].Label = "changed"
	assert.False(t, p.Sprites[0].Found)
	assert.Equal(t, "attack", p.Buffs[0][0].Label)
}
