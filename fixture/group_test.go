package fixture

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robmorgan/legopi/utils"
)

func TestFixtureInMultipleGroups(t *testing.T) {
	t.Parallel()

	fix := NewFixture("BP_LED", 13, 2, utils.ColorNeon, 0, nil)

	// add the fixture to two fixture groups
	fg1 := NewGroup()
	fg2 := NewGroup()
	fg1.AddFixture("fix1", fix)
	fg2.AddFixture("backpack", fix)

	// set a value
	fix1, err := fg1.GetFixture("fix1")
	require.NoError(t, err)
	fix1.SetColor(utils.ColorBlue)

	// check its correct in the other fixture group
	bp, err := fg2.GetFixture("backpack")
	require.NoError(t, err)
	require.Equal(t, utils.ColorBlue, bp.GetColor())

	_, err = fg2.GetFixture("fix1")
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	fix1 := NewFixture("fix1", 21, 2, utils.ColorWhite, 0, nil)
	fix2 := NewFixture("fix2", 18, 2, utils.ColorRed, 0, nil)
	fix3 := NewFixture("fix3", 13, 4, utils.ColorNeon, 1, nil)

	// add the fixtures to three separate groups
	fg1 := NewGroup()
	fg2 := NewGroup()
	fg3 := NewGroup()
	fg1.AddFixture("fix1", fix1)
	fg2.AddFixture("fix2", fix2)
	fg3.AddFixture("fix2", fix3) // name collision (will replace)

	// merge them over the first group
	fg := fg1.Merge(fg2, fg3)

	// check everything is correct
	require.True(t, fg.HasFixture("fix1"))
	require.True(t, fg.HasFixture("fix2"))
	require.Equal(t, 2, fg.Count())
	require.Equal(t, []string{"fix1", "fix2"}, fg.Names())

	fix, err := fg.GetFixture("fix2")
	require.NoError(t, err)
	require.Equal(t, uint8(13), fix.GPIO)
	require.Equal(t, uint8(4), fix.Num)
	require.Equal(t, utils.ColorNeon, fix.GetColor())

	// the source groups are untouched
	require.Equal(t, 1, fg1.Count())
}

func TestEmptyGroup(t *testing.T) {
	t.Parallel()

	fg := NewGroup()
	require.False(t, fg.HasFixtures())
	require.Empty(t, fg.Names())

	fg.SetFixtures(map[string]*Fixture{"a": NewFixture("a", 18, 1, utils.ColorOff, 0, nil)})
	require.True(t, fg.HasFixtures())
}
