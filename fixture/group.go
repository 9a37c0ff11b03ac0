package fixture

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Group struct {
	Fixtures map[string]*Fixture
}

// Create a new Group object with reasonable defaults for real usage.
func NewGroup() *Group {
	return &Group{
		Fixtures: make(map[string]*Fixture),
	}
}

func (fg *Group) GetFixture(id string) (*Fixture, error) {
	if fixture, found := fg.Fixtures[id]; found {
		return fixture, nil
	}
	return nil, fmt.Errorf("the fixture group does not contain a fixture with the id: %s", id)
}

func (fg *Group) SetFixtures(fixtures map[string]*Fixture) {
	fg.Fixtures = fixtures
}

func (fg *Group) AddFixture(id string, fixture *Fixture) {
	fg.Fixtures[id] = fixture
}

// HasFixture returns true if the group contains a fixture with the given id
func (fg *Group) HasFixture(id string) bool {
	_, found := fg.Fixtures[id]
	return found
}

// HasFixtures returns true if there are fixtures in the group
func (fg *Group) HasFixtures() bool {
	return len(fg.Fixtures) > 0
}

// Count returns the number of fixtures in the group
func (fg *Group) Count() int {
	return len(fg.Fixtures)
}

// Names returns the sorted fixture ids
func (fg *Group) Names() []string {
	names := maps.Keys(fg.Fixtures)
	slices.Sort(names)
	return names
}

// Merge returns a new group holding the fixtures of fg and all others. On a
// name collision the later group wins.
func (fg *Group) Merge(others ...*Group) *Group {
	fixtures := make(map[string]*Fixture)
	for _, g := range append([]*Group{fg}, others...) {
		maps.Copy(fixtures, g.Fixtures)
	}
	out := NewGroup()
	out.SetFixtures(fixtures)
	return out
}
