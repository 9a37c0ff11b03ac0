package fixture

import (
	"fmt"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/robmorgan/legopi/config"
	"github.com/robmorgan/legopi/controller"
	"github.com/robmorgan/legopi/driver"
	"github.com/robmorgan/legopi/logger"
	"github.com/robmorgan/legopi/utils"
)

// Manager holds the patched fixtures and the controllers they share.
type Manager struct {
	root        *Group
	groups      map[string]*Group
	controllers []*controller.Controller
	byName      map[string]*controller.Controller
}

// NewManager patches the fixtures of the config onto their controllers.
func NewManager(cfg *config.LegoPiConfig) (*Manager, error) {
	m := &Manager{
		groups: make(map[string]*Group),
		byName: make(map[string]*controller.Controller),
	}

	for _, cc := range cfg.Controllers {
		if _, found := m.byName[cc.Name]; found {
			return nil, fmt.Errorf("duplicate controllers found! name=%s", cc.Name)
		}
		profile, found := config.GetStripProfile(cc.StripType)
		if !found {
			return nil, fmt.Errorf("controller %s: unknown strip type %q", cc.Name, cc.StripType)
		}
		ctrl := controller.New(cc.Name, controller.Config{
			Frequency: cc.Frequency,
			DMA:       cc.DMA,
			StripType: cc.StripType,
			White:     profile.White,
		})
		m.byName[cc.Name] = ctrl
		m.groups[cc.Name] = NewGroup()
		m.controllers = append(m.controllers, ctrl)
	}

	seen := make(map[string]bool)

	for _, pf := range cfg.PatchedFixtures {
		if seen[pf.Name] {
			return nil, fmt.Errorf("duplicate fixtures found! name=%s", pf.Name)
		}
		seen[pf.Name] = true
		ctrl, found := m.byName[pf.Controller]
		if !found {
			return nil, fmt.Errorf("fixture %s: unknown controller %q", pf.Name, pf.Controller)
		}
		color, err := utils.ParseColor(pf.Color)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %v", pf.Name, err)
		}
		f := NewFixture(pf.Name, pf.GPIO, pf.Num, color, pf.Channel, ctrl)
		if err := ctrl.Attach(f); err != nil {
			return nil, err
		}
		m.groups[pf.Controller].AddFixture(pf.Name, f)
	}

	groups := make([]*Group, 0, len(m.controllers))
	for _, c := range m.controllers {
		g := m.groups[c.Name()]
		if !g.HasFixtures() {
			logger.GetProjectLogger().WithField("controller", c.Name()).Warn("controller has no fixtures")
		}
		groups = append(groups, g)
	}
	m.root = NewGroup().Merge(groups...)
	logger.GetProjectLogger().WithFields(logrus.Fields{"fixtures": m.root.Count(), "controllers": len(m.controllers)}).Info("fixtures patched")

	return m, nil
}

// Root returns the group holding every patched fixture.
func (m *Manager) Root() *Group {
	return m.root
}

// ControllerGroup returns the fixtures patched onto the named controller.
func (m *Manager) ControllerGroup(name string) (*Group, bool) {
	g, found := m.groups[name]
	return g, found
}

// GetByName looks up a fixture by name
func (m *Manager) GetByName(name string) *Fixture {
	f, err := m.root.GetFixture(name)
	if err != nil {
		return nil
	}
	return f
}

// GetFixtureNames returns all the fixture names
func (m *Manager) GetFixtureNames() []string {
	return m.root.Names()
}

// Controllers returns the controllers in config order.
func (m *Manager) Controllers() []*controller.Controller {
	return m.controllers
}

// GetController looks up a controller by name.
func (m *Manager) GetController(name string) (*controller.Controller, bool) {
	c, found := m.byName[name]
	return c, found
}

// Open initializes the strips of every controller.
func (m *Manager) Open(factory driver.Factory) error {
	for i, c := range m.controllers {
		if err := c.Open(factory); err != nil {
			for _, opened := range m.controllers[:i] {
				err = multierr.Append(err, opened.Close())
			}
			return errors.WithStackTrace(err)
		}
	}
	return nil
}

// Close releases every controller.
func (m *Manager) Close() error {
	var result error
	for _, c := range m.controllers {
		result = multierr.Append(result, c.Close())
	}
	return result
}

// ApplyColors sets the colour of every known fixture from the config. Fixtures
// missing from either side are left alone.
func (m *Manager) ApplyColors(cfg *config.LegoPiConfig) error {
	log := logger.GetProjectLogger()
	var result error
	for _, pf := range cfg.PatchedFixtures {
		f := m.GetByName(pf.Name)
		if f == nil {
			log.WithField("fixture", pf.Name).Warn("fixture not patched, restart to add it")
			continue
		}
		color, err := utils.ParseColor(pf.Color)
		if err != nil {
			result = multierr.Append(result, fmt.Errorf("fixture %s: %v", pf.Name, err))
			continue
		}
		if f.GetColor() != color {
			log.WithFields(logrus.Fields{"fixture": pf.Name, "color": color.Hex()}).Info("fixture colour changed")
			f.SetColor(color)
		}
	}
	return result
}

// SetColor changes the colour of the named fixture.
func (m *Manager) SetColor(name string, color utils.Color) error {
	f := m.GetByName(name)
	if f == nil {
		return fmt.Errorf("unknown fixture %q", name)
	}
	f.SetColor(color)
	logger.GetProjectLogger().WithFields(logrus.Fields{"fixture": name, "color": color.Hex()}).Info("fixture colour set")
	return nil
}
