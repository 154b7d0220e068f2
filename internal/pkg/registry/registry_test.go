package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeModule struct {
	name     string
	priority int
	inits    *[]string
}

func (m fakeModule) Name() string  { return m.name }
func (m fakeModule) Priority() int { return m.priority }
func (m fakeModule) Init(ctx *ModuleContext) error {
	*m.inits = append(*m.inits, m.name)
	return nil
}

func TestInitModulesOrder(t *testing.T) {
	saved := moduleRegistry
	moduleRegistry = make(map[string]Module)
	defer func() { moduleRegistry = saved }()

	var inits []string
	Register(fakeModule{name: "order", priority: 30, inits: &inits})
	Register(fakeModule{name: "user", priority: 10, inits: &inits})
	Register(fakeModule{name: "catalog", priority: 20, inits: &inits})
	Register(fakeModule{name: "coupon", priority: 20, inits: &inits})

	assert.NoError(t, InitModules(&ModuleContext{}))
	assert.Equal(t, []string{"user", "catalog", "coupon", "order"}, inits)
}
