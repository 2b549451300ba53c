package engine

import "fmt"

// Gateway bundles the engine collaborators the gate depends on, so the
// consumer layer can depend on a single abstraction.
type Gateway struct {
	Definitions DefinitionStore
	Instances   InstanceStore
	FlowNodes   FlowNodeStore
	Runtime     Runtime
	Bus         Bus
}

// Validate reports the first missing collaborator.
func (g Gateway) Validate() error {
	switch {
	case g.Definitions == nil:
		return fmt.Errorf("engine gateway: Definitions is nil")
	case g.Instances == nil:
		return fmt.Errorf("engine gateway: Instances is nil")
	case g.FlowNodes == nil:
		return fmt.Errorf("engine gateway: FlowNodes is nil")
	case g.Runtime == nil:
		return fmt.Errorf("engine gateway: Runtime is nil")
	case g.Bus == nil:
		return fmt.Errorf("engine gateway: Bus is nil")
	}
	return nil
}
