package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *basicScene)

// WithEnvironment sets the scene's environment description at construction.
//
// Parameters:
//   - env: the environment description
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironment(env Environment) SceneBuilderOption {
	return func(s *basicScene) {
		s.env = env
	}
}

// WithRoots creates named root nodes at construction, in order.
//
// Parameters:
//   - names: display names for the root nodes
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRoots(names ...string) SceneBuilderOption {
	return func(s *basicScene) {
		for _, name := range names {
			n := newBasicNode(name)
			s.roots = append(s.roots, n)
			s.byID[n.id] = n
		}
	}
}
