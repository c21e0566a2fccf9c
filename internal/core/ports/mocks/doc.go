// Package mocks provides test doubles for ports interfaces.
//
// Store is a thread-safe, in-memory implementation of ProjectStore,
// ResearchStore and StrategyStore that follows the same contracts as the
// PostgreSQL repositories: coded not-found errors, one active research run
// per project, per-session version numbering, first-version activation and
// all-or-nothing replacement transactions.
//
// Callback fields (xxxFn) override individual methods for failure injection.
//
// # Usage Example
//
//	func TestMyService(t *testing.T) {
//		store := mocks.NewStore()
//		project := &domain.Project{Name: "Blog"}
//		_ = store.CreateProject(ctx, project)
//
//		svc := NewService(store, store)
//		// ... test service behavior
//	}
package mocks
