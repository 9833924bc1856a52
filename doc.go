// Package lightstate is a small external state container for component-tree
// user interfaces.
//
// A Container owns one mutable State value and an ordered list of
// subscribers. Writes go through SetState (a Patch or an UpdateFunc) or
// Dispatch (a Patch or an Action that may produce further messages), and every
// committed write is delivered synchronously to subscribers in registration
// order.
//
// Consumers read through a Watcher: it projects the state with a Selector,
// suppresses notifications when the projection is shallow-equal to the last
// one delivered, and surfaces projection failures after a short grace delay
// so an unmounting consumer never sees them. Connect binds a Watcher to a
// View for render-style consumers, and pkg/teabind adapts it to bubbletea.
//
// Persistence is optional: a Container configured with a storage name loads
// its initial value from a Storage and saves every committed write back to
// it. pkg/storage provides memory, file and bun/sqlite adapters.
package lightstate
