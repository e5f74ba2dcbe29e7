// Package cpu isolates the two pieces of architecture-specific plumbing
// every spin-based WaitStrategy needs: a spin-wait hint for the busy loop,
// and, optionally, pinning the calling OS thread to a core. Both are kept
// out of the hot wait/sequencer packages so those stay architecture-neutral.
package cpu
