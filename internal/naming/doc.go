// Package naming provides CollisionResolver, the in-run duplicate-path
// resolver OutputPaths uses when two distinct inputs would otherwise land
// on the same output path (e.g. a container fallback changing only the
// extension). See internal/outputpaths for the path-mapping layer that
// embeds it.
package naming
