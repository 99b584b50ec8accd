// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The CacheManager owns the published snapshot of every visible chunk.
// DocumentService and StageService write through the driven stores and
// invalidate it; SearchService reads it.
//
// Services are pure Go with no CGO.
package services
