// Package app composes the RemnantHub services into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── bootstrap.go        # Backend selection from config (Postgres, Redis, Supabase)
//	├── domain/             # Domain models (pure data structures)
//	├── storage/            # Store interfaces plus memory/ and postgres/ implementations
//	├── services/           # Business rules per aggregate
//	├── httpapi/            # HTTP routes and handlers
//	├── system/             # Lifecycle manager for background services
//	└── metrics/            # Prometheus collectors
//
// # Dependency Direction
//
//	cmd/remnanthub/
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► internal/app/services/ ──► internal/app/storage/
//	      │                                     │
//	      │                                     └──► internal/app/domain/
//	      │
//	      └──► internal/app/httpapi/ ──► internal/middleware/, internal/httputil/
//
// # Adding a New Domain
//
//  1. Create domain models in internal/app/domain/<name>/
//  2. Add the store interface to internal/app/storage/interfaces.go
//  3. Implement it in internal/app/storage/memory/ and postgres/, with a migration
//  4. Create the service in internal/app/services/<name>/
//  5. Wire the service in application.go
//  6. Add routes in internal/app/httpapi/
package app
