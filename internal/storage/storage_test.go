// internal/storage/storage_test.go
package storage_test

import (
	"github.com/OCAP2/orbat/internal/storage"
	"github.com/OCAP2/orbat/internal/storage/gormstore"
	"github.com/OCAP2/orbat/internal/storage/memory"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Exportable = (*memory.Backend)(nil)
	_ storage.Backend    = (*gormstore.Backend)(nil)
)
