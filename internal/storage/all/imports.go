// Package all wires the built-in storage backends into the storage factory.
//
// It exists purely for side effects: a blank import runs each backend's init
// function, registering its factory with the storage package. Binaries that
// only need one backend can import that backend directly instead.
package all

import (
	_ "github.com/adraguidev/dashboardproject-sub001/internal/storage/postgres"
	_ "github.com/adraguidev/dashboardproject-sub001/internal/storage/sqlite"
)
