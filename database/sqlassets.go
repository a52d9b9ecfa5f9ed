package sqlassets

import _ "embed"

//go:embed schema/core.sql
var CoreSQL string

//go:embed schema/warehouse.sql
var WarehouseSQL string
