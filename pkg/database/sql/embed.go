package sql

import (
	"embed"
)

//go:embed schema/*.sql
//go:embed seeds/static/*.sql
var Content embed.FS
