package main

import (
	"github.com/dimensigon/schemashift/cmd"

	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func main() {
	cmd.Execute()
}
