//go:build mssql || all_adapters

package main

// Links the SQL Server store adapter into builds tagged for it.
import _ "github.com/glint-analytics/glint-engine/pkg/adapters/store/mssql"
