//go:build postgres || all_adapters

package main

// Links the PostgreSQL store adapter into builds tagged for it.
import _ "github.com/glint-analytics/glint-engine/pkg/adapters/store/postgres"
