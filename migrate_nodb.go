//go:build !postgres

package main

import (
	"errors"

	"github.com/billingcat/leadboard/model"
)

func runMigrations(_ *model.Config, _ bool) error {
	return errors.New("migrate needs a binary built with -tags postgres; sqlite databases are migrated on open")
}
