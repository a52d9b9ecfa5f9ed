package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/quartermaster-wms/quartermaster/apps/cli/commands"
)

var cli struct {
	Migrate          commands.MigrateCmd          `cmd:"" help:"Apply the database schema."`
	CreateSuperAdmin commands.CreateSuperAdminCmd `cmd:"" name:"create-super-admin" help:"Create a super admin account."`
	CreateAccessKey  commands.CreateAccessKeyCmd  `cmd:"" name:"create-access-key" help:"Mint a signup access key."`
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("quartermaster"),
		kong.Description("Operational utilities for the warehouse platform."),
		kong.BindTo(ctx, (*context.Context)(nil)))
	cmd.FatalIfErrorf(cmd.Run())
}
