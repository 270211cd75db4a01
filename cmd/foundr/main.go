package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	"github.com/smallbiznis/foundr/internal/events"
	"github.com/smallbiznis/foundr/internal/investor"
	"github.com/smallbiznis/foundr/internal/member"
	"github.com/smallbiznis/foundr/internal/migration"
	"github.com/smallbiznis/foundr/internal/observability"
	"github.com/smallbiznis/foundr/internal/payment"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	"github.com/smallbiznis/foundr/internal/reference"
	"github.com/smallbiznis/foundr/internal/scheduler"
	"github.com/smallbiznis/foundr/internal/seed"
	"github.com/smallbiznis/foundr/internal/server"
	"github.com/smallbiznis/foundr/internal/subscription"
	"github.com/smallbiznis/foundr/internal/tier"
	"github.com/smallbiznis/foundr/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		ratelimit.Module,
		events.Module,

		// Functional Domains
		reference.Module,
		tier.Module,
		subscription.Module,
		payment.Module,
		member.Module,
		investor.Module,

		// Schema first, then reference data, then traffic.
		migration.Module,
		seed.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

// RegisterSnowflake reads SNOWFLAKE_NODE so replicas never share a node id.
func RegisterSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = parsed
	}
	return snowflake.NewNode(nodeID)
}
