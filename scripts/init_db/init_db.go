package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "fleet_user"),
		dbGetEnv("DB_PASSWORD", "fleet_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "fleet_track"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to TimescaleDB...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure TimescaleDB is running:\n  docker-compose up -d timescaledb", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_extensions(ctx, conn)
	step2_vehicles_table(ctx, conn)
	step3_fixes_table(ctx, conn)
	step4_alerts_table(ctx, conn)
	step5_indexes(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run ./scripts/seed_vehicles")
}

func step1_extensions(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: Extensions ──────────────────────────")

	// TimescaleDB — required for the fixes hypertable
	execOrFatal(ctx, conn,
		"CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;",
		"timescaledb extension",
	)

	// PostGIS — keeps exact radius queries available server-side
	execOrFatal(ctx, conn,
		"CREATE EXTENSION IF NOT EXISTS postgis;",
		"postgis extension",
	)
}

func step2_vehicles_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: vehicles table ──────────────────────")

	// Fleet registry plus the denormalized last-known-position mirror
	// the engine refreshes after every ingestion.
	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicles (
			vehicle_id     TEXT             PRIMARY KEY,
			vehicle_type   TEXT             NOT NULL DEFAULT '',
			last_latitude  DOUBLE PRECISION,
			last_longitude DOUBLE PRECISION,
			last_seen_at   TIMESTAMPTZ
		);
	`, "vehicles table created")
}

func step3_fixes_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: vehicle_fixes table ─────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicle_fixes (

			-- Time column — TimescaleDB partitions data by this
			timestamp       TIMESTAMPTZ      NOT NULL,

			-- Server receipt time — vehicle clocks drift
			received_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

			vehicle_id      TEXT             NOT NULL,

			latitude        DOUBLE PRECISION NOT NULL,
			longitude       DOUBLE PRECISION NOT NULL,

			-- PostGIS geography column for exact radius queries
			location        GEOGRAPHY(POINT, 4326)
			                GENERATED ALWAYS AS (
			                    ST_SetSRID(
			                        ST_MakePoint(longitude, latitude),
			                        4326
			                    )::geography
			                ) STORED,

			speed_kmh       DOUBLE PRECISION NOT NULL DEFAULT 0,
			heading_deg     DOUBLE PRECISION NOT NULL DEFAULT 0,
			accuracy_m      DOUBLE PRECISION NOT NULL DEFAULT 0,
			altitude_m      DOUBLE PRECISION,

			is_moving       BOOLEAN          NOT NULL DEFAULT false,

			device_id       TEXT             NOT NULL DEFAULT '',
			battery_pct     DOUBLE PRECISION,
			signal_strength INTEGER          NOT NULL DEFAULT 0
		);
	`, "vehicle_fixes table created")

	// 7-day chunks: recent-data queries only touch the newest chunk
	execOrFatal(ctx, conn, `
		SELECT create_hypertable(
			'vehicle_fixes',
			'timestamp',
			if_not_exists => TRUE
		);
	`, "vehicle_fixes converted to hypertable")

	// Age-based expiry for the archive mirrors the in-memory 30-day
	// history horizon.
	execOrFatal(ctx, conn, `
		SELECT add_retention_policy(
			'vehicle_fixes',
			INTERVAL '30 days',
			if_not_exists => TRUE
		);
	`, "30-day retention policy added")
}

func step4_alerts_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: vehicle_alerts table ────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicle_alerts (
			alert_id        TEXT             PRIMARY KEY,
			vehicle_id      TEXT             NOT NULL,

			alert_type      TEXT             NOT NULL,
			severity        TEXT             NOT NULL,
			message         TEXT             NOT NULL DEFAULT '',

			latitude        DOUBLE PRECISION,
			longitude       DOUBLE PRECISION,
			speed_kmh       DOUBLE PRECISION,

			triggered_at    TIMESTAMPTZ      NOT NULL,
			acknowledged_at TIMESTAMPTZ,
			acknowledged_by TEXT,
			resolved_at     TIMESTAMPTZ,

			CONSTRAINT chk_alert_type CHECK (
				alert_type IN ('SPEEDING', 'IDLE_TIMEOUT', 'ROUTE_DEVIATION',
				               'PANIC', 'MAINTENANCE', 'LOW_BATTERY')
			),

			CONSTRAINT chk_severity CHECK (
				severity IN ('LOW', 'MEDIUM', 'HIGH', 'CRITICAL')
			)
		);
	`, "vehicle_alerts table created")
}

func step5_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 5: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_fixes_vehicle_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_fixes_vehicle_time
				  ON vehicle_fixes (vehicle_id, timestamp DESC);`,
			why: "query: fix history for one vehicle",
		},
		{
			name: "idx_fixes_location",
			sql: `CREATE INDEX IF NOT EXISTS idx_fixes_location
				  ON vehicle_fixes USING GIST (location);`,
			why: "query: fixes near a lat/lng (ST_DWithin)",
		},
		{
			name: "idx_alerts_vehicle",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_vehicle
				  ON vehicle_alerts (vehicle_id, triggered_at DESC);`,
			why: "query: alerts for one vehicle",
		},
		{
			name: "idx_alerts_open",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_open
				  ON vehicle_alerts (vehicle_id, triggered_at DESC)
				  WHERE resolved_at IS NULL;`,
			why: "query: open alerts only (partial index)",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
