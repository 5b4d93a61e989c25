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
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		seedGetEnv("DB_USER", "fleet_user"),
		seedGetEnv("DB_PASSWORD", "fleet_password"),
		seedGetEnv("DB_HOST", "localhost"),
		seedGetEnv("DB_PORT", "5432"),
		seedGetEnv("DB_NAME", "fleet_track"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to TimescaleDB...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_vehicles(ctx, conn)
	step2_verify(ctx, conn)

	fmt.Println("\n✅ Registry seeded successfully")
	fmt.Println("   Run next: go run ./cmd/trackd")
}

func step1_vehicles(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: Seeding vehicles ────────────────────")

	vehicles := map[string]string{
		"BUS-001": "bus",
		"BUS-002": "bus",
		"VAN-001": "van",
		"VAN-002": "van",
		"TRK-001": "truck",
	}

	for id, vtype := range vehicles {
		_, err := conn.Exec(ctx, `
			INSERT INTO vehicles (vehicle_id, vehicle_type)
			VALUES ($1, $2)
			ON CONFLICT (vehicle_id) DO UPDATE SET vehicle_type = $2
		`, id, vtype)
		if err != nil {
			log.Fatalf("Failed to seed %s: %v", id, err)
		}
		fmt.Printf("  ✓ %-10s → %s\n", id, vtype)
	}
}

func step2_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: Verification ────────────────────────")

	var count int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&count); err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	fmt.Printf("  ✓ %d vehicles in registry\n", count)

	var vtype string
	if err := conn.QueryRow(ctx,
		`SELECT vehicle_type FROM vehicles WHERE vehicle_id = 'BUS-001'`,
	).Scan(&vtype); err != nil {
		log.Fatalf("Spot check failed: %v", err)
	}
	fmt.Printf("  ✓ spot check: BUS-001 → %s\n", vtype)
}

func seedGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
