package repositories

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the SQLite database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createShopsQuery := `
	CREATE TABLE IF NOT EXISTS shops (
		shop_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		lon REAL NOT NULL,
		lat REAL NOT NULL
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id INTEGER PRIMARY KEY,
		shop_id INTEGER NOT NULL REFERENCES shops(shop_id),
		lon REAL NOT NULL,
		lat REAL NOT NULL,
		delivery_from TEXT NOT NULL,
		delivery_to TEXT NOT NULL,
		weight REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		enabled_types INTEGER NOT NULL
	);
	`

	createCouriersQuery := `
	CREATE TABLE IF NOT EXISTS couriers (
		courier_id INTEGER PRIMARY KEY,
		shop_id INTEGER NOT NULL REFERENCES shops(shop_id),
		name TEXT NOT NULL,
		vehicle_type INTEGER NOT NULL,
		work_from_minutes INTEGER NOT NULL,
		work_to_minutes INTEGER NOT NULL,
		lunch_from_minutes INTEGER NOT NULL DEFAULT 0,
		lunch_to_minutes INTEGER NOT NULL DEFAULT 0,
		tariff_fixed REAL NOT NULL DEFAULT 0,
		tariff_per_km REAL NOT NULL DEFAULT 0,
		tariff_per_hour REAL NOT NULL DEFAULT 0,
		max_weight REAL NOT NULL DEFAULT 0,
		max_orders INTEGER NOT NULL DEFAULT 0,
		service_seconds INTEGER NOT NULL DEFAULT 0
	);
	`

	createMatrixCacheQuery := `
	CREATE TABLE IF NOT EXISTS matrix_cache (
        profile TEXT NOT NULL,
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (profile, origin, destination)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_shop_id ON orders(shop_id);
	`

	createCourierIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_couriers_shop_id ON couriers(shop_id);
	`

	statements := []string{
		createShopsQuery,
		createOrdersQuery,
		createCouriersQuery,
		createMatrixCacheQuery,
		createIndexQuery,
		createCourierIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type Seed struct {
	Shops    []ShopSeed    `json:"shops"`
	Orders   []OrderSeed   `json:"orders"`
	Couriers []CourierSeed `json:"couriers"`
}

type ShopSeed struct {
	ShopID int64   `json:"shop_id"`
	Name   string  `json:"name"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
}

type OrderSeed struct {
	OrderID      int64     `json:"order_id"`
	ShopID       int64     `json:"shop_id"`
	Lon          float64   `json:"lon"`
	Lat          float64   `json:"lat"`
	DeliveryFrom time.Time `json:"delivery_from"`
	DeliveryTo   time.Time `json:"delivery_to"`
	Weight       float64   `json:"weight"`
	Status       string    `json:"status"`
	VehicleTypes []string  `json:"vehicle_types"`
}

type CourierSeed struct {
	CourierID      int64   `json:"courier_id"`
	ShopID         int64   `json:"shop_id"`
	Name           string  `json:"name"`
	VehicleType    string  `json:"vehicle_type"`
	WorkFrom       string  `json:"work_from"`
	WorkTo         string  `json:"work_to"`
	LunchFrom      string  `json:"lunch_from"`
	LunchTo        string  `json:"lunch_to"`
	Fixed          float64 `json:"tariff_fixed"`
	PerKm          float64 `json:"tariff_per_km"`
	PerHour        float64 `json:"tariff_per_hour"`
	MaxWeight      float64 `json:"max_weight"`
	MaxOrders      int     `json:"max_orders"`
	ServiceSeconds int     `json:"service_seconds"`
}

var orderStatuses = map[string]domain.OrderStatus{
	string(domain.OrderReceived):   domain.OrderReceived,
	string(domain.OrderAssembled):  domain.OrderAssembled,
	string(domain.OrderDelivering): domain.OrderDelivering,
	string(domain.OrderDelivered):  domain.OrderDelivered,
	string(domain.OrderCancelled):  domain.OrderCancelled,
}

// Populate the database with shops, orders and couriers from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, s := range data.Shops {
		if s.ShopID <= 0 {
			return fmt.Errorf("seed shops: invalid shop_id at index %d: %d", i+1, s.ShopID)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO shops (shop_id, name, lon, lat)
		VALUES (?, ?, ?, ?);
		`, s.ShopID, strings.TrimSpace(s.Name), s.Lon, s.Lat); err != nil {
			return fmt.Errorf("seed shops: insert shop_id=%d: %w", s.ShopID, err)
		}
	}

	for i, o := range data.Orders {
		if o.OrderID <= 0 {
			return fmt.Errorf("seed orders: invalid order_id at index %d: %d", i+1, o.OrderID)
		}
		status, ok := orderStatuses[o.Status]
		if !ok {
			return fmt.Errorf("seed orders: order_id=%d: unknown status %q", o.OrderID, o.Status)
		}
		if o.DeliveryTo.Before(o.DeliveryFrom) {
			return fmt.Errorf("seed orders: order_id=%d: delivery window ends before it starts", o.OrderID)
		}
		types, err := domain.ParseVehicleType(strings.Join(o.VehicleTypes, "|"))
		if err != nil {
			return fmt.Errorf("seed orders: order_id=%d: %w", o.OrderID, err)
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders (
			order_id, shop_id, lon, lat, delivery_from, delivery_to, weight, status, enabled_types
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
		`,
			o.OrderID, o.ShopID, o.Lon, o.Lat,
			o.DeliveryFrom.UTC().Format(time.RFC3339), o.DeliveryTo.UTC().Format(time.RFC3339),
			o.Weight, string(status), int64(types),
		); err != nil {
			return fmt.Errorf("seed orders: insert order_id=%d: %w", o.OrderID, err)
		}
	}

	for i, c := range data.Couriers {
		if c.CourierID <= 0 {
			return fmt.Errorf("seed couriers: invalid courier_id at index %d: %d", i+1, c.CourierID)
		}
		vt, err := domain.ParseVehicleType(c.VehicleType)
		if err != nil || len(vt.Types()) != 1 {
			return fmt.Errorf("seed couriers: courier_id=%d: invalid vehicle type %q", c.CourierID, c.VehicleType)
		}

		clock := []string{c.WorkFrom, c.WorkTo, c.LunchFrom, c.LunchTo}
		minutes := make([]int, len(clock))
		for j, v := range clock {
			m, err := parseClock(v)
			if err != nil {
				return fmt.Errorf("seed couriers: courier_id=%d: %w", c.CourierID, err)
			}
			minutes[j] = m
		}
		if minutes[1] <= minutes[0] {
			return fmt.Errorf("seed couriers: courier_id=%d: shift ends before it starts", c.CourierID)
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO couriers (
			courier_id, shop_id, name, vehicle_type,
			work_from_minutes, work_to_minutes, lunch_from_minutes, lunch_to_minutes,
			tariff_fixed, tariff_per_km, tariff_per_hour,
			max_weight, max_orders, service_seconds
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`,
			c.CourierID, c.ShopID, strings.TrimSpace(c.Name), int64(vt),
			minutes[0], minutes[1], minutes[2], minutes[3],
			c.Fixed, c.PerKm, c.PerHour,
			c.MaxWeight, c.MaxOrders, c.ServiceSeconds,
		); err != nil {
			return fmt.Errorf("seed couriers: insert courier_id=%d: %w", c.CourierID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

// parseClock converts "HH:MM" to minutes after midnight; "24:00" is allowed
// and an empty value is midnight.
func parseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	if v == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
