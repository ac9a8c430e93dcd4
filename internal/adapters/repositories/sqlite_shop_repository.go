package repositories

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite-backed implementation of the ShopRepository port.
type SqliteShopRepository struct{ DB *sql.DB }

func NewSqliteShopRepository(db *sql.DB) *SqliteShopRepository {
	return &SqliteShopRepository{DB: db}
}

func (s *SqliteShopRepository) GetShop(ctx context.Context, shopID int64) (*domain.Shop, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite shop repository: DB is nil")
	}

	var shop domain.Shop
	err := s.DB.QueryRowContext(ctx, `
	SELECT shop_id, name, lon, lat
	FROM shops
	WHERE shop_id = ?;
	`, shopID).Scan(&shop.ShopID, &shop.Name, &shop.Position.Lon, &shop.Position.Lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get shop %d: %w", shopID, ports.ErrShopNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shop %d: %w", shopID, err)
	}

	return &shop, nil
}

// Return the shop's orders in id order.
func (s *SqliteShopRepository) ListOrders(ctx context.Context, shopID int64) ([]*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite shop repository: DB is nil")
	}

	query := `
	SELECT
		order_id,
		shop_id,
		lon,
		lat,
		delivery_from,
		delivery_to,
		weight,
		status,
		enabled_types
	FROM orders
	WHERE shop_id = ?
	ORDER BY order_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		var o domain.Order
		var from, to, status string
		var types int64
		err := rows.Scan(&o.OrderID, &o.ShopID, &o.Position.Lon, &o.Position.Lat, &from, &to, &o.Weight, &status, &types)
		if err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}

		if o.DeliveryFrom, err = time.Parse(time.RFC3339, from); err != nil {
			return nil, fmt.Errorf("list orders: order_id=%d delivery_from: %w", o.OrderID, err)
		}
		if o.DeliveryTo, err = time.Parse(time.RFC3339, to); err != nil {
			return nil, fmt.Errorf("list orders: order_id=%d delivery_to: %w", o.OrderID, err)
		}
		o.Status = domain.OrderStatus(status)
		o.EnabledTypes = domain.VehicleType(types)

		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return orders, nil
}

// Return the shop's couriers in id order; the order is the roster order.
func (s *SqliteShopRepository) ListCouriers(ctx context.Context, shopID int64) ([]*domain.Courier, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite shop repository: DB is nil")
	}

	query := `
	SELECT
		courier_id,
		name,
		vehicle_type,
		work_from_minutes,
		work_to_minutes,
		lunch_from_minutes,
		lunch_to_minutes,
		tariff_fixed,
		tariff_per_km,
		tariff_per_hour,
		max_weight,
		max_orders,
		service_seconds
	FROM couriers
	WHERE shop_id = ?
	ORDER BY courier_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("list couriers: query couriers table: %w", err)
	}
	defer rows.Close()

	couriers := make([]*domain.Courier, 0, 16)
	for rows.Next() {
		var c domain.Courier
		var vt int64
		var workFrom, workTo, lunchFrom, lunchTo, service int
		err := rows.Scan(
			&c.CourierID, &c.Name, &vt,
			&workFrom, &workTo, &lunchFrom, &lunchTo,
			&c.Tariff.Fixed, &c.Tariff.PerKm, &c.Tariff.PerHour,
			&c.MaxWeight, &c.MaxOrders, &service,
		)
		if err != nil {
			return nil, fmt.Errorf("list couriers: scan row: %w", err)
		}

		c.VehicleType = domain.VehicleType(vt)
		c.Schedule = domain.Schedule{
			WorkFrom:  time.Duration(workFrom) * time.Minute,
			WorkTo:    time.Duration(workTo) * time.Minute,
			LunchFrom: time.Duration(lunchFrom) * time.Minute,
			LunchTo:   time.Duration(lunchTo) * time.Minute,
		}
		c.ServiceTime = time.Duration(service) * time.Second

		couriers = append(couriers, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list couriers: row iteration: %w", err)
	}

	return couriers, nil
}

// Ping reports whether the backing database answers.
func (s *SqliteShopRepository) Ping(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sqlite shop repository: DB is nil")
	}
	return s.DB.PingContext(ctx)
}
