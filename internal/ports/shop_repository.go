package ports

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"errors"
)

// ErrShopNotFound is returned by GetShop for an unknown shop id.
var ErrShopNotFound = errors.New("shop not found")

// Port: a boundary for loading a shop and its dispatch inputs from a data source.
type ShopRepository interface {
	GetShop(ctx context.Context, shopID int64) (*domain.Shop, error)
	// Every order of the shop; the dispatcher skips those past planning.
	ListOrders(ctx context.Context, shopID int64) ([]*domain.Order, error)
	// Couriers and taxi classes serving the shop.
	ListCouriers(ctx context.Context, shopID int64) ([]*domain.Courier, error)
}
