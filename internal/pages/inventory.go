package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jzx17/pagecheck/pkg/retry"
)

// Inventory page selectors
const (
	InventoryContainer = "#inventory_container"
	CartBadge          = ".shopping_cart_badge"
)

// InventoryPage lists products and the cart badge
type InventoryPage struct {
	*BasePage
}

// NewInventoryPage creates an inventory page object
func NewInventoryPage(base *BasePage) *InventoryPage {
	return &InventoryPage{BasePage: base}
}

// WaitLoaded waits for the product list
func (p *InventoryPage) WaitLoaded(ctx context.Context) error {
	return p.WaitVisible(ctx, InventoryContainer)
}

// AddToCart clicks the add button of product, e.g. "sauce-labs-backpack"
func (p *InventoryPage) AddToCart(ctx context.Context, product string) error {
	return p.Click(ctx, AddToCartButton(product))
}

// CartCount reads the badge; a missing badge means an empty cart
func (p *InventoryPage) CartCount(ctx context.Context) (int, error) {
	n, err := p.Count(ctx, CartBadge)
	if err != nil || n == 0 {
		return 0, err
	}
	text, err := p.Text(ctx, CartBadge)
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("unexpected cart badge %q: %w", text, err)
	}
	return count, nil
}

// WaitCartCount polls the badge until it shows want. When it never does, the
// last observed count is returned with an error matching retry.ErrExhausted.
func (p *InventoryPage) WaitCartCount(ctx context.Context, want int) (int, error) {
	out, err := retry.Execute(p.executor, ctx, p.policy, p.CartCount, func(n int) bool {
		return n == want
	})
	if err != nil {
		return 0, err
	}
	return out.Must()
}

// AddToCartButton returns the selector of product's add button
func AddToCartButton(product string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(product), " ", "-"))
	return fmt.Sprintf(`[data-test="add-to-cart-%s"]`, slug)
}
