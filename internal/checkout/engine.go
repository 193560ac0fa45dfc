// Package checkout: sipariş + kalemler + stok düşümü + (cari satışta) borç kaydı
// tek bir transaction içinde yapılır. Ya hepsi yazılır ya hiçbiri.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/availability"
	"kahve-backend/internal/cari"
	"kahve-backend/internal/events"
	"kahve-backend/internal/metrics"
	"kahve-backend/internal/models"
	"kahve-backend/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Engine struct {
	db      *gorm.DB
	log     zerolog.Logger
	audit   *audit.Recorder
	events  events.Publisher
	metrics *metrics.Metrics
}

func NewEngine(db *gorm.DB, log zerolog.Logger, rec *audit.Recorder, pub events.Publisher, m *metrics.Metrics) *Engine {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Engine{
		db:      db,
		log:     log.With().Str("component", "checkout").Logger(),
		audit:   rec,
		events:  pub,
		metrics: m,
	}
}

// Checkout: sepeti sipariş olarak kaydeder. Aynı şubeden aynı idempotency key
// ile tekrar gelen istek yeni bir şey yazmadan mevcut siparişi döner; anahtar
// farklı bir sepetle gelirse validation hatası.
func (e *Engine) Checkout(ctx context.Context, cart Cart) (*models.Order, error) {
	order, _, err := e.CheckoutWithStatus(ctx, cart)
	return order, err
}

// CheckoutWithStatus: replayed=true ise sipariş daha önce oluşturulmuş
func (e *Engine) CheckoutWithStatus(ctx context.Context, cart Cart) (order *models.Order, replayed bool, err error) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveCheckout(resultLabel(err, replayed), time.Since(start))
	}()

	if err = cart.Validate(); err != nil {
		return nil, false, err
	}

	if cart.IdempotencyKey != "" {
		existing, ferr := e.findByKey(e.db.WithContext(ctx), cart.BranchID, cart.IdempotencyKey)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing != nil {
			if err = sameCart(existing, cart); err != nil {
				return nil, false, err
			}
			return existing, true, nil
		}
	}

	var out *outcome
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		out, txErr = e.apply(tx, cart)
		return txErr
	})
	if err != nil {
		if cart.IdempotencyKey != "" && isUniqueViolation(err) {
			// aynı anahtarla yarışan diğer istek kazandı
			existing, ferr := e.findByKey(e.db.WithContext(ctx), cart.BranchID, cart.IdempotencyKey)
			if ferr == nil && existing != nil {
				if err = sameCart(existing, cart); err != nil {
					return nil, false, err
				}
				return existing, true, nil
			}
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			e.log.Error().Err(err).Uint("branch_id", cart.BranchID).Msg("checkout transaction başarısız")
			err = apperr.Persistence("sipariş kaydedilemedi", err)
		}
		return nil, false, err
	}
	if out.replayed {
		return out.order, true, nil
	}

	e.afterCommit(cart, out)
	return out.order, false, nil
}

// outcome: commit edilen transaction'ın sonucu
type outcome struct {
	order    *models.Order
	posting  *cari.Posting
	levels   []stockLevel
	replayed bool
}

// stockLevel: düşümden önce ve sonra stok (audit için)
type stockLevel struct {
	Kind   string // ingredient | product
	ID     uint
	Name   string
	Before decimal.Decimal
	After  decimal.Decimal
}

type consumption struct {
	ingredients map[uint]decimal.Decimal
	products    map[uint]decimal.Decimal
	unitCost    map[uint]decimal.Decimal // hammadde birim maliyeti (hareket kaydı için)
	levels      []stockLevel
}

func (e *Engine) apply(tx *gorm.DB, cart Cart) (*outcome, error) {
	// transaction içinde tekrar: eşzamanlı aynı anahtar
	if cart.IdempotencyKey != "" {
		existing, err := e.findByKey(tx, cart.BranchID, cart.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := sameCart(existing, cart); err != nil {
				return nil, err
			}
			return &outcome{order: existing, replayed: true}, nil
		}
	}

	var branch models.Branch
	if err := tx.Select("id").First(&branch, cart.BranchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.EntityBranch, cart.BranchID)
		}
		return nil, err
	}
	if cart.CustomerID != nil {
		var customer models.Customer
		if err := tx.Select("id").First(&customer, *cart.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound(apperr.EntityCustomer, *cart.CustomerID)
			}
			return nil, err
		}
	}

	products, err := loadProducts(tx, cart.Lines)
	if err != nil {
		return nil, err
	}

	use := consumption{
		ingredients: map[uint]decimal.Decimal{},
		products:    map[uint]decimal.Decimal{},
		unitCost:    map[uint]decimal.Decimal{},
	}
	items := make([]models.OrderItem, 0, len(cart.Lines))
	for i, line := range cart.Lines {
		item, err := use.add(products[line.ProductID], line)
		if err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				return nil, err
			}
			return nil, apperr.Validation("%d. satır: %v", i+1, err)
		}
		items = append(items, item)
	}

	var key *string
	if cart.IdempotencyKey != "" {
		k := cart.IdempotencyKey
		key = &k
	}
	order := models.Order{
		Number:         uuid.NewString(),
		BranchID:       cart.BranchID,
		CustomerID:     cart.CustomerID,
		UserID:         cart.UserID,
		Status:         models.OrderCompleted,
		PaymentMethod:  cart.PaymentMethod,
		TotalAmount:    cart.TotalAmount.Round(2),
		Discount:       cart.Discount.Round(2),
		FinalAmount:    cart.FinalAmount.Round(2),
		IdempotencyKey: key,
		Note:           strings.TrimSpace(cart.Note),
		Items:          items,
	}
	if err := tx.Omit("Branch", "Customer").Create(&order).Error; err != nil {
		return nil, err
	}

	if err := use.decrement(tx, order, cart.UserID); err != nil {
		return nil, err
	}

	var posting *cari.Posting
	if cart.PaymentMethod.IsDeferred() {
		orderID := order.ID
		posting, err = cari.Apply(tx, cari.Entry{
			CustomerID:  *cart.CustomerID,
			BranchID:    cart.BranchID,
			Type:        models.CariDebit,
			Amount:      order.FinalAmount,
			Description: fmt.Sprintf("Satış %s", shortNumber(order.Number)),
			OrderID:     &orderID,
			UserID:      cart.UserID,
		})
		if err != nil {
			return nil, err
		}
	}

	return &outcome{order: &order, posting: posting, levels: use.levels}, nil
}

// loadProducts: reçeteler + hammaddeleriyle. Olmayan veya pasif ürün → invalid-product.
func loadProducts(tx *gorm.DB, lines []Line) (map[uint]models.Product, error) {
	ids := make([]uint, 0, len(lines))
	seen := map[uint]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	var list []models.Product
	if err := tx.Preload("Recipes.Items.Ingredient").Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive {
			return nil, apperr.NotFound(apperr.EntityProduct, id)
		}
	}
	return byID, nil
}

// add: satırın tüketimini biriktirir ve sipariş kalemini üretir
func (u *consumption) add(p models.Product, line Line) (models.OrderItem, error) {
	qty := decimal.NewFromInt(int64(line.Quantity))

	if p.Price.Kind == models.PriceTiered {
		if line.Size == models.GenericSize {
			return models.OrderItem{}, apperr.Validation("%s için boyut seçilmeli (%s)", p.Name, strings.Join(p.Price.Sizes(), "/"))
		}
		if _, ok := p.Price.For(line.Size); !ok {
			return models.OrderItem{}, apperr.Validation("%s için %s boyutu yok", p.Name, line.Size)
		}
	}

	recipe, err := availability.SelectRecipe(p.Recipes, line.Size)
	switch {
	case errors.Is(err, availability.ErrSizeRequired):
		return models.OrderItem{}, apperr.Validation("%s için boyut seçilmeli", p.Name)
	case errors.Is(err, availability.ErrNoRecipeForSize):
		return models.OrderItem{}, apperr.Validation("%s %s boyutunda hazırlanamıyor (reçete yok)", p.Name, line.Size)
	case err != nil:
		return models.OrderItem{}, err
	}

	item := models.OrderItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Size:        line.Size,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice.Round(2),
		Total:       line.lineTotal().Round(2),
	}

	cost := p.CostPrice
	if recipe == nil {
		u.products[p.ID] = u.products[p.ID].Add(qty)
	} else {
		id := recipe.ID
		item.RecipeID = &id
		cost = decimal.Zero
		for _, ri := range recipe.Items {
			need := ri.Quantity.Mul(qty)
			u.ingredients[ri.IngredientID] = u.ingredients[ri.IngredientID].Add(need)
			u.unitCost[ri.IngredientID] = ri.Ingredient.CostPerUnit
			cost = cost.Add(ri.Ingredient.CostPerUnit.Mul(ri.Quantity))
		}
	}

	if line.BuyPrice != nil {
		item.BuyPrice = line.BuyPrice.Round(2)
	} else {
		item.BuyPrice = cost.Round(2)
	}
	return item, nil
}

// decrement: koşullu düşüm, id sırasıyla (kilit sırası sabit)
func (u *consumption) decrement(tx *gorm.DB, order models.Order, userID uint) error {
	orderID := order.ID
	branchID := order.BranchID

	for _, id := range sortedKeys(u.ingredients) {
		qty := u.ingredients[id]
		if err := stock.DecrementIngredient(tx, id, qty); err != nil {
			return err
		}
		var ing models.Ingredient
		if err := tx.Select("id", "name", "stock").First(&ing, id).Error; err != nil {
			return err
		}
		u.levels = append(u.levels, stockLevel{Kind: "ingredient", ID: id, Name: ing.Name, Before: ing.Stock.Add(qty), After: ing.Stock})
		mv := models.IngredientMovement{
			IngredientID: id,
			BranchID:     &branchID,
			Type:         models.MovementSale,
			Quantity:     qty.Neg(),
			UnitCost:     u.unitCost[id],
			OrderID:      &orderID,
			UserID:       userID,
			Note:         "Satış " + shortNumber(order.Number),
		}
		if err := tx.Create(&mv).Error; err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(u.products) {
		qty := u.products[id]
		if err := stock.DecrementProduct(tx, id, qty); err != nil {
			return err
		}
		var p models.Product
		if err := tx.Select("id", "name", "stock").First(&p, id).Error; err != nil {
			return err
		}
		u.levels = append(u.levels, stockLevel{Kind: "product", ID: id, Name: p.Name, Before: p.Stock.Add(qty), After: p.Stock})
	}
	return nil
}

func sortedKeys(m map[uint]decimal.Decimal) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (e *Engine) findByKey(db *gorm.DB, branchID uint, key string) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items").
		Where("branch_id = ? AND idempotency_key = ?", branchID, key).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, apperr.Persistence("sipariş okunamadı", err)
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

// sameCart: tekrar gelen istek kayıtlı siparişle aynı sepeti mi taşıyor
func sameCart(order *models.Order, cart Cart) error {
	mismatch := apperr.Validation("idempotency key %q bu şubede farklı bir sepet için kullanılmış", cart.IdempotencyKey)

	if order.PaymentMethod != cart.PaymentMethod || !order.FinalAmount.Equal(cart.FinalAmount.Round(2)) {
		return mismatch
	}
	var stored, sent uint
	if order.CustomerID != nil {
		stored = *order.CustomerID
	}
	if cart.CustomerID != nil {
		sent = *cart.CustomerID
	}
	if stored != sent {
		return mismatch
	}

	type lineKey struct {
		product uint
		size    string
	}
	qty := map[lineKey]int{}
	for _, it := range order.Items {
		qty[lineKey{it.ProductID, it.Size}] += it.Quantity
	}
	for _, l := range cart.Lines {
		qty[lineKey{l.ProductID, l.Size}] -= l.Quantity
	}
	for _, n := range qty {
		if n != 0 {
			return mismatch
		}
	}
	return nil
}

// afterCommit: audit + event. Hataları checkout'u etkilemez.
func (e *Engine) afterCommit(cart Cart, out *outcome) {
	order, posting := out.order, out.posting
	branchID := order.BranchID
	desc := fmt.Sprintf("Satış %s: %d kalem, %s TL (%s)", shortNumber(order.Number), len(order.Items), order.FinalAmount.StringFixed(2), order.PaymentMethod)

	beforeStock := make([]map[string]any, 0, len(out.levels))
	afterStock := make([]map[string]any, 0, len(out.levels))
	for _, l := range out.levels {
		beforeStock = append(beforeStock, map[string]any{"kind": l.Kind, "id": l.ID, "name": l.Name, "stock": l.Before})
		afterStock = append(afterStock, map[string]any{"kind": l.Kind, "id": l.ID, "name": l.Name, "stock": l.After})
	}
	before := map[string]any{"stock": beforeStock}
	after := map[string]any{"order": order, "stock": afterStock}
	if posting != nil {
		before["cari_balance"] = posting.Account.Balance.Sub(posting.Transaction.Amount).StringFixed(2)
		after["cari_balance"] = posting.Account.Balance.StringFixed(2)
	}
	if e.audit != nil {
		e.audit.Record(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      cart.UserID,
			UserName:    cart.UserName,
			UserEmail:   cart.UserEmail,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionCheckout,
			Description: desc,
			Before:      before,
			After:       after,
		})
	}

	e.events.Publish(events.Event{
		Type:     events.TypeOrderCreated,
		Key:      order.Number,
		BranchID: order.BranchID,
		Payload:  order,
	})
	if posting != nil {
		e.events.Publish(events.Event{
			Type:     events.TypeCariDebit,
			Key:      fmt.Sprintf("%d", posting.Transaction.ID),
			BranchID: order.BranchID,
			Payload:  posting.Transaction,
		})
	}

	e.log.Info().
		Uint("order_id", order.ID).
		Str("number", order.Number).
		Uint("branch_id", order.BranchID).
		Str("payment", string(order.PaymentMethod)).
		Str("final_amount", order.FinalAmount.StringFixed(2)).
		Msg("sipariş oluşturuldu")
}

func shortNumber(n string) string {
	if len(n) > 8 {
		return "#" + strings.ToUpper(n[:8])
	}
	return "#" + n
}

func resultLabel(err error, replayed bool) string {
	if err == nil {
		if replayed {
			return metrics.ResultReplayed
		}
		return metrics.ResultSuccess
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return metrics.ResultValidation
	case apperr.KindInsufficientStock:
		return metrics.ResultInsufficientStock
	case apperr.KindNotFound:
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

// isUniqueViolation: postgres (23505) ve sqlite mesajları
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
