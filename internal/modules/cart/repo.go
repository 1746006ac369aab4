package cart

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/shared/dbx"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) productExists(ctx context.Context, productID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("id = ?", productID).Count(&n).Error
	return n > 0, err
}

// Upsert inserts the line or adds qty to the existing one. The increment is
// a single guarded UPDATE, so concurrent adds never lose a unit and the
// merged quantity never passes MaxQuantity (ErrInvalidQuantity).
func (r *Repo) Upsert(ctx context.Context, userID, productID uint, qty int) error {
	db := r.db.WithContext(ctx)
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		res := db.Model(&Item{}).
			Where("user_id = ? AND product_id = ? AND quantity + ? <= ?", userID, productID, qty, MaxQuantity).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var n int64
		if err := db.Model(&Item{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrInvalidQuantity
		}

		err = db.Create(&Item{UserID: userID, ProductID: productID, Quantity: qty}).Error
		if err == nil {
			return nil
		}
		// Lost the insert race; the next pass increments the winner's row.
		if !dbx.IsDuplicateKey(err) {
			return err
		}
	}
	return err
}

// UpdateQty overwrites the quantity of an owned line, or deletes it when
// qty <= 0. It reports whether a row matched.
func (r *Repo) UpdateQty(ctx context.Context, userID, itemID uint, qty int) (bool, error) {
	q := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID)
	var res *gorm.DB
	if qty <= 0 {
		res = q.Delete(&Item{})
	} else {
		res = q.Model(&Item{}).Update("quantity", qty)
	}
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Update reports zero rows when the value is unchanged on some drivers.
	var n int64
	err := r.db.WithContext(ctx).Model(&Item{}).Where("id = ? AND user_id = ?", itemID, userID).Count(&n).Error
	return n > 0, err
}

func (r *Repo) Delete(ctx context.Context, userID, itemID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&Item{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repo) ListByUser(ctx context.Context, userID uint) ([]Item, error) {
	var items []Item
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// LockForCheckoutTx reads the user's lines FOR UPDATE inside tx.
func (r *Repo) LockForCheckoutTx(ctx context.Context, tx *gorm.DB, userID uint) ([]Item, error) {
	var items []Item
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *Repo) DeleteAllTx(ctx context.Context, tx *gorm.DB, userID uint) error {
	return tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&Item{}).Error
}
