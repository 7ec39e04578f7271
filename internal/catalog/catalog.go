// Package catalog reads seed data for products, promotions and their links.
package catalog

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/promo-pricing/internal/domain/product"
	"github.com/xenking/promo-pricing/internal/domain/promotion"
)

// Catalog is a complete seed data set.
type Catalog struct {
	Products   []product.Product
	Promotions []Promotion
}

// Promotion is a promotion together with the products it applies to.
type Promotion struct {
	promotion.Promotion
	ProductIDs []int64
}

type fileProduct struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type filePromotion struct {
	ID            int64     `json:"id"`
	PromotionType string    `json:"promotionType"`
	Name          string    `json:"name"`
	DiscountType  string    `json:"discountType"`
	DiscountValue int64     `json:"discountValue"`
	UseStartedAt  time.Time `json:"useStartedAt"`
	UseEndedAt    time.Time `json:"useEndedAt"`
	ProductIDs    []int64   `json:"productIds"`
}

type file struct {
	Products   []fileProduct   `json:"products"`
	Promotions []filePromotion `json:"promotions"`
}

// Open reads a catalog from path. Files ending in .gz are decompressed.
func Open(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return Read(r)
}

// Read parses and validates a JSON catalog.
func Read(r io.Reader) (*Catalog, error) {
	var raw file
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	c := &Catalog{Products: make([]product.Product, 0, len(raw.Products))}
	known := make(map[int64]bool, len(raw.Products))
	for _, p := range raw.Products {
		if p.ID <= 0 {
			return nil, errors.Errorf("product %q: invalid id %d", p.Name, p.ID)
		}
		if p.Price < 0 {
			return nil, errors.Errorf("product %d: negative price", p.ID)
		}
		known[p.ID] = true
		c.Products = append(c.Products, product.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}

	for _, p := range raw.Promotions {
		promo, err := p.toDomain()
		if err != nil {
			return nil, errors.Wrapf(err, "promotion %d", p.ID)
		}
		for _, id := range p.ProductIDs {
			if !known[id] {
				return nil, errors.Errorf("promotion %d: unknown product %d", p.ID, id)
			}
		}
		c.Promotions = append(c.Promotions, Promotion{Promotion: promo, ProductIDs: p.ProductIDs})
	}
	return c, nil
}

func (p filePromotion) toDomain() (promotion.Promotion, error) {
	if p.ID <= 0 {
		return promotion.Promotion{}, errors.Errorf("invalid id %d", p.ID)
	}
	dt, err := promotion.ParseDiscountType(p.DiscountType)
	if err != nil {
		return promotion.Promotion{}, err
	}
	if p.DiscountValue < 0 || (dt == promotion.DiscountPercent && p.DiscountValue > 100) {
		return promotion.Promotion{}, errors.Errorf("discount value %d out of range", p.DiscountValue)
	}
	if p.UseEndedAt.Before(p.UseStartedAt) {
		return promotion.Promotion{}, errors.New("ends before it starts")
	}

	kind := promotion.KindCoupon
	if p.PromotionType != "" {
		if kind, err = promotion.ParseKind(p.PromotionType); err != nil {
			return promotion.Promotion{}, err
		}
	}
	return promotion.Promotion{
		ID:            p.ID,
		Kind:          kind,
		Name:          p.Name,
		DiscountType:  dt,
		DiscountValue: p.DiscountValue,
		StartsAt:      p.UseStartedAt,
		EndsAt:        p.UseEndedAt,
	}, nil
}
