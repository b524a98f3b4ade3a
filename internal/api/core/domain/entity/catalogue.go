package entity

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

type ProductStructure string

const (
	StructureStandalone ProductStructure = "standalone"
	StructureParent     ProductStructure = "parent"
	StructureChild      ProductStructure = "child"
)

type ProductClass struct {
	ID               int64
	Name             string
	Slug             string
	RequiresShipping bool
	TrackStock       bool
}

type Product struct {
	ID          int64
	UPC         string
	Title       string
	Description string
	Structure   ProductStructure
	ClassID     int64
	Class       *ProductClass
	Categories  []Category
	Images      []ProductImage
	Attributes  []ProductAttributeValue
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequiresShipping defaults to true for products without a class.
func (p *Product) RequiresShipping() bool {
	if p.Class == nil {
		return true
	}
	return p.Class.RequiresShipping
}

// TracksStock defaults to true for products without a class.
func (p *Product) TracksStock() bool {
	if p.Class == nil {
		return true
	}
	return p.Class.TrackStock
}

// PrimaryImage returns the first image by display order, or nil.
func (p *Product) PrimaryImage() *ProductImage {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0]
}

type ProductImage struct {
	ID           int64
	ProductID    int64
	Original     string
	Caption      string
	DisplayOrder int
}

type ProductAttributeValue struct {
	Name  string
	Code  string
	Value string
}

// Category is a node in a materialised-path tree. Path is a sequence of
// fixed-width steps, so the root has Depth 1 and a Path of one step.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Path        string
	Depth       int
	// Ancestors holds the names from the root down to this category.
	Ancestors []string
}

// CategoryPathStep is the width of one level of Category.Path.
const CategoryPathStep = 4

// FullName is the breadcrumb name, e.g. "Books > Fiction".
func (c *Category) FullName() string {
	if len(c.Ancestors) == 0 {
		return c.Name
	}
	return strings.Join(c.Ancestors, " > ")
}

// ParentPath returns the path of the parent category, or "" for a root.
func (c *Category) ParentPath() string {
	if c.Depth <= 1 || len(c.Path) < CategoryPathStep {
		return ""
	}
	return c.Path[:len(c.Path)-CategoryPathStep]
}

type Option struct {
	ID   int64
	Name string
	Code string
	Type string
}

type Partner struct {
	ID   int64
	Name string
	Code string
}

type StockRecord struct {
	ID           int64
	ProductID    int64
	PartnerID    int64
	PartnerSKU   string
	Currency     string
	PriceExclTax decimal.Decimal
	NumInStock   int
	NumAllocated int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NetStock is the number of units that can still be allocated.
func (s *StockRecord) NetStock() int {
	return s.NumInStock - s.NumAllocated
}

type Country struct {
	ISOCode           string
	Name              string
	PrintableName     string
	IsShippingCountry bool
	DisplayOrder      int
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
