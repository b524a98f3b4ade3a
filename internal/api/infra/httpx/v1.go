package httpx

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
)

const defaultV1Limit = 20

// V1Meta describes the window of a v1 listing. Next and Previous are
// relative URIs, nil at either end.
type V1Meta struct {
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	TotalCount int     `json:"total_count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
}

type V1List[T any] struct {
	Meta    V1Meta `json:"meta"`
	Objects []T    `json:"objects"`
}

type V1Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	UPC         string  `json:"upc"`
	ImageURL    *string `json:"image_url"`
	ResourceURI string  `json:"resource_uri"`
}

type V1Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Depth       int    `json:"depth"`
	ResourceURI string `json:"resource_uri"`
}

func v1URI(resource string, id int64) string {
	return apiPrefix + "v1/" + resource + "/" + strconv.FormatInt(id, 10) + "/"
}

func (l links) v1Product(p *entity.Product) V1Product {
	out := V1Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		UPC:         p.UPC,
		ResourceURI: v1URI("products", p.ID),
	}
	if img := p.PrimaryImage(); img != nil {
		u := l.base + mediaPrefix + img.Original
		out.ImageURL = &u
	}
	return out
}

func v1Category(c *entity.Category) V1Category {
	return V1Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		FullName:    c.FullName(),
		Description: c.Description,
		Depth:       c.Depth,
		ResourceURI: v1URI("categories", c.ID),
	}
}

func v1Page(r *http.Request) (ports.Page, error) {
	limit, err := queryInt(r, "limit", defaultV1Limit)
	if err != nil {
		return ports.Page{}, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return ports.Page{}, err
	}
	return ports.Page{Limit: limit, Offset: offset}, nil
}

// v1Meta builds the meta block. A zero limit lists everything.
func v1Meta(r *http.Request, page ports.Page, total int) V1Meta {
	meta := V1Meta{Limit: page.Limit, Offset: page.Offset, TotalCount: total}
	if page.Limit == 0 {
		return meta
	}
	link := func(offset int) *string {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(page.Limit))
		q.Set("offset", strconv.Itoa(offset))
		u := r.URL.Path + "?" + q.Encode()
		return &u
	}
	if page.Offset+page.Limit < total {
		meta.Next = link(page.Offset + page.Limit)
	}
	if page.Offset > 0 {
		meta.Previous = link(max(page.Offset-page.Limit, 0))
	}
	return meta
}

func (h *Handler) V1ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := v1Page(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	products, total, err := h.catalogue.ListProducts(r.Context(), page)
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := V1List[V1Product]{Meta: v1Meta(r, page, total), Objects: make([]V1Product, 0, len(products))}
	for i := range products {
		out.Objects = append(out.Objects, l.v1Product(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) V1GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.product(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).v1Product(p))
}

func (h *Handler) V1ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := v1Page(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	categories, total, err := h.catalogue.ListCategories(r.Context(), page)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := V1List[V1Category]{Meta: v1Meta(r, page, total), Objects: make([]V1Category, 0, len(categories))}
	for i := range categories {
		out.Objects = append(out.Objects, v1Category(&categories[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) V1GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	c, err := h.catalogue.GetCategory(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v1Category(c))
}
