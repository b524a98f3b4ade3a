package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

const apiPrefix = "/api/"

// links builds absolute resource URLs for the host a request came in on.
type links struct {
	base string
}

func linksFor(r *http.Request) links {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return links{base: scheme + "://" + r.Host}
}

// to joins parts below /api/ with a trailing slash, e.g. to("products", 3)
// is http://host/api/products/3/.
func (l links) to(parts ...any) string {
	var b strings.Builder
	b.WriteString(l.base)
	b.WriteString(apiPrefix)
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			b.WriteString(v)
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case int:
			b.WriteString(strconv.Itoa(v))
		}
		b.WriteByte('/')
	}
	return b.String()
}

// optional links to a resource when id is set and returns nil otherwise.
func (l links) optional(collection string, id *int64) *string {
	if id == nil {
		return nil
	}
	u := l.to(collection, *id)
	return &u
}

// idFromURL extracts the id from a hyperlink to collection, such as
// http://host/api/products/3/. The host is ignored.
func idFromURL(raw, collection string) (int64, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[len(segs)-2] != collection {
		return 0, false
	}
	id, err := strconv.ParseInt(segs[len(segs)-1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// hyperlinkField resolves a hyperlink field of a request body, returning a
// field error shaped like the ones the rest of the API produces.
func hyperlinkField(field, raw, collection string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, entity.FieldError(field, "This field is required.")
	}
	id, ok := idFromURL(raw, collection)
	if !ok {
		return 0, entity.FieldError(field, "Invalid hyperlink - Incorrect URL match.")
	}
	return id, nil
}

// asFieldError reports a missing hyperlinked object against field.
func asFieldError(err error, field string) error {
	if errors.Is(err, entity.ErrNotFound) {
		return entity.FieldError(field, "Invalid hyperlink - Object does not exist.")
	}
	return err
}

// pathID reads the {pk} route parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pk"), 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.ErrNotFound
	}
	return id, nil
}
