package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tabrest/tabrest/pkg/httputil"
	pg "github.com/tabrest/tabrest/pkg/pgx"
	"github.com/tabrest/tabrest/pkg/resource"
)

// binder registers a descriptor's route set with the serving layer.
//
// Per resource with prefix /r and primary key id:
//
//	GET    /r/        collection listing   (if GET allowed)
//	GET    /r/meta    schema metadata      (if GET allowed)
//	POST   /r/        create               (if POST allowed)
//	METHOD /r/{id}    item operation for every allowed method except POST
//
// The {id} segment is constrained to the resource's primary-key routing
// type; a segment that does not parse yields a routing-level 404.
type binder struct {
	router *httputil.Router
	db     pg.Conn
	logger *zap.Logger
}

func newBinder(router *httputil.Router, db pg.Conn, logger *zap.Logger) *binder {
	return &binder{router: router, db: db, logger: logger}
}

func (b *binder) bind(desc *resource.Descriptor) {
	h := newResourceHandler(b.db, desc, b.logger)

	if desc.Allows(http.MethodGet) {
		b.router.Handle("GET "+desc.URLPrefix+"/{$}", http.HandlerFunc(h.handleList))
		b.router.Handle("GET "+desc.URLPrefix+"/meta", http.HandlerFunc(h.handleMeta))
	}
	if desc.Allows(http.MethodPost) {
		b.router.Handle("POST "+desc.URLPrefix+"/{$}", http.HandlerFunc(h.handleCreate))
	}

	// POST is collection-only, never item-level
	for _, method := range desc.Methods {
		if method == http.MethodPost {
			continue
		}
		b.router.Handle(method+" "+desc.URLPrefix+"/{id}", b.itemHandler(h, method))
	}
}

// itemHandler picks the handler for one item-level method. Descriptor
// building validates the method set, so every method reaching here is one of
// the CRUD verbs.
func (b *binder) itemHandler(h *resourceHandler, method string) http.Handler {
	var fn http.HandlerFunc
	switch method {
	case http.MethodGet:
		fn = h.handleRead
	case http.MethodPut:
		fn = h.handleReplace
	case http.MethodPatch:
		fn = h.handleUpdate
	case http.MethodDelete:
		fn = h.handleDelete
	}
	return fn
}
